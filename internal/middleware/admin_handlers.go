package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetUsers(c *gin.Context) {
	users, err := userRepo.GetAllUsers()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
	})
}

func DeleteUserByAdmin(c *gin.Context) {
	if err := userRepo.DeleteUser(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "utilisateur supprimé"})
}

// RefreshQuotes fuerza una actualización de cotizaciones fuera del ciclo del
// actualizador.
func RefreshQuotes(c *gin.Context) {
	result, err := quoteService.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":   result.Source,
		"fallback": result.Fallback,
		"count":    len(result.Quotes),
		"at":       result.At,
	})
}
