package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetProfile(c *gin.Context) {
	user, err := userRepo.GetUserById(c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func UpdateUser(c *gin.Context) {
	var update struct {
		Email string `json:"email" binding:"omitempty,email"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := userRepo.GetUserById(c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	if update.Name != "" {
		user.Name = update.Name
	}

	if err := userRepo.UpdateUser(user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser elimina al usuario que llama y todos los portafolios que guardó.
func DeleteUser(c *gin.Context) {
	if err := userRepo.DeleteUser(c.GetString("userId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "utilisateur supprimé"})
}

