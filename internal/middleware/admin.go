package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

var adminKey string

func InitAdmin(key string) {
	adminKey = key
}

// AdminAuth verifica el header Admin-Key. Las rutas de admin quedan cerradas si
// no hay clave configurada.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Admin-Key")
		if adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "accès non autorisé"})
			c.Abort()
			return
		}
		c.Next()
	}
}
