package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

var errNoSecret = errors.New("JWT secret not configured")

var (
	userRepo  *repository.UserRepository
	jwtSecret []byte
)

func InitAuth(db *sqlx.DB, secret string) {
	userRepo = repository.NewUserRepository(db)
	jwtSecret = []byte(secret)
	if secret == "" {
		log.Warn().Msg("JWT_SECRET is not set, local logins are disabled")
	}
}

// AuthMiddleware acepta tokens emitidos por GenerateToken y, si Clerk está
// configurado, tokens de sesión de Clerk. El id del usuario se guarda como
// "userId".
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token manquant"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		userID, err := parseToken(tokenString)
		if err != nil && clerkEnabled {
			userID, err = verifyClerkToken(c.Request.Context(), tokenString)
		}
		if err != nil {
			log.Debug().Err(err).Msg("rejected token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token invalide"})
			c.Abort()
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}

func parseToken(tokenString string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", errNoSecret
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims")
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return "", errors.New("token has no user")
	}
	return userID, nil
}

func GenerateToken(userId string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", errNoSecret
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userId,
		"exp":    time.Now().Add(tokenLifetime).Unix(),
	})

	return token.SignedString(jwtSecret)
}

func Login(c *gin.Context) {
	var login struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&login); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := userRepo.GetUserByEmail(login.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "email ou mot de passe incorrect"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(login.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "email ou mot de passe incorrect"})
		return
	}

	respondWithToken(c, http.StatusOK, user)
}

func Signup(c *gin.Context) {
	var signup struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Name     string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&signup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(signup.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{
		Email:    signup.Email,
		Password: string(hashedPassword),
		Name:     signup.Name,
	}
	if err := userRepo.CreateUser(user); err != nil {
		respondError(c, err)
		return
	}

	respondWithToken(c, http.StatusCreated, user)
}

func respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := GenerateToken(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, gin.H{
		"token": token,
		"user":  user,
	})
}
