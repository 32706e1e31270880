package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/repository"
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	svix "github.com/svix/svix-webhooks/go"
)

var (
	clerkEnabled       bool
	clerkWebhookSecret string
)

// verifyClerkToken devuelve el id de usuario de Clerk de un token de sesión.
var verifyClerkToken = func(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// InitClerk habilita los tokens de sesión de Clerk y el webhook de usuarios.
// Con claves vacías la función queda desactivada.
func InitClerk(secretKey, webhookSecret string) {
	clerkWebhookSecret = webhookSecret
	clerkEnabled = secretKey != ""
	if !clerkEnabled {
		log.Info().Msg("CLERK_SECRET_KEY not set, Clerk authentication disabled")
		return
	}
	clerk.SetKey(secretKey)
	log.Info().Msg("Clerk initialized")
}

type clerkEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

func (e clerkEvent) user() *models.User {
	u := &models.User{
		ID:   e.Data.ID,
		Name: strings.TrimSpace(e.Data.FirstName + " " + e.Data.LastName),
	}
	if len(e.Data.EmailAddresses) > 0 {
		u.Email = e.Data.EmailAddresses[0].EmailAddress
	}
	return u
}

// ClerkWebhookHandler mantiene la tabla de usuarios sincronizada con Clerk. Los
// payloads se autentican con los headers de firma de Svix.
func ClerkWebhookHandler(c *gin.Context) {
	if clerkWebhookSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webhook non configuré"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "corps illisible"})
		return
	}

	wh, err := svix.NewWebhook(clerkWebhookSecret)
	if err != nil {
		log.Error().Err(err).Msg("invalid Clerk webhook secret")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
		return
	}
	if err := wh.Verify(body, c.Request.Header); err != nil {
		log.Warn().Err(err).Msg("Clerk webhook signature rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature invalide"})
		return
	}

	var event clerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if event.Data.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "utilisateur manquant"})
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		err = userRepo.UpsertUser(event.user())
	case "user.deleted":
		err = userRepo.DeleteUser(event.Data.ID)
		if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
	default:
		log.Debug().Str("type", event.Type).Msg("ignoring Clerk event")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	log.Info().Str("type", event.Type).Str("user", event.Data.ID).Msg("Clerk event applied")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
