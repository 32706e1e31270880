package middleware

import (
	"errors"
	"net/http"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/analytics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/repository"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errForbidden = errors.New("ce portefeuille appartient à un autre utilisateur")

// statusFor traduce los errores del dominio a estados HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, models.ErrNoPositions),
		errors.Is(err, models.ErrTooManyPositions),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidBuyPrice),
		errors.Is(err, models.ErrEmptySymbol),
		errors.Is(err, analytics.ErrUnknownSymbol),
		errors.Is(err, analytics.ErrDuplicatePosition),
		errors.Is(err, services.ErrUnknownStock),
		errors.Is(err, repository.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoQuotes):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError escribe {"error": ...}. Los errores internos se registran y se
// ocultan.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "erreur interne"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
