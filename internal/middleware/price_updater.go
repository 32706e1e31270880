package middleware

import (
	"net/http"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/gin-gonic/gin"
)

var priceUpdaterInstance *services.PriceUpdater

func SetPriceUpdater(updater *services.PriceUpdater) {
	priceUpdaterInstance = updater
}

func GetPriceUpdater() *services.PriceUpdater {
	return priceUpdaterInstance
}

// Health informa qué tan actualizadas están las cotizaciones.
func Health(c *gin.Context) {
	body := gin.H{"status": "ok"}

	if quoteService != nil {
		if last := quoteService.LastRefresh(); last != nil {
			body["quotes"] = gin.H{
				"source":   last.Source,
				"fallback": last.Fallback,
				"count":    len(last.Quotes),
				"at":       last.At,
			}
		}
	}
	if updater := GetPriceUpdater(); updater != nil {
		if at := updater.GetLastUpdated(); !at.IsZero() {
			body["portfolios_updated_at"] = at.Format(time.RFC3339)
		}
	}

	c.JSON(http.StatusOK, body)
}
