package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/metrics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/realtime"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	quoteService    *services.QuoteService
	liveHub         *realtime.Hub
	metricsRegistry *metrics.Registry
	riskFreeRate    float64
)

// InitQuotes conecta los handlers de cotizaciones y los análisis que alimentan.
func InitQuotes(qs *services.QuoteService, hub *realtime.Hub, reg *metrics.Registry, riskFree float64) {
	quoteService = qs
	liveHub = hub
	metricsRegistry = reg
	riskFreeRate = riskFree
}

func GetStocks(c *gin.Context) {
	catalog := quoteService.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"stocks":  catalog.Stocks(),
		"sectors": catalog.Sectors(),
	})
}

func GetQuotes(c *gin.Context) {
	quotes, err := quoteService.Quotes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"quotes": quotes}
	if last := quoteService.LastRefresh(); last != nil {
		body["fallback"] = last.Fallback
		body["updated_at"] = last.At
	}
	c.JSON(http.StatusOK, body)
}

func GetQuote(c *gin.Context) {
	quote, err := quoteService.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// LiveQuotes abre un websocket que recibe cada actualización.
func LiveQuotes(c *gin.Context) {
	if err := liveHub.ServeWS(c.Writer, c.Request); err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
	}
}
