package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/analytics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/report"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// historyDays es cuánto hacia atrás se leen los precios diarios para medir los
// ratios.
const historyDays = 365

type analysisResponse struct {
	Metrics *models.PortfolioMetrics `json:"metrics"`
	Charts  models.Charts            `json:"charts"`
	Report  string                   `json:"report"`
}

// checkPositions normaliza las posiciones y las valida contra el catálogo.
func checkPositions(positions []models.Position) ([]models.Position, error) {
	catalog := quoteService.Catalog()

	normalized := make([]models.Position, len(positions))
	for i, p := range positions {
		normalized[i] = p.Normalize()
	}
	if err := models.ValidatePositions(normalized, catalog.Len()); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(normalized))
	for _, p := range normalized {
		if _, ok := catalog.Lookup(p.Symbol); !ok {
			return nil, fmt.Errorf("%w: %s", services.ErrUnknownStock, p.Symbol)
		}
		if seen[p.Symbol] {
			return nil, fmt.Errorf("%w: %s", analytics.ErrDuplicatePosition, p.Symbol)
		}
		seen[p.Symbol] = true
	}
	return normalized, nil
}

func analyze(ctx context.Context, positions []models.Position) (*models.PortfolioMetrics, error) {
	positions, err := checkPositions(positions)
	if err != nil {
		return nil, err
	}

	quotes, err := quoteService.QuoteMap(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		if _, ok := quotes[p.Symbol]; !ok {
			return nil, fmt.Errorf("%w for %s", services.ErrNoQuotes, p.Symbol)
		}
	}

	history, err := quoteService.History(historyDays)
	if err != nil {
		log.Warn().Err(err).Msg("loading quote history, ratios will be estimated")
		history = nil
	}

	m, err := analytics.Analyze(positions, quotes, history, analytics.Options{
		RiskFreeRate: riskFreeRate,
		MaxPositions: quoteService.Catalog().Len(),
	})
	if err != nil {
		return nil, err
	}
	metricsRegistry.Analysis(m.Ratios.Estimated)
	return m, nil
}

func newAnalysisResponse(m *models.PortfolioMetrics) analysisResponse {
	return analysisResponse{
		Metrics: m,
		Charts:  analytics.BuildCharts(m),
		Report:  report.Markdown(m),
	}
}

// AnalyzePortfolio analiza las posiciones enviadas en el body sin guardarlas.
func AnalyzePortfolio(c *gin.Context) {
	var req struct {
		Positions []models.Position `json:"positions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := analyze(c.Request.Context(), req.Positions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(m))
}
