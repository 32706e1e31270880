// Package analytics calcula las cifras que muestra el dashboard: valor y
// ganancia de cada posición, ratios de riesgo, distribución sectorial y
// evolución del valor del portafolio.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyPortfolio    = models.ErrNoPositions
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrDuplicatePosition = errors.New("symbol appears more than once")
)

// Cifras usadas cuando no hay historial de precios suficiente para medir el
// portafolio.
const (
	DefaultSharpeRatio = 1.2
	DefaultBeta        = 0.8
	DefaultVolatility  = 15.0

	// EvolutionDays es la duración de la evolución simulada, hoy incluido.
	EvolutionDays = 31

	// MinHistoryPoints es la cantidad de valores diarios del portafolio
	// necesarios para medir los ratios en lugar de estimarlos.
	MinHistoryPoints = 3

	tradingDays = 252
)

var hundred = decimal.NewFromInt(100)

// Options ajusta un análisis.
type Options struct {
	// RiskFreeRate es la tasa libre de riesgo anual como fracción (0.03 es 3%).
	RiskFreeRate float64
	// MaxPositions limita la cantidad de posiciones, normalmente el tamaño del
	// catálogo. Cero desactiva el control.
	MaxPositions int
	// Now es la fecha del análisis. Cero significa time.Now().
	Now time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Analyze valoriza las posiciones con las cotizaciones dadas. history contiene
// precios diarios pasados; puede estar vacío, y en ese caso los ratios se
// estiman y la evolución se simula.
func Analyze(positions []models.Position, quotes map[string]models.Quote, history []models.QuoteSnapshot, opts Options) (*models.PortfolioMetrics, error) {
	if len(positions) == 0 {
		return nil, ErrEmptyPortfolio
	}
	normalized := make([]models.Position, len(positions))
	for i, p := range positions {
		normalized[i] = p.Normalize()
	}
	if err := models.ValidatePositions(normalized, opts.MaxPositions); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(normalized))
	perfs := make([]models.StockPerformance, 0, len(normalized))
	totalInvestment := decimal.Zero
	totalValue := decimal.Zero

	for _, p := range normalized {
		if seen[p.Symbol] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePosition, p.Symbol)
		}
		seen[p.Symbol] = true

		q, ok := quotes[p.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, p.Symbol)
		}

		qty := decimal.NewFromInt(p.Quantity)
		investment := qty.Mul(p.BuyPrice)
		value := qty.Mul(q.Price)
		pnl := value.Sub(investment)

		sector := q.Sector
		if sector == "" {
			sector = models.DefaultSector
		}

		perfs = append(perfs, models.StockPerformance{
			Symbol:        p.Symbol,
			Name:          q.Name,
			Sector:        sector,
			Quantity:      p.Quantity,
			BuyPrice:      p.BuyPrice,
			CurrentPrice:  q.Price,
			Value:         value,
			Investment:    investment,
			PnL:           pnl,
			PnLPercentage: percentOf(pnl, investment),
		})

		totalInvestment = totalInvestment.Add(investment)
		totalValue = totalValue.Add(value)
	}

	for i := range perfs {
		perfs[i].Weight = percentOf(perfs[i].Value, totalValue)
	}

	pnl := totalValue.Sub(totalInvestment)
	m := &models.PortfolioMetrics{
		TotalInvestment:    totalInvestment,
		CurrentValue:       totalValue,
		PnL:                pnl,
		PnLPercentage:      percentOf(pnl, totalInvestment),
		StockPerformances:  perfs,
		SectorDistribution: sectorDistribution(perfs, totalValue),
		ComputedAt:         opts.now(),
	}

	measured := false
	if series := portfolioSeries(normalized, history); len(series) >= MinHistoryPoints {
		m.Ratios, measured = measuredRatios(series, history, opts.RiskFreeRate)
		if measured {
			m.Evolution = series
		}
	}
	if !measured {
		m.Ratios = estimatedRatios(m.PnLPercentage)
		m.Evolution = simulatedEvolution(totalInvestment, totalValue, opts.now())
		m.Simulated = true
	}
	m.Recommendations = Recommend(m)

	return m, nil
}

// percentOf devuelve part/whole*100, o 0 si whole es cero.
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}

func sectorDistribution(perfs []models.StockPerformance, total decimal.Decimal) []models.SectorWeight {
	bySector := make(map[string]decimal.Decimal)
	var order []string
	for _, p := range perfs {
		if _, ok := bySector[p.Sector]; !ok {
			order = append(order, p.Sector)
			bySector[p.Sector] = decimal.Zero
		}
		bySector[p.Sector] = bySector[p.Sector].Add(p.Value)
	}

	out := make([]models.SectorWeight, 0, len(order))
	for _, s := range order {
		out = append(out, models.SectorWeight{
			Sector: s,
			Value:  bySector[s],
			Weight: percentOf(bySector[s], total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

func estimatedRatios(annualReturn float64) models.Ratios {
	r := models.Ratios{
		SharpeRatio:  DefaultSharpeRatio,
		Beta:         DefaultBeta,
		Volatility:   DefaultVolatility,
		AnnualReturn: annualReturn,
		Estimated:    true,
	}
	classifyRisk(&r)
	return r
}

// classifyRisk asigna el puntaje, nivel y color de riesgo a partir de beta y
// volatilidad.
func classifyRisk(r *models.Ratios) {
	r.RiskScore = r.Beta * r.Volatility / 10
	switch {
	case r.RiskScore < 0.5:
		r.RiskLevel, r.RiskColor = models.RiskLow, models.ColorYellow
	case r.RiskScore < 1.0:
		r.RiskLevel, r.RiskColor = models.RiskModerate, models.ColorDarkYellow
	default:
		r.RiskLevel, r.RiskColor = models.RiskHigh, models.ColorRed
	}
}

func simulatedEvolution(investment, value decimal.Decimal, now time.Time) []models.ValuePoint {
	start := truncateDay(now).AddDate(0, 0, -(EvolutionDays - 1))
	from := investment.InexactFloat64()
	to := value.InexactFloat64()

	points := make([]models.ValuePoint, EvolutionDays)
	for i := range points {
		frac := float64(i) / float64(EvolutionDays-1)
		points[i] = models.ValuePoint{
			Date:  start.AddDate(0, 0, i),
			Value: from + (to-from)*frac,
		}
	}
	return points
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
