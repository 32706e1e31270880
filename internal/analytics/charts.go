package analytics

import (
	"fmt"
	"math"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/format"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
)

// SectorPalette colorea la torta de sectores, en ciclo si hay más sectores.
var SectorPalette = []string{models.ColorRed, models.ColorYellow, models.ColorDarkRed, models.ColorDarkYellow}

const sectorHole = 0.4

// BuildCharts arma las series que dibuja el dashboard a partir de un análisis.
func BuildCharts(m *models.PortfolioMetrics) models.Charts {
	var c models.Charts

	c.Evolution.Color = models.ColorRed
	for _, p := range m.Evolution {
		c.Evolution.Dates = append(c.Evolution.Dates, p.Date.Format("2006-01-02"))
		c.Evolution.Values = append(c.Evolution.Values, round2(p.Value))
	}

	lo, hi := pnlRange(m.StockPerformances)
	for _, p := range m.StockPerformances {
		c.Performance.Labels = append(c.Performance.Labels, p.Symbol)
		c.Performance.Values = append(c.Performance.Values, round2(p.PnLPercentage))
		c.Performance.Colors = append(c.Performance.Colors, redToYellow(p.PnLPercentage, lo, hi))

		c.Allocation.Labels = append(c.Allocation.Labels, p.Symbol)
		c.Allocation.Values = append(c.Allocation.Values, round2(p.Value.InexactFloat64()))
		c.Allocation.Colors = append(c.Allocation.Colors, round2(p.PnLPercentage))
	}

	c.Sectors.Hole = sectorHole
	c.Sectors.Currency = format.Currency
	for i, s := range m.SectorDistribution {
		c.Sectors.Labels = append(c.Sectors.Labels, s.Sector)
		c.Sectors.Values = append(c.Sectors.Values, round2(s.Value.InexactFloat64()))
		c.Sectors.Colors = append(c.Sectors.Colors, SectorPalette[i%len(SectorPalette)])
	}

	return c
}

func pnlRange(perfs []models.StockPerformance) (float64, float64) {
	if len(perfs) == 0 {
		return 0, 0
	}
	lo, hi := perfs[0].PnLPercentage, perfs[0].PnLPercentage
	for _, p := range perfs[1:] {
		lo = math.Min(lo, p.PnLPercentage)
		hi = math.Max(hi, p.PnLPercentage)
	}
	return lo, hi
}

// redToYellow lleva v en [lo, hi] a la escala de rojo a amarillo del gráfico de
// rendimiento.
func redToYellow(v, lo, hi float64) string {
	frac := 1.0
	if hi > lo {
		frac = (v - lo) / (hi - lo)
	}
	return fmt.Sprintf("#FF%02X00", int(math.Round(frac*255)))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
