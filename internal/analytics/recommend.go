package analytics

import (
	"fmt"
	"strings"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/format"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
)

// Veredictos de diversificación
const (
	DiversificationGood    = "bonne"
	DiversificationImprove = "à améliorer"

	// MinSectorsForGoodDiversification es la cantidad de sectores a partir de
	// la cual la distribución se considera diversificada.
	MinSectorsForGoodDiversification = 4
)

// Recommend elige la mejor y la peor línea y redacta el consejo general. En
// caso de empate queda la primera posición.
func Recommend(m *models.PortfolioMetrics) models.Recommendations {
	rec := models.Recommendations{
		SectorCount: len(m.SectorDistribution),
	}

	for i := range m.StockPerformances {
		p := &m.StockPerformances[i]
		if rec.BestPerformer == nil || p.PnLPercentage > rec.BestPerformer.PnLPercentage {
			rec.BestPerformer = p
		}
		if rec.WorstPerformer == nil || p.PnLPercentage < rec.WorstPerformer.PnLPercentage {
			rec.WorstPerformer = p
		}
	}
	// copias, para que las recomendaciones no compartan el slice de
	// rendimientos
	if rec.BestPerformer != nil {
		best, worst := *rec.BestPerformer, *rec.WorstPerformer
		rec.BestPerformer, rec.WorstPerformer = &best, &worst
	}

	rec.Diversification = DiversificationImprove
	if rec.SectorCount >= MinSectorsForGoodDiversification {
		rec.Diversification = DiversificationGood
	}

	rec.Summary = []string{
		fmt.Sprintf("Votre portefeuille présente un rendement de %s avec un niveau de risque %s.",
			format.Percent(m.PnLPercentage), strings.ToLower(m.Ratios.RiskLevel)),
		fmt.Sprintf("La diversification sectorielle est %s avec %d secteurs représentés.",
			rec.Diversification, rec.SectorCount),
		"Considérez rééquilibrer votre portefeuille pour optimiser le ratio risque/rendement.",
	}
	return rec
}
