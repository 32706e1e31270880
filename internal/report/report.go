// Package report presenta un análisis de portafolio como Markdown, para la
// terminal, y como HTML, para el dashboard.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/format"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown escribe el reporte completo de un análisis.
func Markdown(m *models.PortfolioMetrics) string {
	var b strings.Builder

	b.WriteString("# Analyse du portefeuille\n\n")
	writeSummary(&b, m)
	writePositions(&b, m)
	writeRatios(&b, m.Ratios)
	writeSectors(&b, m.SectorDistribution)
	writeRecommendations(&b, m.Recommendations)

	return b.String()
}

// HTML convierte un reporte Markdown en un fragmento HTML.
func HTML(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func writeSummary(b *strings.Builder, m *models.PortfolioMetrics) {
	b.WriteString("## Résumé\n\n")
	b.WriteString("| Indicateur | Valeur |\n|---|---:|\n")
	fmt.Fprintf(b, "| Investissement total | %s |\n", format.MAD(m.TotalInvestment))
	fmt.Fprintf(b, "| Valeur actuelle | %s |\n", format.MAD(m.CurrentValue))
	fmt.Fprintf(b, "| Gain/Perte | %s |\n", format.SignedMAD(m.PnL))
	fmt.Fprintf(b, "| Performance | %s |\n\n", format.SignedPercent(m.PnLPercentage))
}

func writePositions(b *strings.Builder, m *models.PortfolioMetrics) {
	b.WriteString("## Détails des positions\n\n")
	b.WriteString("| Action | Nom | Secteur | Quantité | Prix d'achat | Prix actuel | Valeur | P&L | Performance | Poids |\n")
	b.WriteString("|---|---|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, p := range m.StockPerformances {
		fmt.Fprintf(b, "| %s | %s | %s | %d | %s | %s | %s | %s | %s | %s |\n",
			p.Symbol, p.Name, p.Sector, p.Quantity,
			format.MAD(p.BuyPrice), format.MAD(p.CurrentPrice), format.MAD(p.Value),
			format.SignedMAD(p.PnL), format.SignedPercent(p.PnLPercentage), format.Percent(p.Weight))
	}
	b.WriteString("\n")
}

func writeRatios(b *strings.Builder, r models.Ratios) {
	b.WriteString("## Ratios de risque\n\n")
	fmt.Fprintf(b, "- Ratio de Sharpe : %s\n", format.Number(r.SharpeRatio))
	fmt.Fprintf(b, "- Beta : %s\n", format.Number(r.Beta))
	fmt.Fprintf(b, "- Volatilité : %s\n", format.Percent(r.Volatility))
	fmt.Fprintf(b, "- Rendement annuel : %s\n", format.Percent(r.AnnualReturn))
	fmt.Fprintf(b, "- Niveau de risque : **%s**\n", r.RiskLevel)
	if r.Estimated {
		b.WriteString("\n_Historique insuffisant : ratios estimés._\n")
	}
	b.WriteString("\n")
}

func writeSectors(b *strings.Builder, sectors []models.SectorWeight) {
	b.WriteString("## Répartition par secteur\n\n")
	b.WriteString("| Secteur | Valeur | Poids |\n|---|---:|---:|\n")
	for _, s := range sectors {
		fmt.Fprintf(b, "| %s | %s | %s |\n", s.Sector, format.MAD(s.Value), format.Percent(s.Weight))
	}
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, rec models.Recommendations) {
	b.WriteString("## Recommandations\n\n")
	if rec.BestPerformer != nil {
		fmt.Fprintf(b, "- Meilleure performance : %s (%s) %s\n",
			rec.BestPerformer.Name, rec.BestPerformer.Symbol, format.SignedPercent(rec.BestPerformer.PnLPercentage))
	}
	if rec.WorstPerformer != nil {
		fmt.Fprintf(b, "- Moins bonne performance : %s (%s) %s\n",
			rec.WorstPerformer.Name, rec.WorstPerformer.Symbol, format.SignedPercent(rec.WorstPerformer.PnLPercentage))
	}
	b.WriteString("\n### Analyse globale\n\n")
	for _, s := range rec.Summary {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
}
