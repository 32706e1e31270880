package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
)

// priceTable es símbolo -> día -> precio de cierre.
type priceTable map[string]map[time.Time]float64

func buildPriceTable(history []models.QuoteSnapshot) (priceTable, []time.Time) {
	table := make(priceTable)
	days := make(map[time.Time]bool)
	for _, s := range history {
		day := truncateDay(s.Date.UTC())
		if table[s.Symbol] == nil {
			table[s.Symbol] = make(map[time.Time]float64)
		}
		table[s.Symbol][day] = s.Price.InexactFloat64()
		days[day] = true
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return table, sorted
}

// portfolioSeries valoriza las posiciones en cada día en que todas tienen
// precio.
func portfolioSeries(positions []models.Position, history []models.QuoteSnapshot) []models.ValuePoint {
	if len(history) == 0 {
		return nil
	}
	table, days := buildPriceTable(history)

	var series []models.ValuePoint
	for _, day := range days {
		total := 0.0
		complete := true
		for _, p := range positions {
			price, ok := table[p.Symbol][day]
			if !ok {
				complete = false
				break
			}
			total += float64(p.Quantity) * price
		}
		if complete {
			series = append(series, models.ValuePoint{Date: day, Value: total})
		}
	}
	return series
}

// measuredRatios calcula los ratios a partir de los valores diarios. El mercado
// es el promedio equiponderado de todas las acciones con precio en ambos días
// de cada paso. Devuelve false si la serie tiene muy pocos retornos
// utilizables.
func measuredRatios(series []models.ValuePoint, history []models.QuoteSnapshot, riskFree float64) (models.Ratios, bool) {
	table, _ := buildPriceTable(history)

	var portfolio, market []float64
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if prev.Value == 0 {
			continue
		}
		portfolio = append(portfolio, cur.Value/prev.Value-1)
		market = append(market, marketReturn(table, prev.Date, cur.Date))
	}

	if len(portfolio) < MinHistoryPoints-1 {
		return models.Ratios{}, false
	}

	mean, std := meanStd(portfolio)
	r := models.Ratios{
		Volatility:   std * math.Sqrt(tradingDays) * 100,
		AnnualReturn: mean * tradingDays * 100,
		Beta:         beta(portfolio, market),
	}
	if r.Volatility > 0 {
		r.SharpeRatio = (r.AnnualReturn - riskFree*100) / r.Volatility
	}
	classifyRisk(&r)
	return r, true
}

func marketReturn(table priceTable, from, to time.Time) float64 {
	sum := 0.0
	n := 0
	for _, prices := range table {
		a, okA := prices[from]
		b, okB := prices[to]
		if !okA || !okB || a == 0 {
			continue
		}
		sum += b/a - 1
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// meanStd devuelve la media y el desvío estándar muestral.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}

// beta es cov(p, m)/var(m). Un mercado plano da DefaultBeta.
func beta(p, m []float64) float64 {
	mp, _ := meanStd(p)
	mm, sm := meanStd(m)
	if sm == 0 {
		return DefaultBeta
	}
	cov := 0.0
	for i := range p {
		cov += (p[i] - mp) * (m[i] - mm)
	}
	cov /= float64(len(p) - 1)
	return cov / (sm * sm)
}
