package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Niveles de riesgo
const (
	RiskLow      = "Faible"
	RiskModerate = "Modéré"
	RiskHigh     = "Élevé"
)

// Colores del dashboard
const (
	ColorRed        = "#FF0000"
	ColorYellow     = "#FFFF00"
	ColorDarkRed    = "#CC0000"
	ColorDarkYellow = "#CCCC00"
)

// StockPerformance es el detalle por posición de un análisis.
type StockPerformance struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Sector        string          `json:"sector"`
	Quantity      int64           `json:"quantity"`
	BuyPrice      decimal.Decimal `json:"buy_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Value         decimal.Decimal `json:"value"`
	Investment    decimal.Decimal `json:"investment"`
	PnL           decimal.Decimal `json:"pnl"`
	PnLPercentage float64         `json:"pnl_percentage"`
	Weight        float64         `json:"weight"` // porcentaje del valor del portafolio (0-100)
}

// Ratios contiene las cifras de riesgo y retorno de un portafolio. Estimated se
// marca cuando no había historial de precios suficiente y se usaron las cifras
// por defecto.
type Ratios struct {
	SharpeRatio  float64 `json:"sharpe_ratio"`
	Beta         float64 `json:"beta"`
	Volatility   float64 `json:"volatility"`    // anualizada, en porcentaje
	AnnualReturn float64 `json:"annual_return"` // en porcentaje
	RiskScore    float64 `json:"risk_score"`
	RiskLevel    string  `json:"risk_level"`
	RiskColor    string  `json:"risk_color"`
	Estimated    bool    `json:"estimated"`
}

// SectorWeight es el valor invertido en un sector.
type SectorWeight struct {
	Sector string          `json:"sector"`
	Value  decimal.Decimal `json:"value"`
	Weight float64         `json:"weight"`
}

// ValuePoint es el valor del portafolio en una fecha.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Recommendations resume la mejor y la peor línea y el consejo general.
type Recommendations struct {
	BestPerformer   *StockPerformance `json:"best_performer,omitempty"`
	WorstPerformer  *StockPerformance `json:"worst_performer,omitempty"`
	SectorCount     int               `json:"sector_count"`
	Diversification string            `json:"diversification"`
	Summary         []string          `json:"summary"`
}

// PortfolioMetrics es el análisis completo de un portafolio.
type PortfolioMetrics struct {
	TotalInvestment    decimal.Decimal    `json:"total_investment"`
	CurrentValue       decimal.Decimal    `json:"current_value"`
	PnL                decimal.Decimal    `json:"pnl"`
	PnLPercentage      float64            `json:"pnl_percentage"`
	StockPerformances  []StockPerformance `json:"stock_performances"`
	Ratios             Ratios             `json:"ratios"`
	SectorDistribution []SectorWeight     `json:"sector_distribution"`
	Evolution          []ValuePoint       `json:"evolution"`
	Simulated          bool               `json:"simulated_evolution"`
	Recommendations    Recommendations    `json:"recommendations"`
	ComputedAt         time.Time          `json:"computed_at"`
}

// BarChart es una serie por categorías.
type BarChart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

// PieChart es una serie de participaciones por categoría.
type PieChart struct {
	Labels   []string  `json:"labels"`
	Values   []float64 `json:"values"`
	Colors   []string  `json:"colors"`
	Hole     float64   `json:"hole"`
	Currency string    `json:"currency"`
}

// Treemap dimensiona los bloques por valor y los colorea por rendimiento.
type Treemap struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []float64 `json:"colors"`
}

// LineChart es una serie temporal.
type LineChart struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
	Color  string    `json:"color"`
}

// Charts agrupa todos los gráficos que dibuja el dashboard.
type Charts struct {
	Evolution   LineChart `json:"evolution"`
	Performance BarChart  `json:"performance"`
	Sectors     PieChart  `json:"sectors"`
	Allocation  Treemap   `json:"allocation"`
}
