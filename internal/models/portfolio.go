package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de validación de las posiciones ingresadas por el usuario.
var (
	ErrNoPositions      = errors.New("veuillez ajouter au moins une action à votre portefeuille")
	ErrTooManyPositions = errors.New("too many positions")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidBuyPrice  = errors.New("buy price must not be negative")
	ErrEmptySymbol      = errors.New("symbol is required")
)

// Position es una tenencia ingresada por el usuario: cuántas acciones de qué
// empresa, compradas a qué precio.
type Position struct {
	Symbol   string          `json:"symbol" yaml:"symbol" db:"symbol" binding:"required"`
	Quantity int64           `json:"quantity" yaml:"quantity" db:"quantity"`
	BuyPrice decimal.Decimal `json:"buy_price" yaml:"buy_price" db:"buy_price"`
}

// Normalize pasa el símbolo a mayúsculas y le quita espacios.
func (p Position) Normalize() Position {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	return p
}

// Validate verifica los límites de la posición.
func (p Position) Validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return ErrEmptySymbol
	}
	if p.Quantity < 1 {
		return fmt.Errorf("%s: %w", p.Symbol, ErrInvalidQuantity)
	}
	if p.BuyPrice.IsNegative() {
		return fmt.Errorf("%s: %w", p.Symbol, ErrInvalidBuyPrice)
	}
	return nil
}

// ValidatePositions valida cada posición y el tamaño del portafolio contra la
// cantidad de acciones listadas.
func ValidatePositions(positions []Position, maxPositions int) error {
	if len(positions) == 0 {
		return ErrNoPositions
	}
	if maxPositions > 0 && len(positions) > maxPositions {
		return fmt.Errorf("%w: %d > %d", ErrTooManyPositions, len(positions), maxPositions)
	}
	for _, p := range positions {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Portfolio es un conjunto de posiciones con nombre guardado por un usuario.
type Portfolio struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Name      string     `json:"name" db:"name" binding:"required"`
	Positions []Position `json:"positions"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// PortfolioSnapshot es el registro diario del valor de un portafolio guardado.
// MaxValue y MinValue siguen los extremos del día.
type PortfolioSnapshot struct {
	ID              string    `json:"id" db:"id"`
	PortfolioID     string    `json:"portfolio_id" db:"portfolio_id"`
	Date            time.Time `json:"date" db:"date"`
	TotalValue      float64   `json:"total_value" db:"total_value"`
	TotalInvestment float64   `json:"total_investment" db:"total_investment"`
	PnL             float64   `json:"pnl" db:"pnl"`
	PnLPercentage   float64   `json:"pnl_percentage" db:"pnl_percentage"`
	MaxValue        float64   `json:"max_value" db:"max_value"`
	MinValue        float64   `json:"min_value" db:"min_value"`
}

// PortfolioChartData es el historial de un portafolio guardado listo para un
// gráfico de líneas.
type PortfolioChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
}
