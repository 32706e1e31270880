package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSector se informa para las acciones listadas sin sector.
const DefaultSector = "Autre"

// Fuentes de cotizaciones
const (
	SourceTradingView = "tradingview"
	SourceScanner     = "scanner"
	SourceFallback    = "fallback"
)

// Stock es una entrada del catálogo de la Bolsa de Casablanca.
type Stock struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Name   string `json:"name" yaml:"name"`
	Sector string `json:"sector" yaml:"sector"`
}

// SectorOrDefault devuelve el sector, o DefaultSector si no tiene.
func (s Stock) SectorOrDefault() string {
	if s.Sector == "" {
		return DefaultSector
	}
	return s.Sector
}

// Label es la forma "SÍMBOLO - NOMBRE" que usan los selectores de acciones.
func (s Stock) Label() string {
	return s.Symbol + " - " + s.Name
}

// Quote es el último precio conocido de una acción listada.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Sector    string          `json:"sector"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// QuoteSnapshot es un precio diario guardado de una acción.
type QuoteSnapshot struct {
	ID     string          `json:"id" db:"id"`
	Symbol string          `json:"symbol" db:"symbol"`
	Price  decimal.Decimal `json:"price" db:"price"`
	Date   time.Time       `json:"date" db:"date"`
}
