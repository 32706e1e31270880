package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BrowserUserAgent se envía a las páginas que rechazan clientes que no son
// navegadores.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	ErrNoQuotes     = errors.New("no quotes available")
	ErrUnknownStock = errors.New("stock not in catalogue")
	errNoRows       = errors.New("provider returned no rows")
)

// RawQuote es un precio leído de un proveedor, antes de cruzarlo con el
// catálogo.
type RawQuote struct {
	Symbol string
	Price  decimal.Decimal
}

// Provider obtiene el precio actual de las acciones de Casablanca.
type Provider interface {
	Name() string
	FetchQuotes(ctx context.Context) ([]RawQuote, error)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}

// parsePrice lee precios como "1,234.50 MAD".
func parsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(text, "MAD", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", text)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non positive price %q", text)
	}
	return price, nil
}
