// Package format da formato a montos y porcentajes como los muestra el
// dashboard: "1,234.56 MAD", "+12.30%".
package format

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const Currency = "MAD"

var printer = message.NewPrinter(language.English)

// MAD formatea un monto con separador de miles y dos decimales.
func MAD(d decimal.Decimal) string {
	return printer.Sprintf("%.2f %s", d.Round(2).InexactFloat64(), Currency)
}

// SignedMAD es MAD con signo explícito.
func SignedMAD(d decimal.Decimal) string {
	d = d.Round(2)
	return sign(d.IsNegative()) + MAD(d.Abs())
}

// Number formatea un float con separador de miles y dos decimales.
func Number(f float64) string {
	return printer.Sprintf("%.2f", f)
}

// Percent formatea un porcentaje con dos decimales.
func Percent(p float64) string {
	return printer.Sprintf("%.2f%%", p)
}

// SignedPercent es Percent con signo explícito.
func SignedPercent(p float64) string {
	d := decimal.NewFromFloat(p).Round(2)
	return sign(d.IsNegative()) + Percent(d.Abs().InexactFloat64())
}

func sign(negative bool) string {
	if negative {
		return "-"
	}
	return "+"
}
