package middleware

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/analytics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/format"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"mad":        format.MAD,
	"signedMAD":  format.SignedMAD,
	"percent":    format.Percent,
	"signedPct":  format.SignedPercent,
	"number":     format.Number,
	"isNegative": func(d decimal.Decimal) bool { return d.IsNegative() },
}).ParseFS(templateFS, "templates/*.html"))

type formRow struct {
	Symbol   string
	Quantity string
	BuyPrice string
}

type dashboardPage struct {
	Stocks    []models.Stock
	Rows      []formRow
	Error     string
	Fallback  bool
	UpdatedAt time.Time

	Metrics *models.PortfolioMetrics
	Charts  *models.Charts
	Report  template.HTML
}

func newDashboardPage() *dashboardPage {
	page := &dashboardPage{Stocks: quoteService.Catalog().Stocks()}
	if last := quoteService.LastRefresh(); last != nil {
		page.Fallback = last.Fallback
		page.UpdatedAt = last.At
	}
	return page
}

func renderDashboard(c *gin.Context, status int, page *dashboardPage) {
	if len(page.Rows) == 0 {
		page.Rows = []formRow{{Quantity: "1"}}
	}
	c.Render(status, render.HTML{
		Template: dashboardTemplate,
		Name:     "dashboard.html",
		Data:     page,
	})
}

// DashboardPage muestra el selector de acciones vacío.
func DashboardPage(c *gin.Context) {
	renderDashboard(c, http.StatusOK, newDashboardPage())
}

// DashboardSubmit analiza las posiciones enviadas por el formulario del
// selector de acciones.
func DashboardSubmit(c *gin.Context) {
	page := newDashboardPage()

	rows, positions, err := readPositionForm(c)
	page.Rows = rows
	if err != nil {
		page.Error = err.Error()
		renderDashboard(c, http.StatusBadRequest, page)
		return
	}

	m, err := analyze(c.Request.Context(), positions)
	if err != nil {
		page.Error = err.Error()
		renderDashboard(c, statusFor(err), page)
		return
	}
	// analyze puede haber disparado la primera actualización
	if last := quoteService.LastRefresh(); last != nil {
		page.Fallback = last.Fallback
		page.UpdatedAt = last.At
	}

	html, err := report.HTML(report.Markdown(m))
	if err != nil {
		respondError(c, err)
		return
	}
	charts := analytics.BuildCharts(m)
	page.Metrics = m
	page.Charts = &charts
	page.Report = html
	renderDashboard(c, http.StatusOK, page)
}

// readPositionForm lee los campos repetidos symbol, quantity y buy_price. Las
// filas sin símbolo se ignoran.
func readPositionForm(c *gin.Context) ([]formRow, []models.Position, error) {
	symbols := c.PostFormArray("symbol")
	quantities := c.PostFormArray("quantity")
	prices := c.PostFormArray("buy_price")

	var rows []formRow
	var positions []models.Position
	var errs []error
	for i, symbol := range symbols {
		row := formRow{Symbol: strings.TrimSpace(symbol)}
		if i < len(quantities) {
			row.Quantity = strings.TrimSpace(quantities[i])
		}
		if i < len(prices) {
			row.BuyPrice = strings.TrimSpace(prices[i])
		}
		if row.Symbol == "" {
			continue
		}
		rows = append(rows, row)

		qty, err := strconv.ParseInt(row.Quantity, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: quantité invalide %q", row.Symbol, row.Quantity))
			continue
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(row.BuyPrice, ",", "."))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: prix d'achat invalide %q", row.Symbol, row.BuyPrice))
			continue
		}
		positions = append(positions, models.Position{Symbol: row.Symbol, Quantity: qty, BuyPrice: price})
	}
	if len(errs) > 0 {
		return rows, nil, errors.Join(errs...)
	}
	if len(positions) == 0 {
		return rows, nil, models.ErrNoPositions
	}
	return rows, positions, nil
}
