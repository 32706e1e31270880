package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// TradingViewProvider hace scraping de la tabla "all stocks" de market movers.
type TradingViewProvider struct {
	url    string
	client *http.Client
}

func NewTradingViewProvider(url string, client *http.Client) *TradingViewProvider {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &TradingViewProvider{url: url, client: client}
}

func (p *TradingViewProvider) Name() string { return "tradingview" }

// FetchQuotes lee la primera tabla de la página. En cada fila después del
// encabezado el símbolo es el link de la primera celda y el precio el texto de
// la segunda.
func (p *TradingViewProvider) FetchQuotes(ctx context.Context) ([]RawQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", BrowserUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status code %d", p.url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no stock table on %s", p.url)
	}

	var quotes []RawQuote
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		link := cells.Eq(0).Find("a").First()
		if link.Length() == 0 {
			return
		}
		symbol := strings.TrimSpace(link.Text())
		priceText := strings.TrimSpace(cells.Eq(1).Text())

		price, err := parsePrice(priceText)
		if err != nil {
			log.Warn().Str("provider", p.Name()).Str("symbol", symbol).Err(err).Msg("skipping row")
			return
		}
		quotes = append(quotes, RawQuote{Symbol: strings.ToUpper(symbol), Price: price})
	})

	if len(quotes) == 0 {
		return nil, errNoRows
	}
	return quotes, nil
}
