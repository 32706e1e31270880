package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const scannerRowsPath = "$.data[*].d"

// ScannerProvider consulta la API del screener de TradingView, que responde con
// {"data":[{"s":"CSEMA:ATW","d":["ATW",512.5]}, ...]}.
type ScannerProvider struct {
	url    string
	client *http.Client
}

func NewScannerProvider(url string, client *http.Client) *ScannerProvider {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &ScannerProvider{url: url, client: client}
}

func (p *ScannerProvider) Name() string { return "scanner" }

var scannerQuery = []byte(`{"columns":["name","close"],"range":[0,200]}`)

func (p *ScannerProvider) FetchQuotes(ctx context.Context) ([]RawQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(scannerQuery))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", BrowserUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("querying %s: status code %d", p.url, resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding scanner response: %w", err)
	}

	rows, err := jsonpath.Get(scannerRowsPath, doc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", scannerRowsPath, err)
	}
	list, ok := rows.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected scanner payload %T", rows)
	}

	var quotes []RawQuote
	for _, r := range list {
		q, err := scannerRow(r)
		if err != nil {
			log.Warn().Str("provider", p.Name()).Err(err).Msg("skipping row")
			continue
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return nil, errNoRows
	}
	return quotes, nil
}

func scannerRow(r any) (RawQuote, error) {
	cols, ok := r.([]any)
	if !ok || len(cols) < 2 {
		return RawQuote{}, fmt.Errorf("malformed row %v", r)
	}
	symbol, ok := cols[0].(string)
	if !ok || symbol == "" {
		return RawQuote{}, fmt.Errorf("row without symbol %v", r)
	}
	// "CSEMA:ATW" en algunos conjuntos de columnas
	if i := strings.LastIndex(symbol, ":"); i >= 0 {
		symbol = symbol[i+1:]
	}

	var price decimal.Decimal
	switch v := cols[1].(type) {
	case float64:
		price = decimal.NewFromFloat(v)
	case string:
		p, err := parsePrice(v)
		if err != nil {
			return RawQuote{}, err
		}
		price = p
	default:
		return RawQuote{}, fmt.Errorf("%s: no close price", symbol)
	}
	if !price.IsPositive() {
		return RawQuote{}, fmt.Errorf("%s: non positive price", symbol)
	}
	return RawQuote{Symbol: strings.ToUpper(symbol), Price: price}, nil
}
