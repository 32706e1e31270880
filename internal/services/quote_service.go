package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/catalog"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/metrics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/realtime"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// FallbackPrice es el precio que recibe cada acción cuando ningún proveedor
// responde.
var FallbackPrice = decimal.NewFromInt(100)

// QuoteStore persiste los precios diarios.
type QuoteStore interface {
	SaveQuotes(quotes []models.Quote, at time.Time) error
	History(since time.Time) ([]models.QuoteSnapshot, error)
}

// Broadcaster recibe cada actualización.
type Broadcaster interface {
	Broadcast(msg realtime.Message)
}

// RefreshResult es el resultado de una actualización.
type RefreshResult struct {
	Quotes   []models.Quote `json:"quotes"`
	Source   string         `json:"source"`
	Fallback bool           `json:"fallback"`
	At       time.Time      `json:"at"`
}

type QuoteServiceConfig struct {
	Catalog   *catalog.Catalog
	Providers []Provider
	Cache     QuoteCache
	CacheTTL  time.Duration
	Limiter   *rate.Limiter
	Store     QuoteStore
	Hub       Broadcaster
	Metrics   *metrics.Registry
	Now       func() time.Time
}

// QuoteService obtiene precios de los proveedores en orden, usa una lista de
// precios fija si todos fallan y sirve el resultado desde la cache.
type QuoteService struct {
	cfg      QuoteServiceConfig
	breakers map[string]*gobreaker.CircuitBreaker

	// mutex serializa las consultas; lastMu protege last para que las lecturas
	// no esperen una consulta.
	mutex  sync.Mutex
	lastMu sync.RWMutex
	last   *RefreshResult
}

func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryQuoteCache()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &QuoteService{
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(cfg.Providers)),
	}
	for _, p := range cfg.Providers {
		s.breakers[p.Name()] = newBreaker(p.Name())
	}
	return s
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// Que el cliente se rinda no dice nada del proveedor.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("quote provider circuit changed")
		},
	})
}

func (s *QuoteService) Catalog() *catalog.Catalog { return s.cfg.Catalog }

// Refresh obtiene precios nuevos. Las llamadas concurrentes esperan la
// actualización en curso y comparten su resultado.
func (s *QuoteService) Refresh(ctx context.Context) (*RefreshResult, error) {
	started := s.cfg.Now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if last := s.LastRefresh(); last != nil && !last.At.Before(started) {
		return last, nil
	}

	result, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cfg.Cache.Set(ctx, result.Quotes, s.cfg.CacheTTL); err != nil {
		log.Error().Err(err).Str("cache", s.cfg.Cache.Name()).Msg("caching quotes")
	}
	if !result.Fallback && s.cfg.Store != nil {
		if err := s.cfg.Store.SaveQuotes(result.Quotes, result.At); err != nil {
			log.Error().Err(err).Msg("saving quote snapshots")
		}
	}
	s.cfg.Metrics.SetQuotesAvailable(len(result.Quotes))
	if s.cfg.Hub != nil {
		s.cfg.Hub.Broadcast(realtime.Message{
			Type:     "quotes",
			Quotes:   result.Quotes,
			Fallback: result.Fallback,
			At:       result.At,
		})
	}

	s.lastMu.Lock()
	s.last = result
	s.lastMu.Unlock()
	log.Info().Str("source", result.Source).Int("count", len(result.Quotes)).Bool("fallback", result.Fallback).Msg("quotes refreshed")
	return result, nil
}

func (s *QuoteService) fetch(ctx context.Context) (*RefreshResult, error) {
	for _, p := range s.cfg.Providers {
		if err := s.cfg.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for quote limiter: %w", err)
		}

		out, err := s.breakers[p.Name()].Execute(func() (interface{}, error) {
			raw, err := p.FetchQuotes(ctx)
			if err != nil {
				return nil, err
			}
			quotes := s.match(raw, p.Name())
			if len(quotes) == 0 {
				return nil, fmt.Errorf("%d rows, none in the catalogue", len(raw))
			}
			return quotes, nil
		})
		if err != nil {
			result := "error"
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				result = "open"
			}
			s.cfg.Metrics.QuoteRefresh(p.Name(), result)
			log.Warn().Str("provider", p.Name()).Err(err).Msg("quote provider failed")
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		s.cfg.Metrics.QuoteRefresh(p.Name(), "ok")
		return &RefreshResult{
			Quotes: out.([]models.Quote),
			Source: p.Name(),
			At:     s.cfg.Now(),
		}, nil
	}

	s.cfg.Metrics.QuoteRefresh(models.SourceFallback, "ok")
	log.Warn().Msg("no quote provider answered, using fallback prices")
	return &RefreshResult{
		Quotes:   s.fallback(),
		Source:   models.SourceFallback,
		Fallback: true,
		At:       s.cfg.Now(),
	}, nil
}

// match se queda con las acciones del catálogo y las completa. Gana el primer
// precio de cada símbolo.
func (s *QuoteService) match(raw []RawQuote, source string) []models.Quote {
	now := s.cfg.Now()
	seen := make(map[string]bool, len(raw))
	var quotes []models.Quote
	for _, r := range raw {
		stock, ok := s.cfg.Catalog.Lookup(r.Symbol)
		if !ok || seen[stock.Symbol] {
			continue
		}
		seen[stock.Symbol] = true
		quotes = append(quotes, models.Quote{
			Symbol:    stock.Symbol,
			Name:      stock.Name,
			Sector:    stock.SectorOrDefault(),
			Price:     r.Price,
			Source:    source,
			FetchedAt: now,
		})
	}
	return quotes
}

func (s *QuoteService) fallback() []models.Quote {
	now := s.cfg.Now()
	stocks := s.cfg.Catalog.Stocks()
	quotes := make([]models.Quote, len(stocks))
	for i, st := range stocks {
		quotes[i] = models.Quote{
			Symbol:    st.Symbol,
			Name:      st.Name,
			Sector:    st.SectorOrDefault(),
			Price:     FallbackPrice,
			Source:    models.SourceFallback,
			FetchedAt: now,
		}
	}
	return quotes
}

// Quotes devuelve las cotizaciones en cache y las actualiza si la cache está
// vacía.
func (s *QuoteService) Quotes(ctx context.Context) ([]models.Quote, error) {
	quotes, ok, err := s.cfg.Cache.Get(ctx)
	if err != nil {
		log.Error().Err(err).Str("cache", s.cfg.Cache.Name()).Msg("reading quote cache")
	}
	if ok && len(quotes) > 0 {
		s.cfg.Metrics.CacheHit(s.cfg.Cache.Name())
		return quotes, nil
	}
	s.cfg.Metrics.CacheMiss(s.cfg.Cache.Name())

	result, err := s.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if len(result.Quotes) == 0 {
		return nil, ErrNoQuotes
	}
	return result.Quotes, nil
}

// QuoteMap es Quotes indexado por símbolo.
func (s *QuoteService) QuoteMap(ctx context.Context) (map[string]models.Quote, error) {
	quotes, err := s.Quotes(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]models.Quote, len(quotes))
	for _, q := range quotes {
		m[q.Symbol] = q
	}
	return m, nil
}

// Quote devuelve el precio de una acción.
func (s *QuoteService) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	stock, ok := s.cfg.Catalog.Lookup(symbol)
	if !ok {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrUnknownStock, strings.ToUpper(symbol))
	}
	m, err := s.QuoteMap(ctx)
	if err != nil {
		return models.Quote{}, err
	}
	q, ok := m[stock.Symbol]
	if !ok {
		return models.Quote{}, fmt.Errorf("%w for %s", ErrNoQuotes, stock.Symbol)
	}
	return q, nil
}

// History devuelve los precios diarios guardados de los últimos días.
func (s *QuoteService) History(days int) ([]models.QuoteSnapshot, error) {
	if s.cfg.Store == nil {
		return nil, nil
	}
	return s.cfg.Store.History(s.cfg.Now().AddDate(0, 0, -days))
}

// LastRefresh devuelve la última actualización, o nil antes de la primera.
func (s *QuoteService) LastRefresh() *RefreshResult {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last
}
