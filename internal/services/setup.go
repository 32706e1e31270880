package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/catalog"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/config"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/metrics"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// NewQuoteServiceFromConfig arma el servicio de cotizaciones descrito por cfg:
// el catálogo, la página de TradingView y luego el scanner como proveedores, y
// una cache Redis o en memoria. store, hub y reg pueden ser nil. La función
// devuelta libera la conexión de la cache.
func NewQuoteServiceFromConfig(cfg *config.Config, store QuoteStore, hub Broadcaster, reg *metrics.Registry) (*QuoteService, func() error, error) {
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			return nil, nil, fmt.Errorf("loading catalogue: %w", err)
		}
	}

	var cache QuoteCache = NewMemoryQuoteCache()
	closeCache := func() error { return nil }
	if cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		cache = NewRedisQuoteCache(client, DefaultQuoteCacheKey)
		closeCache = client.Close
	}

	limit := rate.Limit(cfg.QuoteRPS)
	if cfg.QuoteRPS <= 0 {
		limit = rate.Inf
	}

	qs := NewQuoteService(QuoteServiceConfig{
		Catalog: cat,
		Providers: []Provider{
			NewTradingViewProvider(cfg.QuotesURL, nil),
			NewScannerProvider(cfg.ScannerURL, nil),
		},
		Cache:    cache,
		CacheTTL: cfg.QuoteCacheTTL,
		Limiter:  rate.NewLimiter(limit, cfg.QuoteBurst),
		Store:    store,
		Hub:      hub,
		Metrics:  reg,
	})

	log.Info().
		Int("stocks", cat.Len()).
		Str("cache", cache.Name()).
		Dur("cache_ttl", cfg.QuoteCacheTTL).
		Msg("quote service ready")
	return qs, closeCache, nil
}
