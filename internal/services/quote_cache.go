package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/go-redis/redis/v8"
)

// QuoteCache guarda la última actualización por un tiempo limitado.
type QuoteCache interface {
	Name() string
	Get(ctx context.Context) ([]models.Quote, bool, error)
	Set(ctx context.Context, quotes []models.Quote, ttl time.Duration) error
}

// MemoryQuoteCache guarda las cotizaciones en el proceso.
type MemoryQuoteCache struct {
	mutex     sync.RWMutex
	quotes    []models.Quote
	expiresAt time.Time
	now       func() time.Time
}

func NewMemoryQuoteCache() *MemoryQuoteCache {
	return &MemoryQuoteCache{now: time.Now}
}

func (c *MemoryQuoteCache) Name() string { return "memory" }

func (c *MemoryQuoteCache) Get(ctx context.Context) ([]models.Quote, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.quotes == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	out := make([]models.Quote, len(c.quotes))
	copy(out, c.quotes)
	return out, true, nil
}

func (c *MemoryQuoteCache) Set(ctx context.Context, quotes []models.Quote, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.quotes = make([]models.Quote, len(quotes))
	copy(c.quotes, quotes)
	c.expiresAt = c.now().Add(ttl)
	return nil
}

// RedisQuoteCache comparte las cotizaciones entre instancias de la API.
type RedisQuoteCache struct {
	client *redis.Client
	key    string
}

const DefaultQuoteCacheKey = "cse:quotes"

func NewRedisQuoteCache(client *redis.Client, key string) *RedisQuoteCache {
	if key == "" {
		key = DefaultQuoteCacheKey
	}
	return &RedisQuoteCache{client: client, key: key}
}

func (c *RedisQuoteCache) Name() string { return "redis" }

func (c *RedisQuoteCache) Get(ctx context.Context) ([]models.Quote, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading quote cache: %w", err)
	}

	var quotes []models.Quote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, false, fmt.Errorf("decoding quote cache: %w", err)
	}
	return quotes, true, nil
}

func (c *RedisQuoteCache) Set(ctx context.Context, quotes []models.Quote, ttl time.Duration) error {
	data, err := json.Marshal(quotes)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("writing quote cache: %w", err)
	}
	return nil
}
