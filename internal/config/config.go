// Package config lee la configuración del servicio desde el entorno,
// opcionalmente cargado desde un archivo .env.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultQuotesURL  = "https://www.tradingview.com/markets/stocks-morocco/market-movers-all-stocks/"
	DefaultScannerURL = "https://scanner.tradingview.com/morocco/scan"
)

type Config struct {
	Port        string
	CORSOrigins []string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret          string
	AdminSecretKey     string
	ClerkSecretKey     string
	ClerkWebhookSecret string

	QuotesURL            string
	ScannerURL           string
	QuoteRefreshInterval time.Duration
	QuoteCacheTTL        time.Duration
	QuoteRPS             float64
	QuoteBurst           int

	RiskFreeRate float64
	CatalogFile  string

	LogLevel  string
	LogFormat string
}

// Load lee los archivos .env (si hay) y luego el entorno.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	return FromEnv()
}

// FromEnv arma la configuración solo con el entorno actual.
func FromEnv() (*Config, error) {
	p := parser{}
	cfg := &Config{
		Port:        str("PORT", "8080"),
		CORSOrigins: list("CORS_ORIGINS", "http://localhost:3000"),
		DatabaseURL: str("DATABASE_URL", "sqlite://database/portfolio.db"),

		RedisAddr:     str("REDIS_ADDR", ""),
		RedisPassword: str("REDIS_PASSWORD", ""),
		RedisDB:       p.int("REDIS_DB", 0),

		JWTSecret:          str("JWT_SECRET", ""),
		AdminSecretKey:     str("ADMIN_SECRET_KEY", ""),
		ClerkSecretKey:     str("CLERK_SECRET_KEY", ""),
		ClerkWebhookSecret: str("CLERK_WEBHOOK_SECRET", ""),

		QuotesURL:            str("QUOTES_URL", DefaultQuotesURL),
		ScannerURL:           str("SCANNER_URL", DefaultScannerURL),
		QuoteRefreshInterval: p.duration("QUOTE_REFRESH_INTERVAL", 15*time.Minute),
		QuoteCacheTTL:        p.duration("QUOTE_CACHE_TTL", 5*time.Minute),
		QuoteRPS:             p.float("QUOTE_RPS", 0.2),
		QuoteBurst:           p.int("QUOTE_BURST", 1),

		RiskFreeRate: p.float("RISK_FREE_RATE", 0.03),
		CatalogFile:  str("CATALOG_FILE", ""),

		LogLevel:  str("LOG_LEVEL", "info"),
		LogFormat: str("LOG_FORMAT", "json"),
	}
	if p.err != nil {
		return nil, p.err
	}
	if cfg.QuoteRefreshInterval <= 0 {
		return nil, fmt.Errorf("QUOTE_REFRESH_INTERVAL must be positive")
	}
	if cfg.QuoteBurst < 1 {
		return nil, fmt.Errorf("QUOTE_BURST must be at least 1")
	}
	return cfg, nil
}

// UsesRedis indica si las cotizaciones se cachean en Redis.
func (c *Config) UsesRedis() bool { return c.RedisAddr != "" }

func str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func list(key, def string) []string {
	var out []string
	for _, s := range strings.Split(str(key, def), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parser guarda el primer error de conversión.
type parser struct {
	err error
}

func (p *parser) fail(key, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
}

func (p *parser) int(key string, def int) int {
	v := str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}
