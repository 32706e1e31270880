// Package metrics expone las métricas de Prometheus del dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry contiene todas las métricas. Un *Registry nil es válido y no
// registra nada.
type Registry struct {
	reg *prometheus.Registry

	QuoteRefreshes  *prometheus.CounterVec
	QuotesAvailable prometheus.Gauge
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	Analyses        *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	LiveClients     prometheus.Gauge
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		QuoteRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cse_quote_refreshes_total",
				Help: "Quote refresh attempts by provider and result",
			},
			[]string{"provider", "result"},
		),
		QuotesAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cse_quotes_available",
				Help: "Number of stocks with a current quote",
			},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cse_cache_hits_total",
				Help: "Quote cache hits by backend",
			},
			[]string{"backend"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cse_cache_misses_total",
				Help: "Quote cache misses by backend",
			},
			[]string{"backend"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cse_portfolio_analyses_total",
				Help: "Portfolio analyses by ratio kind (measured or estimated)",
			},
			[]string{"ratios"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cse_http_request_duration_seconds",
				Help:    "HTTP request latency by route and status",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"method", "route", "status"},
		),
		LiveClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cse_live_clients",
				Help: "Connected websocket clients",
			},
		),
	}

	r.reg.MustRegister(
		r.QuoteRefreshes,
		r.QuotesAvailable,
		r.CacheHits,
		r.CacheMisses,
		r.Analyses,
		r.HTTPDuration,
		r.LiveClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler sirve las métricas en el formato de texto de Prometheus.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) QuoteRefresh(provider, result string) {
	if r == nil {
		return
	}
	r.QuoteRefreshes.WithLabelValues(provider, result).Inc()
}

func (r *Registry) SetQuotesAvailable(n int) {
	if r == nil {
		return
	}
	r.QuotesAvailable.Set(float64(n))
}

func (r *Registry) CacheHit(backend string) {
	if r == nil {
		return
	}
	r.CacheHits.WithLabelValues(backend).Inc()
}

func (r *Registry) CacheMiss(backend string) {
	if r == nil {
		return
	}
	r.CacheMisses.WithLabelValues(backend).Inc()
}

func (r *Registry) Analysis(estimated bool) {
	if r == nil {
		return
	}
	kind := "measured"
	if estimated {
		kind = "estimated"
	}
	r.Analyses.WithLabelValues(kind).Inc()
}

func (r *Registry) SetLiveClients(n int) {
	if r == nil {
		return
	}
	r.LiveClients.Set(float64(n))
}

// GinMiddleware registra la latencia de cada request por plantilla de ruta.
func (r *Registry) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.HTTPDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
