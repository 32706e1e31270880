package services

import (
	"context"
	"sync"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/analytics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/rs/zerolog/log"
)

// PortfolioLister lista todos los portafolios guardados.
type PortfolioLister interface {
	ListAll() ([]models.Portfolio, error)
}

// SnapshotSaver registra el valor diario de un portafolio.
type SnapshotSaver interface {
	Save(portfolioID string, m *models.PortfolioMetrics, at time.Time) error
}

// Refresher es la parte de QuoteService que maneja el actualizador.
type Refresher interface {
	Refresh(ctx context.Context) (*RefreshResult, error)
}

// PriceUpdater actualiza las cotizaciones periódicamente y registra el valor de
// cada portafolio guardado.
type PriceUpdater struct {
	interval      time.Duration
	quotes        Refresher
	portfolios    PortfolioLister
	snapshots     SnapshotSaver
	isRunning     bool
	stopChan      chan struct{}
	done          chan struct{}
	mutex         sync.Mutex
	lastUpdated   time.Time
	cachedResults map[string]*models.PortfolioMetrics
}

func NewPriceUpdater(interval time.Duration, quotes Refresher, portfolios PortfolioLister, snapshots SnapshotSaver) *PriceUpdater {
	return &PriceUpdater{
		interval:      interval,
		quotes:        quotes,
		portfolios:    portfolios,
		snapshots:     snapshots,
		cachedResults: make(map[string]*models.PortfolioMetrics),
	}
}

// Start ejecuta una actualización inmediata y luego una en cada tick.
func (p *PriceUpdater) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.isRunning {
		return
	}

	p.isRunning = true
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-stop:
				cancel()
			case <-ctx.Done():
			}
		}()

		p.Update(ctx)
		for {
			select {
			case <-ticker.C:
				p.Update(ctx)
			case <-stop:
				return
			}
		}
	}(p.stopChan, p.done)

	log.Info().Dur("interval", p.interval).Msg("price updater started")
}

// Stop termina el ciclo y espera la actualización en curso.
func (p *PriceUpdater) Stop() {
	p.mutex.Lock()
	if !p.isRunning {
		p.mutex.Unlock()
		return
	}
	p.isRunning = false
	close(p.stopChan)
	done := p.done
	p.mutex.Unlock()

	<-done
	log.Info().Msg("price updater stopped")
}

// Update actualiza las cotizaciones y registra cada portafolio una vez.
func (p *PriceUpdater) Update(ctx context.Context) {
	result, err := p.quotes.Refresh(ctx)
	if err != nil {
		log.Error().Err(err).Msg("refreshing quotes")
		return
	}

	quotes := make(map[string]models.Quote, len(result.Quotes))
	for _, q := range result.Quotes {
		quotes[q.Symbol] = q
	}

	portfolios, err := p.portfolios.ListAll()
	if err != nil {
		log.Error().Err(err).Msg("listing portfolios")
		return
	}

	for _, portfolio := range portfolios {
		p.updatePortfolio(portfolio, quotes, result)
	}

	p.mutex.Lock()
	p.lastUpdated = result.At
	p.mutex.Unlock()
	log.Info().Int("portfolios", len(portfolios)).Msg("portfolio values updated")
}

func (p *PriceUpdater) updatePortfolio(portfolio models.Portfolio, quotes map[string]models.Quote, result *RefreshResult) {
	if len(portfolio.Positions) == 0 {
		return
	}
	m, err := analytics.Analyze(portfolio.Positions, quotes, nil, analytics.Options{Now: result.At})
	if err != nil {
		log.Warn().Str("portfolio", portfolio.ID).Err(err).Msg("analysing portfolio")
		return
	}

	p.mutex.Lock()
	p.cachedResults[portfolio.ID] = m
	p.mutex.Unlock()

	// los precios por defecto no dicen nada del valor real
	if result.Fallback {
		return
	}
	if err := p.snapshots.Save(portfolio.ID, m, result.At); err != nil {
		log.Error().Str("portfolio", portfolio.ID).Err(err).Msg("saving portfolio snapshot")
	}
}

// GetCachedMetrics devuelve las métricas calculadas en la última actualización.
func (p *PriceUpdater) GetCachedMetrics(portfolioID string) (*models.PortfolioMetrics, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	result, exists := p.cachedResults[portfolioID]
	return result, exists
}

func (p *PriceUpdater) GetLastUpdated() time.Time {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.lastUpdated
}
