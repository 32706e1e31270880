package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/catalog"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/metrics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/realtime"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider es una implementación mock de Provider para testing
type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) FetchQuotes(ctx context.Context) ([]RawQuote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RawQuote), args.Error(1)
}

// MockQuoteStore es una implementación mock de QuoteStore para testing
type MockQuoteStore struct {
	mock.Mock
}

func (m *MockQuoteStore) SaveQuotes(quotes []models.Quote, at time.Time) error {
	args := m.Called(quotes, at)
	return args.Error(0)
}

func (m *MockQuoteStore) History(since time.Time) ([]models.QuoteSnapshot, error) {
	args := m.Called(since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuoteSnapshot), args.Error(1)
}

type recordingHub struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (h *recordingHub) Broadcast(msg realtime.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// tickingClock avanza un segundo por llamada.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// funcProvider adapta una función a Provider.
type funcProvider struct {
	name  string
	fetch func(ctx context.Context) ([]RawQuote, error)
}

func (p funcProvider) Name() string { return p.name }

func (p funcProvider) FetchQuotes(ctx context.Context) ([]RawQuote, error) { return p.fetch(ctx) }

func raw(symbol, price string) RawQuote {
	return RawQuote{Symbol: symbol, Price: decimal.RequireFromString(price)}
}

func TestRefreshUsesFirstWorkingProvider(t *testing.T) {
	primary := &MockProvider{name: "tradingview"}
	primary.On("FetchQuotes", mock.Anything).Return(nil, errors.New("status code 403"))

	secondary := &MockProvider{name: "scanner"}
	secondary.On("FetchQuotes", mock.Anything).Return([]RawQuote{
		raw("ATW", "512.5"),
		raw("NOTLISTED", "1"),
		raw("ATW", "1"),
		raw("iam", "98.1"),
	}, nil)

	store := &MockQuoteStore{}
	store.On("SaveQuotes", mock.Anything, mock.Anything).Return(nil)

	hub := &recordingHub{}
	reg := metrics.New()
	svc := NewQuoteService(QuoteServiceConfig{
		Providers: []Provider{primary, secondary},
		Store:     store,
		Hub:       hub,
		Metrics:   reg,
		Now:       tickingClock(),
	})

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Fallback)
	assert.Equal(t, "scanner", result.Source)
	require.Len(t, result.Quotes, 2)
	assert.Equal(t, "ATW", result.Quotes[0].Symbol)
	assert.Equal(t, "ATTIJARIWAFA BANK", result.Quotes[0].Name)
	assert.Equal(t, "512.5", result.Quotes[0].Price.String())
	assert.Equal(t, "IAM", result.Quotes[1].Symbol)

	store.AssertCalled(t, "SaveQuotes", result.Quotes, result.At)
	require.Len(t, hub.messages, 1)
	assert.Equal(t, "quotes", hub.messages[0].Type)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.QuoteRefreshes.WithLabelValues("tradingview", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.QuoteRefreshes.WithLabelValues("scanner", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.QuotesAvailable))
}

func TestRefreshFallsBackToCatalogue(t *testing.T) {
	p := &MockProvider{name: "tradingview"}
	p.On("FetchQuotes", mock.Anything).Return([]RawQuote{raw("NOTLISTED", "5")}, nil)

	store := &MockQuoteStore{}
	svc := NewQuoteService(QuoteServiceConfig{Providers: []Provider{p}, Store: store, Now: tickingClock()})

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Len(t, result.Quotes, catalog.Default().Len())
	for _, q := range result.Quotes {
		assert.True(t, q.Price.Equal(FallbackPrice), q.Symbol)
		assert.Equal(t, models.SourceFallback, q.Source)
	}
	store.AssertNotCalled(t, "SaveQuotes", mock.Anything, mock.Anything)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	p := &MockProvider{name: "tradingview"}
	p.On("FetchQuotes", mock.Anything).Return(nil, errors.New("timeout"))

	reg := metrics.New()
	svc := NewQuoteService(QuoteServiceConfig{Providers: []Provider{p}, Metrics: reg, Now: tickingClock()})

	for i := 0; i < 5; i++ {
		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)
	}

	p.AssertNumberOfCalls(t, "FetchQuotes", 3)
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.QuoteRefreshes.WithLabelValues("tradingview", "open")))
}

func TestCancelledCallersDoNotOpenBreaker(t *testing.T) {
	var (
		calls      int
		cancelNext context.CancelFunc
	)
	p := funcProvider{name: "tradingview", fetch: func(ctx context.Context) ([]RawQuote, error) {
		calls++
		if cancelNext != nil {
			cancelNext()
			cancelNext = nil
			<-ctx.Done()
			return nil, fmt.Errorf("fetching quotes: %w", ctx.Err())
		}
		return []RawQuote{raw("ATW", "500")}, nil
	}}

	svc := NewQuoteService(QuoteServiceConfig{Providers: []Provider{p}, Now: tickingClock()})

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancelNext = cancel
		_, err := svc.Refresh(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	}

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.False(t, result.Fallback)
	assert.Equal(t, "tradingview", result.Source)
	assert.Equal(t, "500", result.Quotes[0].Price.String())
}

func TestLastRefreshDoesNotWaitForFetch(t *testing.T) {
	release := make(chan struct{})
	fetching := make(chan struct{})
	first := true
	p := funcProvider{name: "tradingview", fetch: func(ctx context.Context) ([]RawQuote, error) {
		if first {
			first = false
			return []RawQuote{raw("ATW", "500")}, nil
		}
		close(fetching)
		<-release
		return []RawQuote{raw("ATW", "510")}, nil
	}}

	svc := NewQuoteService(QuoteServiceConfig{Providers: []Provider{p}, Now: tickingClock()})
	initial, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Refresh(context.Background())
		assert.NoError(t, err)
	}()
	<-fetching

	got := make(chan *RefreshResult, 1)
	go func() { got <- svc.LastRefresh() }()
	select {
	case r := <-got:
		assert.Same(t, initial, r)
	case <-time.After(time.Second):
		t.Fatal("LastRefresh blocked while a fetch was running")
	}

	close(release)
	<-done
	assert.Equal(t, "510", svc.LastRefresh().Quotes[0].Price.String())
}

func TestQuotesServesFromCache(t *testing.T) {
	p := &MockProvider{name: "tradingview"}
	p.On("FetchQuotes", mock.Anything).Return([]RawQuote{raw("ATW", "500")}, nil).Once()

	reg := metrics.New()
	svc := NewQuoteService(QuoteServiceConfig{Providers: []Provider{p}, Metrics: reg, Now: tickingClock()})
	ctx := context.Background()

	quotes, err := svc.Quotes(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q, err := svc.Quote(ctx, "atw")
	require.NoError(t, err)
	assert.Equal(t, "500", q.Price.String())

	_, err = svc.Quote(ctx, "IAM")
	assert.ErrorIs(t, err, ErrNoQuotes)

	_, err = svc.Quote(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrUnknownStock)

	p.AssertNumberOfCalls(t, "FetchQuotes", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheMisses.WithLabelValues("memory")))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.CacheHits.WithLabelValues("memory")))
}

func TestConcurrentRefreshesShareResult(t *testing.T) {
	release := make(chan time.Time)
	p := &MockProvider{name: "tradingview"}
	p.On("FetchQuotes", mock.Anything).
		WaitUntil(release).
		Return([]RawQuote{raw("ATW", "500")}, nil)

	svc := NewQuoteService(QuoteServiceConfig{Providers: []Provider{p}, Now: tickingClock()})

	var wg sync.WaitGroup
	results := make([]*RefreshResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.Refresh(context.Background())
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	p.AssertNumberOfCalls(t, "FetchQuotes", 1)
	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
}

func TestHistory(t *testing.T) {
	store := &MockQuoteStore{}
	snapshots := []models.QuoteSnapshot{{Symbol: "ATW", Price: decimal.NewFromInt(500)}}
	store.On("History", mock.AnythingOfType("time.Time")).Return(snapshots, nil)

	svc := NewQuoteService(QuoteServiceConfig{Store: store})
	got, err := svc.History(90)
	require.NoError(t, err)
	assert.Equal(t, snapshots, got)

	none, err := NewQuoteService(QuoteServiceConfig{}).History(90)
	require.NoError(t, err)
	assert.Nil(t, none)
}
