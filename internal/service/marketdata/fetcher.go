package marketdata

import (
	"context"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/logger"
)

// Clock returns the current time; injected for deterministic tests.
type Clock func() time.Time

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

type quoteEntry struct {
	quote     *models.Quote
	fetchedAt time.Time
}

type historyEntry struct {
	series    *models.HistorySeries
	fetchedAt time.Time
}

// Fetcher serves quotes and history through a TTL cache with a
// process-wide minimum interval between provider requests. On provider
// failure it falls back to a stale cache entry when one exists; only a
// miss with no fallback is fatal.
type Fetcher struct {
	provider Provider
	log      *logger.Logger
	metrics  repository.Metrics

	ttl         time.Duration
	minInterval time.Duration
	now         Clock
	wait        WaitFunc

	cacheMu sync.RWMutex
	quotes  map[string]quoteEntry
	history map[string]historyEntry

	fetchMu     sync.Mutex
	lastRequest time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithClock injects the time source.
func WithClock(now Clock) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// WithWait injects the throttle wait function.
func WithWait(wait WaitFunc) FetcherOption {
	return func(f *Fetcher) { f.wait = wait }
}

// NewFetcher creates a cached fetcher around the given provider.
func NewFetcher(provider Provider, ttl, minInterval time.Duration, log *logger.Logger, metrics repository.Metrics, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		provider:    provider,
		log:         log,
		metrics:     metrics,
		ttl:         ttl,
		minInterval: minInterval,
		now:         time.Now,
		wait:        sleepWait,
		quotes:      make(map[string]quoteEntry),
		history:     make(map[string]historyEntry),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func sleepWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetQuote returns the cached quote when fresh, otherwise fetches one.
func (f *Fetcher) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	start := f.now()

	f.cacheMu.RLock()
	entry, ok := f.quotes[symbol]
	f.cacheMu.RUnlock()
	if ok && f.now().Sub(entry.fetchedAt) < f.ttl {
		f.recordFetch("quote", true, start)
		return entry.quote, nil
	}

	quote, err := fetchThrottled(ctx, f, func(ctx context.Context) (*models.Quote, error) {
		return f.provider.FetchQuote(ctx, symbol)
	})
	if err != nil {
		if ok {
			// Stale fallback: soft degradation, not an error.
			f.log.Warn("quote fetch failed, serving stale cache",
				logger.String("symbol", symbol), logger.Error(err))
			f.metrics.RecordError("quote_fetch_stale")
			return entry.quote, nil
		}
		f.metrics.RecordError("quote_fetch")
		return nil, &models.DataFetchError{Symbol: symbol, Err: err}
	}

	f.cacheMu.Lock()
	f.quotes[symbol] = quoteEntry{quote: quote, fetchedAt: f.now()}
	f.cacheMu.Unlock()

	f.recordFetch("quote", false, start)
	return quote, nil
}

// GetHistory returns at most periods most-recent bars for (symbol, interval),
// served from cache when fresh and long enough.
func (f *Fetcher) GetHistory(ctx context.Context, symbol, interval string, periods int) (*models.HistorySeries, error) {
	start := f.now()
	key := symbol + ":" + interval

	f.cacheMu.RLock()
	entry, ok := f.history[key]
	f.cacheMu.RUnlock()
	if ok && f.now().Sub(entry.fetchedAt) < f.ttl && entry.series.Len() >= periods {
		f.recordFetch("history", true, start)
		return trimSeries(entry.series, periods), nil
	}

	series, err := fetchThrottled(ctx, f, func(ctx context.Context) (*models.HistorySeries, error) {
		return f.provider.FetchHistory(ctx, symbol, interval, periods)
	})
	if err != nil {
		if ok {
			f.log.Warn("history fetch failed, serving stale cache",
				logger.String("symbol", symbol), logger.String("interval", interval), logger.Error(err))
			f.metrics.RecordError("history_fetch_stale")
			return trimSeries(entry.series, periods), nil
		}
		f.metrics.RecordError("history_fetch")
		return nil, &models.DataFetchError{Symbol: symbol, Err: err}
	}

	f.cacheMu.Lock()
	f.history[key] = historyEntry{series: series, fetchedAt: f.now()}
	f.cacheMu.Unlock()

	f.recordFetch("history", false, start)
	return trimSeries(series, periods), nil
}

// fetchThrottled serializes provider requests and enforces the minimum
// inter-request interval across all symbols and kinds.
func fetchThrottled[T any](ctx context.Context, f *Fetcher, fetch func(context.Context) (T, error)) (T, error) {
	f.fetchMu.Lock()
	defer f.fetchMu.Unlock()

	if !f.lastRequest.IsZero() {
		if remaining := f.minInterval - f.now().Sub(f.lastRequest); remaining > 0 {
			if err := f.wait(ctx, remaining); err != nil {
				var zero T
				return zero, err
			}
		}
	}
	f.lastRequest = f.now()

	return fetch(ctx)
}

func trimSeries(s *models.HistorySeries, periods int) *models.HistorySeries {
	if s.Len() <= periods {
		return s
	}
	return &models.HistorySeries{
		Symbol:   s.Symbol,
		Interval: s.Interval,
		Bars:     s.Bars[s.Len()-periods:],
	}
}

func (f *Fetcher) recordFetch(kind string, hit bool, start time.Time) {
	f.metrics.RecordFetch(kind, hit, f.now().Sub(start).Seconds())
}

var _ repository.MarketData = (*Fetcher)(nil)
