package marketdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	applogger "SignalDesk/pkg/logger"
)

type fakeProvider struct {
	mu           sync.Mutex
	quoteCalls   int
	historyCalls int
	quoteErr     error
	historyErr   error
	price        float64
	bars         int
}

func (p *fakeProvider) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quoteCalls++
	if p.quoteErr != nil {
		return nil, p.quoteErr
	}
	return &models.Quote{Symbol: symbol, Price: p.price}, nil
}

func (p *fakeProvider) FetchHistory(ctx context.Context, symbol, interval string, periods int) (*models.HistorySeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.historyCalls++
	if p.historyErr != nil {
		return nil, p.historyErr
	}
	n := p.bars
	if n == 0 {
		n = periods
	}
	bars := make([]models.PriceBar, n)
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.PriceBar{Timestamp: base.Add(time.Duration(i) * 24 * time.Hour), Close: 100 + float64(i)}
	}
	return &models.HistorySeries{Symbol: symbol, Interval: interval, Bars: bars}, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) calls() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quoteCalls, p.historyCalls
}

// fakeTime drives both the clock and the throttle wait: waiting simply
// advances the clock.
type fakeTime struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newFakeTime() *fakeTime {
	return &fakeTime{now: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)}
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeTime) Wait(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, d)
	f.now = f.now.Add(d)
	return nil
}

func (f *fakeTime) Waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, models.Action)            {}
func (nopMetrics) RecordTechnicalScore(string, float64)          {}
func (nopMetrics) RecordChannelDelivery(models.ChannelKey, bool) {}
func (nopMetrics) RecordFetch(string, bool, float64)             {}
func (nopMetrics) RecordWorkflowRun(string, bool, float64)       {}
func (nopMetrics) RecordError(string)                            {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func newTestFetcher(t *testing.T, p *fakeProvider, ttl, minInterval time.Duration) (*Fetcher, *fakeTime) {
	t.Helper()
	ft := newFakeTime()
	f := NewFetcher(p, ttl, minInterval, testLogger(t), nopMetrics{},
		WithClock(ft.Now), WithWait(ft.Wait))
	return f, ft
}

func TestGetQuoteCaching(t *testing.T) {
	t.Run("second call within TTL hits the cache", func(t *testing.T) {
		p := &fakeProvider{price: 150}
		f, _ := newTestFetcher(t, p, 5*time.Minute, 0)

		q1, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		q2, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)

		assert.Equal(t, q1, q2)
		calls, _ := p.calls()
		assert.Equal(t, 1, calls)
	})

	t.Run("expired entry is refetched", func(t *testing.T) {
		p := &fakeProvider{price: 150}
		f, ft := newTestFetcher(t, p, 5*time.Minute, 0)

		_, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		ft.Advance(6 * time.Minute)
		_, err = f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)

		calls, _ := p.calls()
		assert.Equal(t, 2, calls)
	})

	t.Run("symbols are cached independently", func(t *testing.T) {
		p := &fakeProvider{price: 150}
		f, _ := newTestFetcher(t, p, 5*time.Minute, 0)

		_, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		_, err = f.GetQuote(context.Background(), "MSFT")
		require.NoError(t, err)

		calls, _ := p.calls()
		assert.Equal(t, 2, calls)
	})
}

func TestThrottle(t *testing.T) {
	t.Run("back-to-back fetches wait out the interval", func(t *testing.T) {
		p := &fakeProvider{price: 150}
		f, ft := newTestFetcher(t, p, time.Minute, 2*time.Second)

		_, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		_, err = f.GetQuote(context.Background(), "MSFT")
		require.NoError(t, err)

		waits := ft.Waits()
		require.Len(t, waits, 1) // first fetch goes straight through
		assert.Equal(t, 2*time.Second, waits[0])
	})

	t.Run("no wait when enough time has passed", func(t *testing.T) {
		p := &fakeProvider{price: 150}
		f, ft := newTestFetcher(t, p, time.Minute, 2*time.Second)

		_, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		ft.Advance(3 * time.Second)
		_, err = f.GetQuote(context.Background(), "MSFT")
		require.NoError(t, err)

		assert.Empty(t, ft.Waits())
	})

	t.Run("cache hits skip the throttle entirely", func(t *testing.T) {
		p := &fakeProvider{price: 150}
		f, ft := newTestFetcher(t, p, time.Minute, 2*time.Second)

		_, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		_, err = f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)

		assert.Empty(t, ft.Waits())
	})
}

func TestStaleFallback(t *testing.T) {
	t.Run("provider failure serves the stale quote", func(t *testing.T) {
		p := &fakeProvider{price: 150}
		f, ft := newTestFetcher(t, p, 5*time.Minute, 0)

		q1, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)

		ft.Advance(10 * time.Minute)
		p.quoteErr = errors.New("rate limited")

		q2, err := f.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, q1, q2)
	})

	t.Run("failure with no cache is a fetch error", func(t *testing.T) {
		p := &fakeProvider{quoteErr: errors.New("down")}
		f, _ := newTestFetcher(t, p, 5*time.Minute, 0)

		_, err := f.GetQuote(context.Background(), "AAPL")
		var fe *models.DataFetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "AAPL", fe.Symbol)
	})

	t.Run("history failure serves the stale series", func(t *testing.T) {
		p := &fakeProvider{bars: 120}
		f, ft := newTestFetcher(t, p, 5*time.Minute, 0)

		s1, err := f.GetHistory(context.Background(), "AAPL", "1d", 120)
		require.NoError(t, err)

		ft.Advance(10 * time.Minute)
		p.historyErr = errors.New("rate limited")

		s2, err := f.GetHistory(context.Background(), "AAPL", "1d", 120)
		require.NoError(t, err)
		assert.Equal(t, s1.Len(), s2.Len())
	})
}

func TestGetHistory(t *testing.T) {
	t.Run("trims to the requested periods", func(t *testing.T) {
		p := &fakeProvider{bars: 200}
		f, _ := newTestFetcher(t, p, 5*time.Minute, 0)

		s, err := f.GetHistory(context.Background(), "AAPL", "1d", 120)
		require.NoError(t, err)
		assert.Equal(t, 120, s.Len())
		// Most recent bars are kept.
		assert.InDelta(t, 100+199, s.Bars[s.Len()-1].Close, 1e-9)
	})

	t.Run("short cached series forces a refetch", func(t *testing.T) {
		p := &fakeProvider{bars: 60}
		f, _ := newTestFetcher(t, p, 5*time.Minute, 0)

		_, err := f.GetHistory(context.Background(), "AAPL", "1d", 60)
		require.NoError(t, err)

		p.mu.Lock()
		p.bars = 120
		p.mu.Unlock()

		s, err := f.GetHistory(context.Background(), "AAPL", "1d", 120)
		require.NoError(t, err)
		assert.Equal(t, 120, s.Len())

		_, calls := p.calls()
		assert.Equal(t, 2, calls)
	})

	t.Run("intervals are cached separately", func(t *testing.T) {
		p := &fakeProvider{bars: 120}
		f, _ := newTestFetcher(t, p, 5*time.Minute, 0)

		_, err := f.GetHistory(context.Background(), "AAPL", "1d", 100)
		require.NoError(t, err)
		_, err = f.GetHistory(context.Background(), "AAPL", "1wk", 100)
		require.NoError(t, err)

		_, calls := p.calls()
		assert.Equal(t, 2, calls)
	})
}
