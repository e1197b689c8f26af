package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"SignalDesk/internal/domain/models"
)

// Provider fetches raw market data from an external source.
type Provider interface {
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
	FetchHistory(ctx context.Context, symbol, interval string, periods int) (*models.HistorySeries, error)
	Name() string
}

// YahooProvider implements Provider against the Yahoo Finance chart API.
type YahooProvider struct {
	baseURL string
	client  *http.Client
}

// NewYahooProvider creates a Yahoo chart client. baseURL is overridable
// for tests; empty selects the public endpoint.
func NewYahooProvider(baseURL string, timeout time.Duration) *YahooProvider {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &YahooProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the provider response shape. Quote arrays use interface{}
// because the API emits nulls for holiday gaps.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string  `json:"symbol"`
				RegularMarketPrice   float64 `json:"regularMarketPrice"`
				ChartPreviousClose   float64 `json:"chartPreviousClose"`
				RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
				RegularMarketVolume  float64 `json:"regularMarketVolume"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s", p.baseURL, url.PathEscape(symbol), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, body)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 ||
		len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: response missing chart data")
	}
	n := len(chart.Chart.Result[0].Timestamp)
	q := chart.Chart.Result[0].Indicators.Quote[0]
	for name, arr := range map[string][]interface{}{
		"open": q.Open, "high": q.High, "low": q.Low, "close": q.Close, "volume": q.Volume,
	} {
		if len(arr) != n {
			return nil, fmt.Errorf("yahoo: %s array has %d entries, want %d", name, len(arr), n)
		}
	}
	return &chart, nil
}

func (p *YahooProvider) parseBars(chart *yahooChart) []models.PriceBar {
	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]models.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bar (holiday etc.)
		}
		bars = append(bars, models.PriceBar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars
}

// FetchQuote fetches a current-day chart and builds a quote snapshot from
// its meta block plus the most recent bar.
func (p *YahooProvider) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	chart, err := p.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	bars := p.parseBars(chart)
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo: no usable bars for %s", symbol)
	}

	meta := chart.Chart.Result[0].Meta
	last := bars[len(bars)-1]

	price := meta.RegularMarketPrice
	if price == 0 {
		price = last.Close
	}
	prev := meta.ChartPreviousClose
	change := 0.0
	changePct := 0.0
	if prev != 0 {
		change = price - prev
		changePct = change / prev * 100
	}
	volume := meta.RegularMarketVolume
	if volume == 0 {
		volume = last.Volume
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Volume:        volume,
		Open:          last.Open,
		High:          nonZero(meta.RegularMarketDayHigh, last.High),
		Low:           nonZero(meta.RegularMarketDayLow, last.Low),
		PreviousClose: prev,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// FetchHistory fetches up to periods bars at the given interval.
func (p *YahooProvider) FetchHistory(ctx context.Context, symbol, interval string, periods int) (*models.HistorySeries, error) {
	chart, err := p.fetchChart(ctx, symbol, interval, rangeFor(interval, periods))
	if err != nil {
		return nil, err
	}
	bars := p.parseBars(chart)
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo: no usable bars for %s", symbol)
	}
	if len(bars) > periods {
		bars = bars[len(bars)-periods:]
	}
	return &models.HistorySeries{Symbol: symbol, Interval: interval, Bars: bars}, nil
}

// rangeFor picks the smallest chart range covering the requested periods.
func rangeFor(interval string, periods int) string {
	switch interval {
	case "1wk":
		switch {
		case periods <= 26:
			return "6mo"
		case periods <= 52:
			return "1y"
		default:
			return "2y"
		}
	default: // daily
		switch {
		case periods <= 30:
			return "3mo"
		case periods <= 90:
			return "6mo"
		case periods <= 250:
			return "1y"
		default:
			return "2y"
		}
	}
}

func nonZero(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}
