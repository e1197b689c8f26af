package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartJSON(symbol string, price float64, timestamps []int64, closes []interface{}) string {
	ts := ""
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", t)
	}
	cs := ""
	for i, c := range closes {
		if i > 0 {
			cs += ","
		}
		if c == nil {
			cs += "null"
		} else {
			cs += fmt.Sprintf("%v", c)
		}
	}
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"symbol":%q,"regularMarketPrice":%g,"chartPreviousClose":148.0,
			"regularMarketDayHigh":152.0,"regularMarketDayLow":147.5,"regularMarketVolume":1000000},
		"timestamp":[%s],
		"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}
	}],"error":null}}`, symbol, price, ts, cs, cs, cs, cs, cs)
}

func TestYahooFetchQuote(t *testing.T) {
	t.Run("builds quote from meta and last bar", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/AAPL")
			fmt.Fprint(w, chartJSON("AAPL", 151.0,
				[]int64{1767340800, 1767427200},
				[]interface{}{149.5, 150.5}))
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		q, err := p.FetchQuote(context.Background(), "AAPL")
		require.NoError(t, err)

		assert.Equal(t, "AAPL", q.Symbol)
		assert.InDelta(t, 151.0, q.Price, 1e-9)
		assert.InDelta(t, 3.0, q.Change, 1e-9)
		assert.InDelta(t, 3.0/148.0*100, q.ChangePercent, 1e-9)
		assert.InDelta(t, 148.0, q.PreviousClose, 1e-9)
		assert.InDelta(t, 152.0, q.High, 1e-9)
	})

	t.Run("api error payload surfaces as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		_, err := p.FetchQuote(context.Background(), "NOPE")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delisted")
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		_, err := p.FetchQuote(context.Background(), "AAPL")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("ragged quote arrays are an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":[{
				"meta":{"symbol":"AAPL","regularMarketPrice":151.0},
				"timestamp":[1767340800,1767427200],
				"indicators":{"quote":[{"open":[149.5],"high":[150.0],"low":[149.0],"close":[149.5,150.5],"volume":[100]}]}
			}],"error":null}}`)
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		_, err := p.FetchQuote(context.Background(), "AAPL")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "want 2")
	})

	t.Run("missing chart data is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		_, err := p.FetchQuote(context.Background(), "AAPL")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing chart data")
	})
}

func TestYahooFetchHistory(t *testing.T) {
	t.Run("null bars are skipped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chartJSON("AAPL", 151.0,
				[]int64{1767340800, 1767427200, 1767513600},
				[]interface{}{149.5, nil, 150.5}))
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		s, err := p.FetchHistory(context.Background(), "AAPL", "1d", 10)
		require.NoError(t, err)

		require.Equal(t, 2, s.Len())
		assert.InDelta(t, 149.5, s.Bars[0].Close, 1e-9)
		assert.InDelta(t, 150.5, s.Bars[1].Close, 1e-9)
	})

	t.Run("bars come back in ascending time order", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chartJSON("AAPL", 151.0,
				[]int64{1767427200, 1767340800},
				[]interface{}{150.5, 149.5}))
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		s, err := p.FetchHistory(context.Background(), "AAPL", "1d", 10)
		require.NoError(t, err)

		require.Equal(t, 2, s.Len())
		assert.True(t, s.Bars[0].Timestamp.Before(s.Bars[1].Timestamp))
	})

	t.Run("trims to requested periods", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chartJSON("AAPL", 151.0,
				[]int64{1767340800, 1767427200, 1767513600},
				[]interface{}{149.0, 150.0, 151.0}))
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		s, err := p.FetchHistory(context.Background(), "AAPL", "1d", 2)
		require.NoError(t, err)

		require.Equal(t, 2, s.Len())
		assert.InDelta(t, 150.0, s.Bars[0].Close, 1e-9)
	})

	t.Run("all-null series is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chartJSON("AAPL", 0,
				[]int64{1767340800, 1767427200},
				[]interface{}{nil, nil}))
		}))
		defer srv.Close()

		p := NewYahooProvider(srv.URL, 5*time.Second)
		_, err := p.FetchHistory(context.Background(), "AAPL", "1d", 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no usable bars")
	})
}

func TestRangeFor(t *testing.T) {
	assert.Equal(t, "3mo", rangeFor("1d", 30))
	assert.Equal(t, "6mo", rangeFor("1d", 90))
	assert.Equal(t, "1y", rangeFor("1d", 120))
	assert.Equal(t, "2y", rangeFor("1d", 400))
	assert.Equal(t, "6mo", rangeFor("1wk", 20))
	assert.Equal(t, "1y", rangeFor("1wk", 52))
	assert.Equal(t, "2y", rangeFor("1wk", 104))
}
