package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
)

func seriesFromCloses(closes []float64) *models.HistorySeries {
	bars := make([]models.PriceBar, len(closes))
	ts := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Timestamp: ts.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c, High: c, Low: c, Close: c,
		}
	}
	return &models.HistorySeries{Symbol: "TEST", Interval: "1d", Bars: bars}
}

func rampCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA(t *testing.T) {
	t.Run("averages the last period closes", func(t *testing.T) {
		got, err := SMA([]float64{42, 44, 43, 45, 47}, 3)
		require.NoError(t, err)
		assert.InDelta(t, 45.0, got, 1e-9)
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, err := SMA([]float64{1, 2}, 3)
		var ie *models.IndicatorError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, 3, ie.Need)
		assert.Equal(t, 2, ie.Have)
	})

	t.Run("rejects non-positive period", func(t *testing.T) {
		_, err := SMA([]float64{1, 2, 3}, 0)
		assert.Error(t, err)
	})
}

func TestEMA(t *testing.T) {
	t.Run("flat series stays at the level", func(t *testing.T) {
		got, err := EMA(flatCloses(40, 100), 12)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, got, 1e-9)
	})

	t.Run("seed equals SMA when length equals period", func(t *testing.T) {
		closes := []float64{1, 2, 3, 4}
		got, err := EMA(closes, 4)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, got, 1e-9)
	})

	t.Run("tracks a rising series from below", func(t *testing.T) {
		closes := rampCloses(60, 100, 1)
		got, err := EMA(closes, 12)
		require.NoError(t, err)
		last := closes[len(closes)-1]
		assert.Less(t, got, last)
		assert.Greater(t, got, last-12)
	})
}

func TestRSI(t *testing.T) {
	t.Run("all gains yields 100", func(t *testing.T) {
		got, err := RSI(rampCloses(30, 100, 1), 14)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, got, 1e-9)
	})

	t.Run("all losses yields 0", func(t *testing.T) {
		got, err := RSI(rampCloses(30, 100, -1), 14)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, got, 1e-9)
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		got, err := RSI(flatCloses(30, 100), 14)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, got, 1e-9)
	})

	t.Run("stays within bounds on mixed data", func(t *testing.T) {
		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 100 + 5*math.Sin(float64(i)/3)
		}
		got, err := RSI(closes, 14)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	})

	t.Run("needs period+1 closes", func(t *testing.T) {
		_, err := RSI(flatCloses(14, 100), 14)
		var ie *models.IndicatorError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, 15, ie.Need)
	})
}

func TestComputeMACD(t *testing.T) {
	t.Run("positive histogram on accelerating uptrend", func(t *testing.T) {
		closes := make([]float64, 80)
		for i := range closes {
			closes[i] = 100 + 0.02*float64(i)*float64(i)
		}
		macd, err := ComputeMACD(closes)
		require.NoError(t, err)
		assert.Greater(t, macd.Value, 0.0)
		assert.Greater(t, macd.Histogram, 0.0)
		assert.InDelta(t, macd.Value-macd.Signal, macd.Histogram, 1e-9)
	})

	t.Run("flat series collapses to zero", func(t *testing.T) {
		macd, err := ComputeMACD(flatCloses(80, 100))
		require.NoError(t, err)
		assert.InDelta(t, 0.0, macd.Value, 1e-9)
		assert.InDelta(t, 0.0, macd.Signal, 1e-9)
		assert.InDelta(t, 0.0, macd.Histogram, 1e-9)
	})

	t.Run("needs 35 closes", func(t *testing.T) {
		_, err := ComputeMACD(flatCloses(34, 100))
		var ie *models.IndicatorError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, 35, ie.Need)
	})
}

func TestBollinger(t *testing.T) {
	t.Run("flat series has zero width", func(t *testing.T) {
		bands, err := Bollinger(flatCloses(25, 100), 20, 2)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, bands.Upper, 1e-9)
		assert.InDelta(t, 100.0, bands.Middle, 1e-9)
		assert.InDelta(t, 100.0, bands.Lower, 1e-9)
	})

	t.Run("bands bracket the middle symmetrically", func(t *testing.T) {
		closes := rampCloses(25, 100, 1)
		bands, err := Bollinger(closes, 20, 2)
		require.NoError(t, err)
		assert.Greater(t, bands.Upper, bands.Middle)
		assert.Less(t, bands.Lower, bands.Middle)
		assert.InDelta(t, bands.Upper-bands.Middle, bands.Middle-bands.Lower, 1e-9)
	})

	t.Run("known values", func(t *testing.T) {
		// 20 closes alternating 99/101: mean 100, population stddev 1.
		closes := make([]float64, 20)
		for i := range closes {
			if i%2 == 0 {
				closes[i] = 99
			} else {
				closes[i] = 101
			}
		}
		bands, err := Bollinger(closes, 20, 2)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, bands.Middle, 1e-9)
		assert.InDelta(t, 102.0, bands.Upper, 1e-9)
		assert.InDelta(t, 98.0, bands.Lower, 1e-9)
	})
}

func TestCompute(t *testing.T) {
	t.Run("full set from a sufficient series", func(t *testing.T) {
		closes := make([]float64, 120)
		for i := range closes {
			closes[i] = 100 + 10*math.Sin(float64(i)/5) + 0.1*float64(i)
		}
		ind, err := Compute(seriesFromCloses(closes))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ind.RSI, 0.0)
		assert.LessOrEqual(t, ind.RSI, 100.0)
		assert.Greater(t, ind.MovingAverages.SMA20, 0.0)
		assert.Greater(t, ind.MovingAverages.SMA50, 0.0)
		assert.Greater(t, ind.BollingerBands.Upper, ind.BollingerBands.Lower)
	})

	t.Run("rejects short history", func(t *testing.T) {
		_, err := Compute(seriesFromCloses(flatCloses(MinBars-1, 100)))
		var ie *models.IndicatorError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, MinBars, ie.Need)
	})
}
