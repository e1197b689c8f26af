package indicator

import (
	"errors"
	"math"

	"SignalDesk/internal/domain/models"
)

// MinBars is the shortest history Compute accepts: SMA50 dominates
// (MACD's signal line needs 34 closes, Bollinger 20, RSI 15).
const MinBars = 50

var errBadPeriod = errors.New("period must be positive")

// SMA computes the simple moving average of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(closes) < period {
		return 0, &models.IndicatorError{Indicator: "SMA", Need: period, Have: len(closes)}
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(period), nil
}

// EMA computes the exponential moving average with smoothing 2/(period+1),
// seeded from the SMA of the first period closes and carried forward.
func EMA(closes []float64, period int) (float64, error) {
	series, err := emaSeries(closes, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// emaSeries returns the EMA value at every close from index period-1 onward.
func emaSeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errBadPeriod
	}
	if len(closes) < period {
		return nil, &models.IndicatorError{Indicator: "EMA", Need: period, Have: len(closes)}
	}
	seed := 0.0
	for _, c := range closes[:period] {
		seed += c
	}
	seed /= float64(period)

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(closes)-period+1)
	out = append(out, seed)
	ema := seed
	for _, c := range closes[period:] {
		ema = (c-ema)*k + ema
		out = append(out, ema)
	}
	return out, nil
}

// RSI computes the Wilder-smoothed relative strength index over period
// deltas, clamped to [0, 100]. A zero average loss with positive gains
// yields 100; a fully flat series yields the neutral 50.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(closes) < period+1 {
		return 0, &models.IndicatorError{Indicator: "RSI", Need: period + 1, Have: len(closes)}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil // flat series, neutral by convention
		}
		return 100, nil
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	return clamp(rsi, 0, 100), nil
}

// ComputeMACD computes the 12/26 MACD line with the 9-period signal line
// EMA'd over the MACD values themselves.
func ComputeMACD(closes []float64) (models.MACD, error) {
	const (
		fast      = 12
		slow      = 26
		signalLen = 9
	)
	if len(closes) < slow+signalLen {
		return models.MACD{}, &models.IndicatorError{Indicator: "MACD", Need: slow + signalLen, Have: len(closes)}
	}

	fastSeries, err := emaSeries(closes, fast)
	if err != nil {
		return models.MACD{}, err
	}
	slowSeries, err := emaSeries(closes, slow)
	if err != nil {
		return models.MACD{}, err
	}

	// Both series end at the last close; align on the tail.
	n := len(slowSeries)
	macdLine := make([]float64, n)
	offset := len(fastSeries) - n
	for i := 0; i < n; i++ {
		macdLine[i] = fastSeries[offset+i] - slowSeries[i]
	}

	signalSeries, err := emaSeries(macdLine, signalLen)
	if err != nil {
		return models.MACD{}, err
	}

	value := macdLine[len(macdLine)-1]
	signal := signalSeries[len(signalSeries)-1]
	return models.MACD{
		Value:     value,
		Signal:    signal,
		Histogram: value - signal,
	}, nil
}

// Bollinger computes the 20-period bands at k standard deviations.
// The deviation window matches the SMA window exactly (population stddev).
func Bollinger(closes []float64, period int, k float64) (models.BollingerBands, error) {
	middle, err := SMA(closes, period)
	if err != nil {
		return models.BollingerBands{}, &models.IndicatorError{Indicator: "Bollinger", Need: period, Have: len(closes)}
	}

	variance := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - middle
		variance += d * d
	}
	variance /= float64(period)
	dev := k * math.Sqrt(variance)

	return models.BollingerBands{
		Upper:  middle + dev,
		Middle: middle,
		Lower:  middle - dev,
	}, nil
}

// Compute derives the full indicator set from a history series.
func Compute(series *models.HistorySeries) (*models.Indicators, error) {
	closes := series.Closes()
	if len(closes) < MinBars {
		return nil, &models.IndicatorError{Indicator: "indicators", Need: MinBars, Have: len(closes)}
	}

	rsi, err := RSI(closes, 14)
	if err != nil {
		return nil, err
	}
	macd, err := ComputeMACD(closes)
	if err != nil {
		return nil, err
	}
	sma20, err := SMA(closes, 20)
	if err != nil {
		return nil, err
	}
	sma50, err := SMA(closes, 50)
	if err != nil {
		return nil, err
	}
	ema12, err := EMA(closes, 12)
	if err != nil {
		return nil, err
	}
	ema26, err := EMA(closes, 26)
	if err != nil {
		return nil, err
	}
	bands, err := Bollinger(closes, 20, 2)
	if err != nil {
		return nil, err
	}

	return &models.Indicators{
		RSI:            rsi,
		MACD:           macd,
		MovingAverages: models.MovingAverages{SMA20: sma20, SMA50: sma50, EMA12: ema12, EMA26: ema26},
		BollingerBands: bands,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
