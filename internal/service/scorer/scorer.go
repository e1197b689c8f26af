package scorer

import (
	"fmt"
	"math"
	"strings"

	"SignalDesk/internal/domain/models"
)

// Action thresholds on the -100..100 technical score.
const (
	buyThreshold  = 40.0
	sellThreshold = -40.0
	maxConfidence = 95
)

// Score turns a quote and its indicators into a trading signal.
// Pure logic over already-computed values; the caller stamps ID and
// timestamp. Every rule that fires contributes one reasoning line.
func Score(quote *models.Quote, ind *models.Indicators) *models.Signal {
	var bullish, bearish int
	var reasons []string

	// RSI momentum
	switch {
	case ind.RSI < 30:
		bullish += 3
		reasons = append(reasons, fmt.Sprintf("RSI %.1f deeply oversold", ind.RSI))
	case ind.RSI <= 40:
		bullish++
		reasons = append(reasons, fmt.Sprintf("RSI %.1f approaching oversold", ind.RSI))
	case ind.RSI > 70:
		bearish += 3
		reasons = append(reasons, fmt.Sprintf("RSI %.1f deeply overbought", ind.RSI))
	case ind.RSI >= 60:
		bearish++
		reasons = append(reasons, fmt.Sprintf("RSI %.1f approaching overbought", ind.RSI))
	}

	// MACD trend
	if ind.MACD.Histogram > 0 {
		bullish += 2
		reasons = append(reasons, fmt.Sprintf("MACD histogram positive (%.3f)", ind.MACD.Histogram))
	} else if ind.MACD.Histogram < 0 {
		bearish += 2
		reasons = append(reasons, fmt.Sprintf("MACD histogram negative (%.3f)", ind.MACD.Histogram))
	}

	// Moving average structure
	ma := ind.MovingAverages
	price := quote.Price
	if price > ma.SMA20 && price > ma.SMA50 {
		bullish += 2
		reasons = append(reasons, fmt.Sprintf("price %.2f above SMA20 and SMA50", price))
	} else if price < ma.SMA20 && price < ma.SMA50 {
		bearish += 2
		reasons = append(reasons, fmt.Sprintf("price %.2f below SMA20 and SMA50", price))
	}
	if ma.SMA20 > ma.SMA50 {
		bullish++
		reasons = append(reasons, "SMA20 above SMA50 (golden cross bias)")
	} else if ma.SMA20 < ma.SMA50 {
		bearish++
		reasons = append(reasons, "SMA20 below SMA50 (death cross bias)")
	}

	// Bollinger extremes
	bb := ind.BollingerBands
	if price <= bb.Lower {
		bullish += 2
		reasons = append(reasons, fmt.Sprintf("price at lower Bollinger band (%.2f)", bb.Lower))
	} else if price >= bb.Upper {
		bearish += 2
		reasons = append(reasons, fmt.Sprintf("price at upper Bollinger band (%.2f)", bb.Upper))
	}

	score := clamp(float64(bullish-bearish)*10, -100, 100)

	var action models.Action
	switch {
	case score >= buyThreshold:
		action = models.ActionBuy
	case score <= sellThreshold:
		action = models.ActionSell
	default:
		action = models.ActionHold
	}

	abs := math.Abs(score)
	var confidence int
	if action == models.ActionHold {
		confidence = int(math.Round(50 + abs))
	} else {
		confidence = int(math.Round(math.Min(maxConfidence, 50+abs/2)))
	}

	risk := models.RiskMedium
	if action != models.ActionHold && abs >= 60 {
		risk = models.RiskLow
	}

	sig := &models.Signal{
		Symbol:         quote.Symbol,
		Action:         action,
		Price:          price,
		Confidence:     confidence,
		Indicators:     *ind,
		TechnicalScore: score,
		RiskLevel:      risk,
	}

	switch action {
	case models.ActionBuy:
		sig.TargetPrice = ptr(math.Max(price*1.02, bb.Upper))
		sig.StopLoss = ptr(math.Min(price*0.99, bb.Lower))
	case models.ActionSell:
		sig.TargetPrice = ptr(math.Min(price*0.98, bb.Lower))
		sig.StopLoss = ptr(math.Max(price*1.01, bb.Upper))
	}

	reasons = append(reasons, fmt.Sprintf("technical score %+.0f (%d bullish / %d bearish points)", score, bullish, bearish))
	sig.Reasoning = strings.Join(reasons, "\n")

	return sig
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

func ptr(v float64) *float64 { return &v }
