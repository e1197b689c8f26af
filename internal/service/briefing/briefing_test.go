package briefing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"SignalDesk/internal/domain/models"
)

func sampleSignal() *models.Signal {
	target := 108.0
	stop := 92.0
	return &models.Signal{
		ID:         "sig-1",
		Timestamp:  time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
		Symbol:     "AAPL",
		Action:     models.ActionBuy,
		Price:      100,
		Confidence: 90,
		Indicators: models.Indicators{
			RSI:            25,
			MACD:           models.MACD{Value: 1.2, Signal: 0.8, Histogram: 0.4},
			MovingAverages: models.MovingAverages{SMA20: 98, SMA50: 95, EMA12: 99, EMA26: 97},
			BollingerBands: models.BollingerBands{Upper: 108, Middle: 100, Lower: 92},
		},
		Reasoning:      "RSI 25.0 deeply oversold\ntechnical score +80 (8 bullish / 0 bearish points)",
		TechnicalScore: 80,
		RiskLevel:      models.RiskLow,
		TargetPrice:    &target,
		StopLoss:       &stop,
	}
}

func TestGenerate(t *testing.T) {
	text := Generate(sampleSignal())

	assert.Contains(t, text, "Trading Briefing: AAPL | 2026-03-02 14:30 UTC")
	assert.Contains(t, text, "Recommendation: BUY (confidence 90%, risk LOW)")
	assert.Contains(t, text, "Price: 100.00 | Technical score: +80")
	assert.Contains(t, text, "Target: 108.00 | Stop loss: 92.00")
	assert.Contains(t, text, "RSI(14): 25.0")
	assert.Contains(t, text, "MACD: 1.200 / signal 0.800 / histogram +0.400")
	assert.Contains(t, text, "Bollinger: 108.00 / 100.00 / 92.00")
	assert.Contains(t, text, "  - RSI 25.0 deeply oversold")
}

func TestGenerateHoldOmitsTargets(t *testing.T) {
	sig := sampleSignal()
	sig.Action = models.ActionHold
	sig.TargetPrice = nil
	sig.StopLoss = nil

	text := Generate(sig)
	assert.NotContains(t, text, "Target:")
	assert.NotContains(t, text, "Stop loss:")
	assert.Contains(t, text, "Recommendation: HOLD")
}

func TestGenerateReasoningLinesArePrefixed(t *testing.T) {
	text := Generate(sampleSignal())
	_, after, found := strings.Cut(text, "Reasoning:\n")
	assert.True(t, found)
	for _, line := range strings.Split(strings.TrimRight(after, "\n"), "\n") {
		assert.True(t, strings.HasPrefix(line, "  - "), "line %q", line)
	}
}
