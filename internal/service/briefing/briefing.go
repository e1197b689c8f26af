package briefing

import (
	"fmt"
	"strings"

	"SignalDesk/internal/domain/models"
)

// Generate composes the human-readable briefing text for a signal.
// The text is what gets persisted and handed to every channel.
func Generate(sig *models.Signal) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Trading Briefing: %s | %s\n\n", sig.Symbol, sig.Timestamp.Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("Recommendation: %s (confidence %d%%, risk %s)\n", sig.Action, sig.Confidence, sig.RiskLevel))
	b.WriteString(fmt.Sprintf("Price: %.2f | Technical score: %+.0f\n", sig.Price, sig.TechnicalScore))

	if sig.TargetPrice != nil {
		b.WriteString(fmt.Sprintf("Target: %.2f", *sig.TargetPrice))
		if sig.StopLoss != nil {
			b.WriteString(fmt.Sprintf(" | Stop loss: %.2f", *sig.StopLoss))
		}
		b.WriteString("\n")
	}

	ind := sig.Indicators
	b.WriteString("\nIndicators:\n")
	b.WriteString(fmt.Sprintf("  RSI(14): %.1f\n", ind.RSI))
	b.WriteString(fmt.Sprintf("  MACD: %.3f / signal %.3f / histogram %+.3f\n",
		ind.MACD.Value, ind.MACD.Signal, ind.MACD.Histogram))
	b.WriteString(fmt.Sprintf("  SMA20: %.2f | SMA50: %.2f | EMA12: %.2f | EMA26: %.2f\n",
		ind.MovingAverages.SMA20, ind.MovingAverages.SMA50,
		ind.MovingAverages.EMA12, ind.MovingAverages.EMA26))
	b.WriteString(fmt.Sprintf("  Bollinger: %.2f / %.2f / %.2f\n",
		ind.BollingerBands.Upper, ind.BollingerBands.Middle, ind.BollingerBands.Lower))

	b.WriteString("\nReasoning:\n")
	for _, line := range strings.Split(sig.Reasoning, "\n") {
		b.WriteString("  - " + line + "\n")
	}

	return b.String()
}
