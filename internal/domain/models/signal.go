package models

import "time"

// Action is the discrete trading recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// RiskLevel classifies the conviction band of a signal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Signal is the scored recommendation for one workflow run.
// Immutable once created; downstream components treat it as a read-only value.
type Signal struct {
	ID             string     `json:"id"`
	Timestamp      time.Time  `json:"timestamp"`
	Symbol         string     `json:"symbol"`
	Action         Action     `json:"action"`
	Price          float64    `json:"price"`
	Confidence     int        `json:"confidence"`
	Indicators     Indicators `json:"indicators"`
	Reasoning      string     `json:"reasoning"`
	TechnicalScore float64    `json:"technical_score"`
	RiskLevel      RiskLevel  `json:"risk_level"`
	TargetPrice    *float64   `json:"target_price,omitempty"`
	StopLoss       *float64   `json:"stop_loss,omitempty"`
}

// Directional reports whether the signal recommends entering a position.
func (s *Signal) Directional() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}
