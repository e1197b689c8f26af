package models

import "time"

// Quote is an immutable snapshot of the tracked instrument at fetch time.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previous_close"`
	Timestamp     time.Time `json:"timestamp"`
}

// PriceBar is a single OHLCV candlestick.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// HistorySeries holds ordered price bars for one symbol and interval.
// Bars are ordered oldest to newest; timestamps are strictly increasing.
type HistorySeries struct {
	Symbol   string     `json:"symbol"`
	Interval string     `json:"interval"`
	Bars     []PriceBar `json:"bars"`
}

// Closes extracts the close price sequence, oldest first.
func (s *HistorySeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Len returns the number of bars in the series.
func (s *HistorySeries) Len() int { return len(s.Bars) }
