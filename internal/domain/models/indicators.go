package models

// MACD holds the MACD line, its smoothed signal line and the gap between them.
type MACD struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MovingAverages holds the simple and exponential averages the scorer consumes.
type MovingAverages struct {
	SMA20 float64 `json:"sma20"`
	SMA50 float64 `json:"sma50"`
	EMA12 float64 `json:"ema12"`
	EMA26 float64 `json:"ema26"`
}

// BollingerBands is SMA20 plus/minus two standard deviations.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Indicators is the full derived indicator set for one history series.
// Recomputed on every run; never persisted as authoritative state.
type Indicators struct {
	RSI            float64        `json:"rsi"`
	MACD           MACD           `json:"macd"`
	MovingAverages MovingAverages `json:"moving_averages"`
	BollingerBands BollingerBands `json:"bollinger_bands"`
}
