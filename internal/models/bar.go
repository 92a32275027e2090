package models

import "time"

// Bar: одна свеча OHLCV. Последовательность упорядочена по Time строго по возрастанию.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Frame: индикаторы на баре. NaN означает «не определено» и не даёт сигнала.
type Frame struct {
	Bar
	TR           float64 `json:"tr"`
	ATR          float64 `json:"atr"`
	VolZ         float64 `json:"vol_z"`
	RollingHigh  float64 `json:"rolling_high"`
	BreakoutLong bool    `json:"breakout_long"`
}
