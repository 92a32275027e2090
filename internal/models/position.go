package models

import "time"

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

type Position struct {
	TradeID  string    `json:"trade_id"`
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Qty      float64   `json:"qty"`
	Entry    float64   `json:"entry"`
	SL       float64   `json:"sl"`
	Status   Status    `json:"status"`
	OrderID  string    `json:"order_id,omitempty"`
	OpenedAt time.Time `json:"opened_at"`
	Updated  time.Time `json:"updated"`
}

// UnrealizedPnL при цене px.
func (p Position) UnrealizedPnL(px float64) float64 {
	return (px - p.Entry) * p.Qty
}
