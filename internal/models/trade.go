package models

import "time"

// TradeRecord: неизменяемая запись журнала, одна на открытие, одна на закрытие.
// Обе записи одной сделки разделяют TradeID.
type TradeRecord struct {
	ID        int64     `json:"id"`
	TradeID   string    `json:"trade_id"`
	Time      time.Time `json:"ts"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Qty       float64   `json:"qty"`
	Entry     float64   `json:"entry"`
	SL        float64   `json:"sl"`
	Exit      float64   `json:"exit,omitempty"`
	Status    Status    `json:"status"`
	PnL       float64   `json:"pnl"`
	Simulated bool      `json:"simulated"`
}

type EquitySnapshot struct {
	Time   time.Time `json:"ts"`
	Equity float64   `json:"equity"`
}

// TradeFilter: выборка журнала. Пустые поля не фильтруют, Limit<=0 без лимита.
type TradeFilter struct {
	Symbol string
	Status Status
	Limit  int
}
