package models

import "time"

type EventType string

const (
	EventTradeOpened EventType = "trade_opened"
	EventTradeClosed EventType = "trade_closed"
	EventStopMoved   EventType = "stop_moved"
	EventEquity      EventType = "equity"
	EventDrawdown    EventType = "drawdown"
	EventError       EventType = "error"
	EventKill        EventType = "kill"
)

// Event: push-сообщение для подписчиков /ws.
type Event struct {
	Type   EventType `json:"type"`
	Symbol string    `json:"symbol,omitempty"`
	Time   time.Time `json:"ts"`
	Data   any       `json:"data,omitempty"`
}
