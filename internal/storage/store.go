package storage

import (
	"context"

	"breakout_bot/internal/models"
)

// Store: append-only журнал сделок и снапшотов equity.
type Store interface {
	AppendTradeRecord(ctx context.Context, rec models.TradeRecord) error
	AppendEquitySnapshot(ctx context.Context, snap models.EquitySnapshot) error
	// LatestEquity: последний снапшот или def, если снапшотов нет.
	LatestEquity(ctx context.Context, def float64) (float64, error)

	// Trades: записи журнала, новые первыми.
	Trades(ctx context.Context, f models.TradeFilter) ([]models.TradeRecord, error)
	// EquityHistory: снапшоты, старые первыми (последние limit штук).
	EquityHistory(ctx context.Context, limit int) ([]models.EquitySnapshot, error)
	Close() error
}
