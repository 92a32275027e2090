package storage

import (
	"context"
	"sync"

	"breakout_bot/internal/models"
)

// Memory: хранилище в памяти, для тестов и запуска без персистентности.
type Memory struct {
	mu     sync.RWMutex
	trades []models.TradeRecord
	equity []models.EquitySnapshot
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) AppendTradeRecord(_ context.Context, rec models.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.trades) + 1)
	m.trades = append(m.trades, rec)
	return nil
}

func (m *Memory) AppendEquitySnapshot(_ context.Context, snap models.EquitySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equity = append(m.equity, snap)
	return nil
}

func (m *Memory) LatestEquity(_ context.Context, def float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.equity) == 0 {
		return def, nil
	}
	return m.equity[len(m.equity)-1].Equity, nil
}

func (m *Memory) Trades(_ context.Context, f models.TradeFilter) ([]models.TradeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.TradeRecord, 0)
	for i := len(m.trades) - 1; i >= 0; i-- {
		rec := m.trades[i]
		if f.Symbol != "" && rec.Symbol != f.Symbol {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) EquityHistory(_ context.Context, limit int) ([]models.EquitySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	from := 0
	if limit > 0 && len(m.equity) > limit {
		from = len(m.equity) - limit
	}
	out := make([]models.EquitySnapshot, len(m.equity)-from)
	copy(out, m.equity[from:])
	return out, nil
}

func (m *Memory) Close() error { return nil }
