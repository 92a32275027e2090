package position

import (
	"errors"
	"sync"
	"time"

	"breakout_bot/internal/models"
	"breakout_bot/internal/risk"
	"breakout_bot/pkg/id"
)

var (
	ErrAlreadyOpen = errors.New("position already open")
	ErrNoPosition  = errors.New("no open position")
	ErrZeroQty     = errors.New("quantity <= 0")
)

type Params struct {
	StopMult  float64 // множитель ATR для начального стопа
	TrailMult float64 // множитель ATR для трейлинга
	Simulated bool
}

// Book: позиция одного символа, нет позиции -> Open -> Closed.
// Мутирует только воркер символа. Мьютекс нужен для снапшотов статуса и kill switch.
type Book struct {
	mu     sync.Mutex
	symbol string
	params Params
	sizer  risk.Sizer
	pos    *models.Position

	now   func() time.Time
	newID func() string
}

func NewBook(symbol string, sizer risk.Sizer, params Params) *Book {
	return &Book{
		symbol: symbol,
		params: params,
		sizer:  sizer,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  id.New,
	}
}

func (b *Book) Symbol() string { return b.symbol }

func (b *Book) HasOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos != nil
}

// Snapshot: копия открытой позиции.
func (b *Book) Snapshot() (models.Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos == nil {
		return models.Position{}, false
	}
	return *b.pos, true
}

// Plan считает вход по цене закрытия без изменения состояния.
func (b *Book) Plan(equity, price, atr float64) risk.EntryPlan {
	return b.sizer.PlanEntry(equity, price, atr, b.params.StopMult)
}

// Open переводит нет позиции -> Open и возвращает запись OPEN.
func (b *Book) Open(plan risk.EntryPlan, orderID string) (models.TradeRecord, error) {
	if plan.Qty <= 0 {
		return models.TradeRecord{}, ErrZeroQty
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos != nil {
		return models.TradeRecord{}, ErrAlreadyOpen
	}

	now := b.now()
	b.pos = &models.Position{
		TradeID:  b.newID(),
		Symbol:   b.symbol,
		Side:     models.SideLong,
		Qty:      plan.Qty,
		Entry:    plan.Entry,
		SL:       plan.SL,
		Status:   models.StatusOpen,
		OrderID:  orderID,
		OpenedAt: now,
		Updated:  now,
	}

	return b.record(now, models.StatusOpen, 0, 0), nil
}

// Ratchet подтягивает стоп к price - ATR*trailMult. Стоп только растёт.
func (b *Book) Ratchet(price, atr float64) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos == nil {
		return 0, false
	}

	cand := risk.TrailCandidate(price, atr, b.params.TrailMult)
	if cand > b.pos.SL {
		b.pos.SL = cand
		b.pos.Updated = b.now()
		return cand, true
	}
	return b.pos.SL, false
}

// StopHit: цена дошла до (уже подтянутого) стопа.
func (b *Book) StopHit(price float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos != nil && price <= b.pos.SL
}

// Close переводит Open -> Closed по цене стопа и возвращает запись CLOSED.
// PnL = (exit - entry) * qty.
func (b *Book) Close() (models.TradeRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos == nil {
		return models.TradeRecord{}, ErrNoPosition
	}

	exit := b.pos.SL
	pnl := (exit - b.pos.Entry) * b.pos.Qty
	rec := b.record(b.now(), models.StatusClosed, exit, pnl)
	b.pos = nil

	return rec, nil
}

// Drop выкидывает позицию из памяти без закрытия на бирже (kill switch).
func (b *Book) Drop() (models.Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos == nil {
		return models.Position{}, false
	}
	p := *b.pos
	b.pos = nil
	return p, true
}

// record собирает запись журнала, b.mu должен быть захвачен.
func (b *Book) record(ts time.Time, status models.Status, exit, pnl float64) models.TradeRecord {
	return models.TradeRecord{
		TradeID:   b.pos.TradeID,
		Time:      ts,
		Symbol:    b.pos.Symbol,
		Side:      b.pos.Side,
		Qty:       b.pos.Qty,
		Entry:     b.pos.Entry,
		SL:        b.pos.SL,
		Exit:      exit,
		Status:    status,
		PnL:       pnl,
		Simulated: b.params.Simulated,
	}
}
