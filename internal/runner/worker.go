package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"breakout_bot/internal/account"
	"breakout_bot/internal/config"
	"breakout_bot/internal/exchange"
	"breakout_bot/internal/indicator"
	"breakout_bot/internal/metrics"
	"breakout_bot/internal/models"
	"breakout_bot/internal/modules/health/service"
	"breakout_bot/internal/notify"
	"breakout_bot/internal/position"
	"breakout_bot/pkg/logger"
	"breakout_bot/pkg/tracing"
)

const persistTimeout = 5 * time.Second

// MarketData: бары и рыночные ордера.
type MarketData interface {
	FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]models.Bar, error)
	PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty float64) (string, error)
}

// Journal: append-only журнал сделок и equity.
type Journal interface {
	AppendTradeRecord(ctx context.Context, rec models.TradeRecord) error
	AppendEquitySnapshot(ctx context.Context, snap models.EquitySnapshot) error
}

type WorkerConfig struct {
	Symbol       string
	Timeframe    string
	FetchLimit   int
	Indicator    indicator.Params
	Simulated    bool
	BreachPolicy string
	PollInterval time.Duration
}

// Worker: цикл одного символа. Шаги цикла строго последовательны.
type Worker struct {
	cfg      WorkerConfig
	book     *position.Book
	guard    *account.Guard
	md       MarketData
	journal  Journal
	notifier notify.Notifier
	events   Publisher
	regime   *Regime
	state    *service.State

	// трогает только горутина воркера
	breachNotified bool
	now            func() time.Time
}

type WorkerDeps struct {
	Book     *position.Book
	Guard    *account.Guard
	MD       MarketData
	Journal  Journal
	Notifier notify.Notifier
	Events   Publisher
	Regime   *Regime
	State    *service.State
}

func NewWorker(cfg WorkerConfig, d WorkerDeps) *Worker {
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.State == nil {
		d.State = service.NewState()
	}
	return &Worker{
		cfg:      cfg,
		book:     d.Book,
		guard:    d.Guard,
		md:       d.MD,
		journal:  d.Journal,
		notifier: d.Notifier,
		events:   d.Events,
		regime:   d.Regime,
		state:    d.State,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (w *Worker) Symbol() string { return w.cfg.Symbol }

// Run крутит циклы до отмены ctx. Ошибка цикла логируется и уведомляется, цикл продолжается.
func (w *Worker) Run(ctx context.Context) error {
	logger.Info("[RUNNER] ▶️ worker %s started (tf=%s, poll=%s)", w.cfg.Symbol, w.cfg.Timeframe, w.cfg.PollInterval)
	defer logger.Info("[RUNNER] ⏹ worker %s stopped", w.cfg.Symbol)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := w.safeCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.report(err)
		}
		timer.Reset(w.cfg.PollInterval)
	}
}

// safeCycle: граница цикла, паника превращается в CycleError.
func (w *Worker) safeCycle(ctx context.Context) (err error) {
	span, ctx := tracing.StartSpan(ctx, "worker.cycle", map[string]any{"symbol": w.cfg.Symbol})
	defer func() {
		if p := recover(); p != nil {
			logger.Error("[CYCLE] %s panic: %v\n%s", w.cfg.Symbol, p, debug.Stack())
			err = &CycleError{Kind: KindPanic, Symbol: w.cfg.Symbol, Op: "cycle", Err: fmt.Errorf("%v", p)}
		}
		tracing.FinishWithError(span, err)
	}()

	skipped, err := w.Cycle(ctx)
	if err == nil {
		result := "ok"
		if skipped {
			result = "skipped"
		}
		metrics.Cycles.WithLabelValues(w.cfg.Symbol, result).Inc()
	}
	return err
}

func (w *Worker) report(err error) {
	kind := Classify(err)
	metrics.Cycles.WithLabelValues(w.cfg.Symbol, string(kind)).Inc()
	if kind == KindTransient {
		logger.Warn("[CYCLE] %s retry in %s: %v", w.cfg.Symbol, w.cfg.PollInterval, err)
	} else {
		logger.Error("[CYCLE] %s: %v", w.cfg.Symbol, err)
	}
	w.notifier.Notify(msgError(w.cfg.Symbol, err))
	w.events.Publish(models.Event{
		Type:   models.EventError,
		Symbol: w.cfg.Symbol,
		Time:   w.now(),
		Data:   map[string]string{"kind": string(kind), "error": err.Error()},
	})
}

// Cycle: одна итерация. Дневной сброс и guard, бары, сигнал, вход, трейлинг, выход.
// skipped=true, когда цикл пропущен из-за просадки (политика skip).
func (w *Worker) Cycle(ctx context.Context) (skipped bool, err error) {
	// 1. дневной сброс и просадка
	if w.guard.MaybeResetDaily() {
		logger.Info("[GUARD] daily start equity reset to %.2f", w.guard.Equity())
	}
	breached := w.checkBreach()
	if breached && w.cfg.BreachPolicy == config.BreachSkip {
		return true, nil
	}

	// 2. бары и индикаторы
	bars, err := w.md.FetchBars(ctx, w.cfg.Symbol, w.cfg.Timeframe, w.cfg.FetchLimit)
	if err != nil {
		w.state.SetMarketOK(false)
		if exchange.IsTemporary(err) {
			logger.Debug("[CYCLE] %s venue is busy: %v", w.cfg.Symbol, err)
		}
		return false, transient(w.cfg.Symbol, "fetch bars", err)
	}
	w.state.TouchTick(w.cfg.Symbol, w.now())

	frame, ok := indicator.Latest(bars, w.cfg.Indicator)
	if !ok {
		logger.Debug("[CYCLE] %s: no bars", w.cfg.Symbol)
		return false, nil
	}
	price := frame.Close

	// 3. вход
	if frame.BreakoutLong && !breached && !w.book.HasOpen() {
		if err := w.tryEnter(ctx, frame); err != nil {
			return false, err
		}
	}

	// 4. трейлинг и выход по уже подтянутому стопу
	if !w.book.HasOpen() {
		return false, nil
	}
	if sl, moved := w.book.Ratchet(price, frame.ATR); moved {
		logger.Info("[TRAIL] %s stop -> %.4f (px=%.4f)", w.cfg.Symbol, sl, price)
		w.events.Publish(models.Event{
			Type:   models.EventStopMoved,
			Symbol: w.cfg.Symbol,
			Time:   w.now(),
			Data:   map[string]float64{"sl": sl, "price": price},
		})
	}
	if w.book.StopHit(price) {
		return false, w.exit(ctx, price)
	}
	return false, nil
}

// checkBreach уведомляет один раз на эпизод превышения просадки.
func (w *Worker) checkBreach() bool {
	if !w.guard.DrawdownExceeded() {
		w.breachNotified = false
		return false
	}
	if !w.breachNotified {
		dd := w.guard.Drawdown()
		logger.Warn("[GUARD] %s daily drawdown %.4f exceeded, entries paused", w.cfg.Symbol, dd)
		w.notifier.Notify(msgBreach(w.cfg.Symbol, dd))
		w.events.Publish(models.Event{
			Type:   models.EventDrawdown,
			Symbol: w.cfg.Symbol,
			Time:   w.now(),
			Data:   map[string]float64{"drawdown": dd},
		})
		metrics.DailyDrawdown.Set(dd)
		w.breachNotified = true
	}
	return true
}

func (w *Worker) tryEnter(ctx context.Context, frame models.Frame) error {
	if w.regime != nil && !w.regime.Healthy(ctx) {
		logger.Debug("[ENTRY] %s skipped by regime filter %s", w.cfg.Symbol, w.regime.Symbol())
		return nil
	}

	plan := w.book.Plan(w.guard.Equity(), frame.Close, frame.ATR)
	if plan.Qty <= 0 {
		logger.Debug("[ENTRY] %s qty <= 0, skip", w.cfg.Symbol)
		return nil
	}
	if !w.guard.TryReserve() {
		logger.Info("[ENTRY] %s signal @ %.4f ignored: no free slot, paused or drawdown", w.cfg.Symbol, frame.Close)
		return nil
	}

	var orderID string
	if !w.cfg.Simulated {
		id, err := w.md.PlaceMarketOrder(ctx, w.cfg.Symbol, models.OrderBuy, plan.Qty)
		if err != nil {
			w.guard.Release()
			return transient(w.cfg.Symbol, "place buy", err)
		}
		orderID = id
	}

	rec, err := w.book.Open(plan, orderID)
	if err != nil {
		w.guard.Release()
		return &CycleError{Kind: KindUnexpected, Symbol: w.cfg.Symbol, Op: "open", Err: err}
	}

	w.persistTrade(ctx, rec)
	metrics.Trades.WithLabelValues(w.cfg.Symbol, string(models.StatusOpen)).Inc()
	metrics.OpenPositions.Set(float64(w.guard.OpenCount()))

	logger.Info("[ENTRY] %s LONG qty=%.6f @ %.4f SL=%.4f atr=%.4f volZ=%.2f order=%s",
		w.cfg.Symbol, rec.Qty, rec.Entry, rec.SL, frame.ATR, frame.VolZ, orderID)
	w.notifier.Notify(msgOpened(rec))
	w.events.Publish(models.Event{Type: models.EventTradeOpened, Symbol: w.cfg.Symbol, Time: rec.Time, Data: rec})
	return nil
}

func (w *Worker) exit(ctx context.Context, price float64) error {
	pos, ok := w.book.Snapshot()
	if !ok {
		return nil
	}

	if !w.cfg.Simulated {
		// при ошибке позиция остаётся открытой, повторим в следующем цикле
		if _, err := w.md.PlaceMarketOrder(ctx, w.cfg.Symbol, models.OrderSell, pos.Qty); err != nil {
			return transient(w.cfg.Symbol, "place sell", err)
		}
	}

	rec, err := w.book.Close()
	if errors.Is(err, position.ErrNoPosition) {
		// kill switch успел выкинуть позицию
		logger.Warn("[EXIT] %s position dropped concurrently", w.cfg.Symbol)
		return nil
	}
	if err != nil {
		return &CycleError{Kind: KindUnexpected, Symbol: w.cfg.Symbol, Op: "close", Err: err}
	}
	equity := w.guard.ApplyClose(rec.PnL)

	w.persistTrade(ctx, rec)
	w.persistEquity(ctx, models.EquitySnapshot{Time: rec.Time, Equity: equity})
	metrics.Trades.WithLabelValues(w.cfg.Symbol, string(models.StatusClosed)).Inc()
	metrics.Equity.Set(equity)
	metrics.DailyDrawdown.Set(w.guard.Drawdown())
	metrics.OpenPositions.Set(float64(w.guard.OpenCount()))

	logger.Info("[EXIT] %s @ %.4f (px=%.4f) PnL=%.4f Eq=%.2f", w.cfg.Symbol, rec.Exit, price, rec.PnL, equity)
	w.notifier.Notify(msgClosed(rec, equity))
	w.events.Publish(models.Event{Type: models.EventTradeClosed, Symbol: w.cfg.Symbol, Time: rec.Time, Data: rec})
	w.events.Publish(models.Event{Type: models.EventEquity, Time: rec.Time, Data: map[string]float64{"equity": equity}})
	return nil
}

// persistTrade пишет запись даже при отменённом ctx: переход уже случился.
func (w *Worker) persistTrade(ctx context.Context, rec models.TradeRecord) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := w.journal.AppendTradeRecord(pctx, rec); err != nil {
		metrics.StoreErrors.WithLabelValues("trade").Inc()
		logger.Error("[STORE] %s append trade %s %s: %v", w.cfg.Symbol, rec.TradeID, rec.Status, err)
	}
}

func (w *Worker) persistEquity(ctx context.Context, snap models.EquitySnapshot) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := w.journal.AppendEquitySnapshot(pctx, snap); err != nil {
		metrics.StoreErrors.WithLabelValues("equity").Inc()
		logger.Error("[STORE] append equity %.2f: %v", snap.Equity, err)
	}
}
