package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"breakout_bot/internal/account"
	"breakout_bot/internal/config"
	"breakout_bot/internal/indicator"
	"breakout_bot/internal/metrics"
	"breakout_bot/internal/models"
	"breakout_bot/internal/modules/health/service"
	"breakout_bot/internal/notify"
	"breakout_bot/internal/position"
	"breakout_bot/internal/risk"
	"breakout_bot/internal/storage"
	"breakout_bot/pkg/logger"

	"golang.org/x/sync/errgroup"
)

var ErrAlreadyStarted = errors.New("runner already started")

// Status: ответ /api/status и /status.
type Status struct {
	Exchange         string   `json:"exchange"`
	Symbols          []string `json:"symbols"`
	Timeframe        string   `json:"timeframe"`
	DryRun           bool     `json:"dry_run"`
	Equity           float64  `json:"equity"`
	DailyStartEquity float64  `json:"daily_start_equity"`
	Drawdown         float64  `json:"drawdown"`
	DrawdownExceeded bool     `json:"drawdown_exceeded"`
	Paused           bool     `json:"paused"`
	BreachPolicy     string   `json:"breach_policy"`
	OpenPositions    []string `json:"open_positions"`
}

// Runner: супервизор, по воркеру на символ, общий Guard.
type Runner struct {
	cfg      *config.Config
	guard    *account.Guard
	workers  []*Worker
	books    []*position.Book
	notifier notify.Notifier
	events   Publisher
	state    *service.State

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Deps struct {
	Config   *config.Config
	MD       MarketData
	Store    storage.Store
	Notifier notify.Notifier
	Events   Publisher // nil: события никуда не идут
	State    *service.State
}

// New поднимает equity из последнего снапшота и собирает воркеры.
func New(ctx context.Context, d Deps) (*Runner, error) {
	cfg := d.Config
	symbols := cfg.SymbolList()
	if len(symbols) == 0 {
		return nil, errors.New("no symbols configured")
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.State == nil {
		d.State = service.NewState()
	}

	equity, err := d.Store.LatestEquity(ctx, cfg.InitialEquity)
	if err != nil {
		return nil, fmt.Errorf("load equity: %w", err)
	}
	logger.Info("[RUNNER] starting equity %.2f", equity)
	metrics.Equity.Set(equity)

	guard := account.NewGuard(account.Config{
		InitialEquity: equity,
		MaxDailyDD:    cfg.DailyMaxDD,
		MaxConcurrent: cfg.MaxConcurrentPos,
	})

	var regime *Regime
	if cfg.RegimeSymbol != "" {
		regime = NewRegime(d.MD, cfg.RegimeSymbol, cfg.Timeframe, cfg.RegimeEMA, cfg.PollInterval)
	}

	r := &Runner{
		cfg:      cfg,
		guard:    guard,
		notifier: d.Notifier,
		events:   d.Events,
		state:    d.State,
	}

	sizer := risk.NewSizer(cfg.RiskPerTrade)
	params := indicator.Params{
		ATRLen:  cfg.ATRLen,
		HHVLen:  cfg.HHVLen,
		VolZLen: cfg.VolumeWindow(),
		VolZMin: cfg.VolZMin,
	}
	for _, sym := range symbols {
		book := position.NewBook(sym, sizer, position.Params{
			StopMult:  cfg.ATRMultSL,
			TrailMult: cfg.ATRMultTrail,
			Simulated: cfg.DryRun,
		})
		w := NewWorker(WorkerConfig{
			Symbol:       sym,
			Timeframe:    cfg.Timeframe,
			FetchLimit:   cfg.FetchLimit(),
			Indicator:    params,
			Simulated:    cfg.DryRun,
			BreachPolicy: cfg.BreachPolicy,
			PollInterval: cfg.PollInterval,
		}, WorkerDeps{
			Book:     book,
			Guard:    guard,
			MD:       d.MD,
			Journal:  d.Store,
			Notifier: d.Notifier,
			Events:   d.Events,
			Regime:   regime,
			State:    d.State,
		})
		r.books = append(r.books, book)
		r.workers = append(r.workers, w)
	}
	return r, nil
}

// Start запускает воркеры и сразу возвращается.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return ErrAlreadyStarted
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range r.workers {
		w := w
		g.Go(func() error { return w.Run(gctx) })
	}
	go func() {
		if err := g.Wait(); err != nil {
			logger.Error("[RUNNER] workers stopped: %v", err)
		}
		close(r.done)
	}()

	r.state.SetReady(true)
	mode := "LIVE"
	if r.cfg.DryRun {
		mode = "DRY_RUN"
	}
	logger.Info("[RUNNER] started %d workers (%s) on %s", len(r.workers), mode, r.cfg.Exchange)
	r.notifier.Notify(fmt.Sprintf("🚀 Breakout bot started (%s): %s %s",
		mode, notify.Escape(strings.Join(r.cfg.SymbolList(), ", ")), r.cfg.Timeframe))
	return nil
}

// Stop отменяет воркеры и ждёт завершения текущих циклов.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}

	r.state.SetReady(false)
	cancel()
	select {
	case <-done:
		logger.Info("[RUNNER] stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill выкидывает все открытые позиции из памяти и освобождает слоты.
// На бирже позиции не закрываются.
func (r *Runner) Kill() []models.Position {
	var dropped []models.Position
	for _, b := range r.books {
		if p, ok := b.Drop(); ok {
			r.guard.Release()
			dropped = append(dropped, p)
		}
	}
	metrics.OpenPositions.Set(float64(r.guard.OpenCount()))

	logger.Warn("[KILL] dropped %d in-memory positions", len(dropped))
	r.notifier.Notify(msgKill(dropped))
	r.events.Publish(models.Event{Type: models.EventKill, Data: dropped})
	return dropped
}

func (r *Runner) Pause() {
	r.guard.SetPaused(true)
	logger.Info("[RUNNER] entries paused by operator")
	r.notifier.Notify("⏸ Entries paused by operator")
}

func (r *Runner) Resume() {
	r.guard.SetPaused(false)
	logger.Info("[RUNNER] entries resumed by operator")
	r.notifier.Notify("▶️ Entries resumed by operator")
}

// Positions: снапшоты открытых позиций по символам.
func (r *Runner) Positions() []models.Position {
	out := make([]models.Position, 0, len(r.books))
	for _, b := range r.books {
		if p, ok := b.Snapshot(); ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (r *Runner) Status() Status {
	snap := r.guard.Snapshot()
	open := make([]string, 0)
	for _, p := range r.Positions() {
		open = append(open, p.Symbol)
	}
	return Status{
		Exchange:         r.cfg.Exchange,
		Symbols:          r.cfg.SymbolList(),
		Timeframe:        r.cfg.Timeframe,
		DryRun:           r.cfg.DryRun,
		Equity:           snap.Equity,
		DailyStartEquity: snap.DailyStartEquity,
		Drawdown:         snap.Drawdown,
		DrawdownExceeded: snap.DrawdownExceeded,
		Paused:           snap.Paused,
		BreachPolicy:     r.cfg.BreachPolicy,
		OpenPositions:    open,
	}
}

func (r *Runner) Account() account.Snapshot { return r.guard.Snapshot() }

// StatusText: /status в Telegram.
func (r *Runner) StatusText() string {
	s := r.Status()
	flags := ""
	if s.Paused {
		flags += " ⏸ paused"
	}
	if s.DrawdownExceeded {
		flags += " 🛑 DD exceeded"
	}
	return fmt.Sprintf("<b>%s</b> %s%s\nSymbols: %s\nEquity: %.2f (day start %.2f, DD %.2f%%)\nOpen: %d%s",
		notify.Escape(s.Exchange), s.Timeframe, modeTag(s.DryRun),
		notify.Escape(strings.Join(s.Symbols, ", ")),
		s.Equity, s.DailyStartEquity, s.Drawdown*100,
		len(s.OpenPositions), flags)
}

// PositionsText: /positions в Telegram.
func (r *Runner) PositionsText() string {
	ps := r.Positions()
	if len(ps) == 0 {
		return "No open positions"
	}
	var b strings.Builder
	for _, p := range ps {
		fmt.Fprintf(&b, "%s %s qty=%.4f entry=%.2f SL=%.2f\n",
			notify.Escape(p.Symbol), p.Side, p.Qty, p.Entry, p.SL)
	}
	return strings.TrimRight(b.String(), "\n")
}
