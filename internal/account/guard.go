package account

import (
	"math"
	"sync"
	"time"
)

const (
	dateLayout = "2006-01-02"
	epsilon    = 1e-9
)

type Config struct {
	InitialEquity float64
	MaxDailyDD    float64 // доля, напр. 0.05
	MaxConcurrent int
	Now           func() time.Time
}

// Snapshot: состояние аккаунта на момент чтения.
type Snapshot struct {
	Equity           float64 `json:"equity"`
	DailyStartEquity float64 `json:"daily_start_equity"`
	LastResetDate    string  `json:"last_reset_date"`
	Drawdown         float64 `json:"drawdown"`
	DrawdownExceeded bool    `json:"drawdown_exceeded"`
	OpenCount        int     `json:"open_count"`
	MaxConcurrent    int     `json:"max_concurrent"`
	Paused           bool    `json:"paused"`
}

// Guard: общий для всех воркеров стейт аккаунта (equity, дневной старт,
// счётчик открытых позиций). Все чтения и записи под мьютексом.
type Guard struct {
	mu sync.Mutex

	equity        float64
	dailyStart    float64
	lastResetDate string
	maxDD         float64
	maxOpen       int
	openCount     int
	paused        bool

	now func() time.Time
}

func NewGuard(cfg Config) *Guard {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Guard{
		equity:        cfg.InitialEquity,
		dailyStart:    cfg.InitialEquity,
		lastResetDate: now().UTC().Format(dateLayout),
		maxDD:         cfg.MaxDailyDD,
		maxOpen:       cfg.MaxConcurrent,
		now:           now,
	}
}

// MaybeResetDaily сбрасывает дневной старт ровно один раз на каждую новую UTC-дату.
func (g *Guard) MaybeResetDaily() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.now().UTC().Format(dateLayout)
	if today == g.lastResetDate {
		return false
	}
	g.dailyStart = g.equity
	g.lastResetDate = today
	return true
}

func (g *Guard) drawdownLocked() float64 {
	return (g.dailyStart - g.equity) / math.Max(g.dailyStart, epsilon)
}

func (g *Guard) exceededLocked() bool {
	return g.drawdownLocked() >= g.maxDD
}

// Drawdown: текущая дневная просадка в долях.
func (g *Guard) Drawdown() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.drawdownLocked()
}

func (g *Guard) DrawdownExceeded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.exceededLocked()
}

func (g *Guard) Equity() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.equity
}

// TryReserve атомарно занимает слот под новую позицию.
// Отказ при паузе, превышенной просадке или заполненном лимите.
func (g *Guard) TryReserve() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.paused || g.exceededLocked() || g.openCount >= g.maxOpen {
		return false
	}
	g.openCount++
	return true
}

// Release возвращает слот без изменения equity (вход не состоялся, kill switch).
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.openCount > 0 {
		g.openCount--
	}
}

// ApplyClose фиксирует реализованный PnL и освобождает слот. Возвращает новое equity.
func (g *Guard) ApplyClose(pnl float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.equity += pnl
	if g.openCount > 0 {
		g.openCount--
	}
	return g.equity
}

func (g *Guard) SetPaused(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = v
}

func (g *Guard) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

func (g *Guard) OpenCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openCount
}

func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Equity:           g.equity,
		DailyStartEquity: g.dailyStart,
		LastResetDate:    g.lastResetDate,
		Drawdown:         g.drawdownLocked(),
		DrawdownExceeded: g.exceededLocked(),
		OpenCount:        g.openCount,
		MaxConcurrent:    g.maxOpen,
		Paused:           g.paused,
	}
}
