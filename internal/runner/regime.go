package runner

import (
	"context"
	"sync"
	"time"

	"breakout_bot/internal/indicator"
	"breakout_bot/pkg/logger"
)

// Regime: фильтр рынка. Входы разрешены, пока close опорного символа выше EMA.
// Результат кэшируется на ttl и общий для всех воркеров.
type Regime struct {
	md        MarketData
	symbol    string
	timeframe string
	period    int
	ttl       time.Duration
	now       func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	healthy   bool
}

func NewRegime(md MarketData, symbol, timeframe string, period int, ttl time.Duration) *Regime {
	return &Regime{
		md:        md,
		symbol:    symbol,
		timeframe: timeframe,
		period:    period,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (r *Regime) Symbol() string { return r.symbol }

// Healthy: можно ли входить. Ошибка получения данных фильтр не блокирует.
func (r *Regime) Healthy(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.checkedAt.IsZero() && now.Sub(r.checkedAt) < r.ttl {
		return r.healthy
	}

	r.healthy = r.evaluate(ctx)
	r.checkedAt = now
	return r.healthy
}

func (r *Regime) evaluate(ctx context.Context) bool {
	bars, err := r.md.FetchBars(ctx, r.symbol, r.timeframe, max(r.period*3, 100))
	if err != nil {
		logger.Warn("[REGIME] %s fetch failed, treating as healthy: %v", r.symbol, err)
		return true
	}
	if len(bars) == 0 {
		return true
	}

	closes := indicator.Closes(bars)
	ema := indicator.EMA(closes, r.period)
	last := ema[len(ema)-1]
	if !indicator.Defined(last) {
		return true
	}
	ok := closes[len(closes)-1] > last
	if !ok {
		logger.Info("[REGIME] %s close %.4f <= EMA%d %.4f, entries blocked", r.symbol, closes[len(closes)-1], r.period, last)
	}
	return ok
}
