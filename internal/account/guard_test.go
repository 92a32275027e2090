package account

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestGuard(clock *fakeClock) *Guard {
	return NewGuard(Config{InitialEquity: 1000, MaxDailyDD: 0.05, MaxConcurrent: 2, Now: clock.Now})
}

func TestDrawdownBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}

	tests := []struct {
		name     string
		pnl      float64
		exceeded bool
	}{
		{"no loss", 0, false},
		{"just below", -49.99, false},
		{"at threshold", -50, true},
		{"reference 6%", -60, true},
		{"profit", 25, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGuard(clock)
			g.ApplyClose(tt.pnl)
			assert.Equal(t, tt.exceeded, g.DrawdownExceeded())
		})
	}
}

func TestExceededBlocksReserve(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	g := newTestGuard(clock)

	g.ApplyClose(-60)
	assert.InDelta(t, 0.06, g.Drawdown(), 1e-12)
	assert.False(t, g.TryReserve())
}

func TestDailyResetOncePerDate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)}
	g := newTestGuard(clock)

	g.ApplyClose(-60)
	assert.False(t, g.MaybeResetDaily(), "same date must not reset")
	assert.True(t, g.DrawdownExceeded())

	clock.Set(time.Date(2024, 3, 2, 0, 0, 1, 0, time.UTC))
	assert.True(t, g.MaybeResetDaily())
	assert.False(t, g.DrawdownExceeded())
	assert.InDelta(t, 940.0, g.Snapshot().DailyStartEquity, 1e-12)

	// повторные проверки в тот же день не сбрасывают
	g.ApplyClose(-10)
	clock.Set(time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC))
	assert.False(t, g.MaybeResetDaily())
	assert.InDelta(t, 940.0, g.Snapshot().DailyStartEquity, 1e-12)

	// пропуск нескольких дней: один сброс
	clock.Set(time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC))
	assert.True(t, g.MaybeResetDaily())
	assert.False(t, g.MaybeResetDaily())
	assert.Equal(t, "2024-03-07", g.Snapshot().LastResetDate)
}

func TestDailyResetUsesUTC(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	// 01:00 MSK = 22:00 UTC предыдущего дня
	clock := &fakeClock{now: time.Date(2024, 3, 2, 1, 0, 0, 0, msk)}
	g := newTestGuard(clock)
	assert.Equal(t, "2024-03-01", g.Snapshot().LastResetDate)
}

func TestReserveCap(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	g := newTestGuard(clock)

	require.True(t, g.TryReserve())
	require.True(t, g.TryReserve())
	assert.False(t, g.TryReserve())
	assert.Equal(t, 2, g.OpenCount())

	g.Release()
	assert.True(t, g.TryReserve())

	eq := g.ApplyClose(12.5)
	assert.InDelta(t, 1012.5, eq, 1e-12)
	assert.Equal(t, 1, g.OpenCount())
}

func TestReleaseNeverNegative(t *testing.T) {
	g := newTestGuard(&fakeClock{now: time.Now()})
	g.Release()
	g.ApplyClose(0)
	assert.Equal(t, 0, g.OpenCount())
}

func TestPauseBlocksReserve(t *testing.T) {
	g := newTestGuard(&fakeClock{now: time.Now()})
	g.SetPaused(true)
	assert.False(t, g.TryReserve())
	assert.True(t, g.Snapshot().Paused)

	g.SetPaused(false)
	assert.True(t, g.TryReserve())
}

func TestConcurrentReserveRespectsCap(t *testing.T) {
	g := NewGuard(Config{InitialEquity: 1000, MaxDailyDD: 0.05, MaxConcurrent: 5})

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryReserve() {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), granted.Load())
	assert.Equal(t, 5, g.OpenCount())
}

func TestConcurrentCloseSumsPnL(t *testing.T) {
	g := NewGuard(Config{InitialEquity: 1000, MaxDailyDD: 0.5, MaxConcurrent: 100})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		require.True(t, g.TryReserve())
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.ApplyClose(-1)
		}()
	}
	wg.Wait()

	assert.InDelta(t, 900.0, g.Equity(), 1e-9)
	assert.Equal(t, 0, g.OpenCount())
}
