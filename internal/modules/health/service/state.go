package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// State: живость процесса для /livez, /readyz, /healthz.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	marketOK     atomic.Bool
	lastTickUnix atomic.Int64 // unix seconds

	mu      sync.RWMutex
	symbols map[string]time.Time // последний успешный fetch по символу
}

func NewState() *State {
	s := &State{
		startedAt: time.Now(),
		symbols:   make(map[string]time.Time),
	}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetMarketOK(v bool) { s.marketOK.Store(v) }
func (s *State) MarketOK() bool     { return s.marketOK.Load() }

// TouchTick отмечает успешное получение баров по символу.
func (s *State) TouchTick(symbol string, t time.Time) {
	s.lastTickUnix.Store(t.Unix())
	s.marketOK.Store(true)

	s.mu.Lock()
	s.symbols[symbol] = t
	s.mu.Unlock()
}

func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

// SymbolTicks: копия времени последнего fetch по символам.
func (s *State) SymbolTicks() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]time.Time, len(s.symbols))
	for k, v := range s.symbols {
		out[k] = v
	}
	return out
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
