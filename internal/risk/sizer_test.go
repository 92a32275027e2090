package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSize(t *testing.T) {
	s := NewSizer(0.0075)

	tests := []struct {
		name     string
		equity   float64
		stopDist float64
		want     float64
	}{
		{"reference scenario", 1000, 10, 0.75},
		{"zero stop", 1000, 0, 0},
		{"negative stop", 1000, -1, 0},
		{"zero equity", 0, 10, 0},
		{"negative equity", -50, 10, 0},
		{"nan stop", 1000, math.NaN(), 0},
		{"inf equity", math.Inf(1), 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Size(tt.equity, tt.stopDist)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestSizeProportionalToEquity(t *testing.T) {
	s := NewSizer(0.01)
	base := s.Size(1000, 7)
	for _, k := range []float64{0.5, 2, 3, 10} {
		assert.InDelta(t, base*k, s.Size(1000*k, 7), 1e-9)
	}
}

func TestPlanEntryWithATR(t *testing.T) {
	s := NewSizer(0.0075)
	p := s.PlanEntry(1000, 100, 2, 1.8)

	assert.InDelta(t, 100.0, p.Entry, 1e-12)
	assert.InDelta(t, 96.4, p.SL, 1e-9)
	assert.InDelta(t, 3.6, p.StopDist, 1e-9)
	assert.InDelta(t, 1000*0.0075/3.6/100, p.Qty, 1e-12)
}

func TestPlanEntryFallbackATR(t *testing.T) {
	s := NewSizer(0.0075)
	p := s.PlanEntry(1000, 200, math.NaN(), 1.8)

	// ATR := 0.5% цены = 1.0
	assert.InDelta(t, 198.2, p.SL, 1e-9)
	assert.InDelta(t, 1.8, p.StopDist, 1e-9)
}

func TestPlanEntryStopFloor(t *testing.T) {
	s := NewSizer(0.0075)
	// крошечный ATR: дистанция упирается в 0.2% цены
	p := s.PlanEntry(1000, 100, 0.001, 1.8)

	assert.InDelta(t, 0.2, p.StopDist, 1e-12)
	assert.InDelta(t, 1000*0.0075/0.2/100, p.Qty, 1e-12)
}

func TestPlanEntryBadInputs(t *testing.T) {
	s := NewSizer(0.0075)
	assert.Zero(t, s.PlanEntry(1000, 0, 2, 1.8).Qty)
	assert.Zero(t, s.PlanEntry(0, 100, 2, 1.8).Qty)
	assert.Zero(t, s.PlanEntry(1000, math.NaN(), 2, 1.8).Qty)
}

func TestTrailCandidate(t *testing.T) {
	assert.InDelta(t, 100.6, TrailCandidate(105, 2, 2.2), 1e-9)
	assert.InDelta(t, 100-0.5*2.2, TrailCandidate(100, math.NaN(), 2.2), 1e-9)
}
