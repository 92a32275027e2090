package risk

import (
	"math"
)

const (
	// ATRFallbackPct: замена ATR, когда он ещё не определён (0.5% цены).
	ATRFallbackPct = 0.005
	// MinStopPct: минимальная дистанция стопа для сайзинга (0.2% цены).
	MinStopPct = 0.002
)

// Sizer переводит equity и дистанцию стопа в размер под фиксированный риск.
type Sizer struct {
	RiskFraction float64 // доля equity, теряемая по стопу, напр. 0.0075
}

func NewSizer(riskFraction float64) Sizer {
	return Sizer{RiskFraction: riskFraction}
}

// Size = equity*risk/stopDistance. Результат в денежных единицах риска,
// в штуки актива переводит вызывающий (делением на цену).
// Невалидные входы дают 0, отрицательного результата не бывает.
func (s Sizer) Size(equity, stopDistance float64) float64 {
	if stopDistance <= 0 || equity <= 0 || s.RiskFraction <= 0 {
		return 0
	}
	if !finite(equity) || !finite(stopDistance) || !finite(s.RiskFraction) {
		return 0
	}
	return equity * s.RiskFraction / stopDistance
}

// EntryPlan: параметры входа в long.
type EntryPlan struct {
	Entry    float64
	SL       float64
	StopDist float64 // дистанция для сайзинга, не меньше MinStopPct цены
	Qty      float64 // в единицах актива
}

// EffectiveATR подменяет неопределённый ATR на ATRFallbackPct цены.
func EffectiveATR(price, atr float64) float64 {
	if !finite(atr) {
		return price * ATRFallbackPct
	}
	return atr
}

// PlanEntry считает стоп и размер входа по цене закрытия.
// Qty <= 0 означает «не входить».
func (s Sizer) PlanEntry(equity, price, atr, stopMult float64) EntryPlan {
	if !finite(price) || price <= 0 {
		return EntryPlan{}
	}
	sl := price - EffectiveATR(price, atr)*stopMult
	dist := math.Max(price-sl, price*MinStopPct)

	return EntryPlan{
		Entry:    price,
		SL:       sl,
		StopDist: dist,
		Qty:      s.Size(equity, dist) / price,
	}
}

// TrailCandidate: кандидат трейлинг-стопа при текущей цене.
func TrailCandidate(price, atr, trailMult float64) float64 {
	return price - EffectiveATR(price, atr)*trailMult
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
