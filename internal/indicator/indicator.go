package indicator

import (
	"math"

	"breakout_bot/internal/models"
)

// Params: окна индикаторов и порог объёма.
type Params struct {
	ATRLen  int     // окно ATR
	HHVLen  int     // окно пробоя (max high)
	VolZLen int     // окно z-score объёма, обычно min(lookback, 60)
	VolZMin float64 // минимальный z-score объёма для сигнала
}

// Defined: значение посчитано (не NaN и не Inf).
func Defined(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// TrueRange: max(high-low, |high-prevClose|, |low-prevClose|). У первого бара prevClose нет, берём high-low.
func TrueRange(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
		}
		out[i] = tr
	}
	return out
}

// SMA по окну n. Первые n-1 значений NaN, NaN внутри окна даёт NaN.
func SMA(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-n+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(n)
	}
	return out
}

// ATR: простая скользящая средняя true range.
func ATR(bars []models.Bar, n int) []float64 {
	return SMA(TrueRange(bars), n)
}

// VolumeZScore считает (v - mean) / std по окну n, включая текущий бар.
// Std выборочная (n-1). Нулевая дисперсия даёт NaN, а не деление на ноль.
func VolumeZScore(volumes []float64, n int) []float64 {
	out := nanSlice(len(volumes))
	if n < 2 {
		return out
	}
	for i := n - 1; i < len(volumes); i++ {
		win := volumes[i-n+1 : i+1]
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(n)

		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(n-1))
		if std <= 1e-12*math.Max(1, math.Abs(mean)) {
			continue
		}
		out[i] = (volumes[i] - mean) / std
	}
	return out
}

// RollingHigh: max(high) по n ПРЕДЫДУЩИМ барам, текущий бар в окно не входит.
// Для i < n значение NaN.
func RollingHigh(highs []float64, n int) []float64 {
	out := nanSlice(len(highs))
	if n <= 0 {
		return out
	}
	for i := n; i < len(highs); i++ {
		hh := highs[i-n]
		for _, h := range highs[i-n+1 : i] {
			if h > hh {
				hh = h
			}
		}
		out[i] = hh
	}
	return out
}

// Breakout: close > rollingHigh и volZ > zMin. Любой неопределённый операнд даёт false.
func Breakout(close, rollingHigh, volZ, zMin float64) bool {
	if !Defined(close) || !Defined(rollingHigh) || !Defined(volZ) {
		return false
	}
	return close > rollingHigh && volZ > zMin
}

// Compute считает Frame на каждый бар. Функция чистая.
func Compute(bars []models.Bar, p Params) []models.Frame {
	n := len(bars)
	highs := make([]float64, n)
	vols := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		vols[i] = b.Volume
	}

	tr := TrueRange(bars)
	atr := SMA(tr, p.ATRLen)
	volZ := VolumeZScore(vols, p.VolZLen)
	hh := RollingHigh(highs, p.HHVLen)

	frames := make([]models.Frame, n)
	for i, b := range bars {
		frames[i] = models.Frame{
			Bar:          b,
			TR:           tr[i],
			ATR:          atr[i],
			VolZ:         volZ[i],
			RollingHigh:  hh[i],
			BreakoutLong: Breakout(b.Close, hh[i], volZ[i], p.VolZMin),
		}
	}
	return frames
}

// Latest: Frame последнего бара. false, если баров нет.
func Latest(bars []models.Bar, p Params) (models.Frame, bool) {
	if len(bars) == 0 {
		return models.Frame{}, false
	}
	frames := Compute(bars, p)
	return frames[len(frames)-1], true
}
