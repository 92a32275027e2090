package indicator

import "breakout_bot/internal/models"

// EMA с alpha = 2/(n+1), старт с первого значения. До n-го значения результат NaN.
func EMA(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	if n <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(n) + 1)
	ema := values[0]
	for i, v := range values {
		if i > 0 {
			ema = alpha*v + (1-alpha)*ema
		}
		if i >= n-1 {
			out[i] = ema
		}
	}
	return out
}

// Closes вытаскивает цены закрытия.
func Closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
