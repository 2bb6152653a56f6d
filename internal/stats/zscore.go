package stats

import "math"

// RollingZScore computes (x - rolling mean) / rolling sample std over a
// trailing window. The first win-1 entries are NaN; a zero-variance
// window also yields NaN rather than +-Inf.
func RollingZScore(xs []float64, win int) []float64 {
	n := len(xs)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if win < 2 || n < win {
		return out
	}
	for i := win - 1; i < n; i++ {
		w := xs[i-win+1 : i+1]
		mu := Mean(w)
		sd := StdDev(w)
		if sd == 0 || math.IsNaN(sd) {
			continue
		}
		out[i] = (xs[i] - mu) / sd
	}
	return out
}

// ZWindow derives the adaptive z-score window from the half-life:
// max(min, ceil(mult * max(hl, 1))). A non-finite half-life defers to a
// wide default of max(min, 60).
func ZWindow(halfLife float64, min int, mult float64) int {
	if math.IsNaN(halfLife) || math.IsInf(halfLife, 0) || halfLife <= 0 {
		if min > 60 {
			return min
		}
		return 60
	}
	hl := halfLife
	if hl < 1 {
		hl = 1
	}
	w := int(math.Ceil(mult * hl))
	if w < min {
		return min
	}
	return w
}

// RollingMeanStd returns trailing-window mean and sample std series, NaN
// before the window fills. Shared by the simulator's PnL scaling.
func RollingMeanStd(xs []float64, win int) (mean, std []float64) {
	n := len(xs)
	mean = make([]float64, n)
	std = make([]float64, n)
	for i := range mean {
		mean[i] = math.NaN()
		std[i] = math.NaN()
	}
	if win < 2 || n < win {
		return mean, std
	}
	for i := win - 1; i < n; i++ {
		w := xs[i-win+1 : i+1]
		mean[i] = Mean(w)
		std[i] = StdDev(w)
	}
	return mean, std
}
