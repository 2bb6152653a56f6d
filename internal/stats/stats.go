// Package stats implements the pair-statistics math on plain float64
// slices: OLS hedge ratios, AR(1) half-life, ADF stationarity, rolling
// z-scores, and the composite tradability score.
package stats

import "math"

// minimum observations for each estimator; below these the functions
// return neutral or sentinel values instead of erroring
const (
	minOLSObs      = 5
	minHalfLifeObs = 20
	minADFObs      = 30
)

// OLS fits y ~ alpha + beta*x. Fewer than minOLSObs points, or a
// degenerate x, yields the neutral fallback (0, 1).
func OLS(y, x []float64) (alpha, beta float64) {
	n := minLen(y, x)
	if n < minOLSObs {
		return 0, 1
	}
	var sx, sy, sxx, sxy float64
	for i := 0; i < n; i++ {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	fn := float64(n)
	den := fn*sxx - sx*sx
	if den == 0 || math.IsNaN(den) {
		return 0, 1
	}
	beta = (fn*sxy - sx*sy) / den
	alpha = (sy - beta*sx) / fn
	return alpha, beta
}

// Spread returns y - (alpha + beta*x), truncated to the common length
func Spread(y, x []float64, alpha, beta float64) []float64 {
	n := minLen(y, x)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = y[i] - (alpha + beta*x[i])
	}
	return out
}

// HalfLife estimates the AR(1) mean-reversion half-life of a spread in
// bars. It regresses the one-bar change on the lagged level; a
// non-negative slope (no reversion), a degenerate fit, or fewer than
// minHalfLifeObs points all yield +Inf.
func HalfLife(spread []float64) float64 {
	n := len(spread)
	if n < minHalfLifeObs {
		return math.Inf(1)
	}
	lag := spread[:n-1]
	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = spread[i] - spread[i-1]
	}
	_, phi := OLS(diff, lag)
	if math.IsNaN(phi) || phi >= 0 || 1+phi <= 0 {
		return math.Inf(1)
	}
	hl := -math.Ln2 / math.Log(1+phi)
	if hl <= 0 || math.IsNaN(hl) {
		return math.Inf(1)
	}
	return hl
}

// Correlation computes the Pearson correlation of one-bar percentage
// returns over the trailing lookback window. NaN when overlap is short.
func Correlation(a, b []float64, lookback int) float64 {
	n := minLen(a, b)
	if n < lookback || lookback < 3 {
		return math.NaN()
	}
	a = a[n-lookback:]
	b = b[n-lookback:]
	ra := pctReturns(a)
	rb := pctReturns(b)
	return pearson(ra, rb)
}

// StdDev returns the sample standard deviation (ddof=1)
func StdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(xs)
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Mean returns the arithmetic mean
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var s float64
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

// Slope fits a least-squares line through xs indexed 0..n-1 and returns
// its slope. Used for the short z-score slope confirmation.
func Slope(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	idx := make([]float64, n)
	for i := range idx {
		idx[i] = float64(i)
	}
	// direct simple regression; OLS's min-obs floor does not apply here
	var sx, sy, sxx, sxy float64
	for i := 0; i < n; i++ {
		sx += idx[i]
		sy += xs[i]
		sxx += idx[i] * idx[i]
		sxy += idx[i] * xs[i]
	}
	fn := float64(n)
	den := fn*sxx - sx*sx
	if den == 0 {
		return math.NaN()
	}
	return (fn*sxy - sx*sy) / den
}

func pctReturns(px []float64) []float64 {
	out := make([]float64, 0, len(px)-1)
	for i := 1; i < len(px); i++ {
		if px[i-1] == 0 {
			out = append(out, math.NaN())
			continue
		}
		out = append(out, px[i]/px[i-1]-1)
	}
	return out
}

func pearson(a, b []float64) float64 {
	n := minLen(a, b)
	var sa, sb float64
	count := 0
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		sa += a[i]
		sb += b[i]
		count++
	}
	if count < 3 {
		return math.NaN()
	}
	ma := sa / float64(count)
	mb := sb / float64(count)
	var cov, va, vb float64
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		da := a[i] - ma
		db := b[i] - mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(va*vb)
}

func minLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
