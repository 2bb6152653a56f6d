package scoring

import (
	"math"
	"sort"

	"github.com/pairscope/statarb-cli/internal/stats"
)

// Stability holds the persistence-check parameters for half-life and
// hedge-ratio diagnostics across sub-windows.
type Stability struct {
	Subwindows  int
	PassRatio   float64
	HalfLifeTol float64
	BetaTol     float64
}

// sub-windows shorter than this count as failing rather than passing
// on vacuous evidence
const minSubwindowObs = 40

// StableHalfLife checks the pair's half-life is inside [hlMin, hlMax]
// and persists across trailing sub-windows. The full-window half-life
// is returned even on failure, for diagnostics. Histories under 80 bars
// pass on the range check alone.
func (st Stability) StableHalfLife(y, x []float64, hlMin, hlMax float64) (bool, float64) {
	alpha, beta := stats.OLS(y, x)
	spread := stats.Spread(y, x, alpha, beta)
	hl := stats.HalfLife(spread)
	if math.IsInf(hl, 0) || math.IsNaN(hl) {
		return false, math.Inf(1)
	}
	if hl < hlMin || hl > hlMax {
		return false, hl
	}
	n := len(spread)
	if n < 80 {
		return true, hl
	}
	tol := st.HalfLifeTol
	consistent := func(sub []float64) bool {
		h := stats.HalfLife(sub)
		if math.IsInf(h, 0) || math.IsNaN(h) {
			return false
		}
		return math.Abs(h-hl)/math.Max(hl, 1e-6) <= tol
	}
	// trailing 75% and 50% slices must agree with the full window
	return consistent(spread[n/4:]) && consistent(spread[n/2:]), hl
}

// BetaStable refits the hedge ratio over each half of the history and
// requires the betas to agree within the tolerance fraction. Short
// histories (<80 bars) pass. The full-window beta is always returned.
func (st Stability) BetaStable(y, x []float64) (bool, float64) {
	_, beta := stats.OLS(y, x)
	n := len(y)
	if len(x) < n {
		n = len(x)
	}
	if n < 80 {
		return true, beta
	}
	mid := n / 2
	_, b1 := stats.OLS(y[:mid], x[:mid])
	_, b2 := stats.OLS(y[mid:], x[mid:])
	ok := math.Abs(b1-b2)/math.Max(math.Abs(beta), 1e-6) <= st.BetaTol
	return ok, beta
}

// WindowReport is the per-sub-window diagnostic from the rolling
// cointegration check.
type WindowReport struct {
	PValue   float64
	HalfLife float64
	Pass     bool
}

// RollingResult aggregates the sub-window checks
type RollingResult struct {
	Windows   []WindowReport // oldest first
	PassRatio float64
	OK        bool
	MedianHL  float64 // median half-life across passing windows
	HasMedian bool
}

// RollingCoint re-evaluates cointegration and half-life over k
// contiguous sub-windows, most recent first, each lookback bars long.
// A pair passes when the fraction of passing windows reaches the
// configured ratio. Windows with insufficient data fail.
func (st Stability) RollingCoint(y, x []float64, lookback int, adfThr, hlMax float64) RollingResult {
	n := len(y)
	if len(x) < n {
		n = len(x)
	}
	k := st.Subwindows
	res := RollingResult{}
	if k <= 0 || n < lookback {
		return res
	}

	var passingHL []float64
	for i := 0; i < k; i++ {
		end := n - i*lookback
		start := end - lookback
		if start < 0 {
			start = 0
		}

		rep := WindowReport{PValue: 1.0, HalfLife: math.Inf(1)}
		if end >= start+minSubwindowObs {
			wy := y[start:end]
			wx := x[start:end]
			alpha, beta := stats.OLS(wy, wx)
			spread := stats.Spread(wy, wx, alpha, beta)
			rep.HalfLife = stats.HalfLife(spread)
			rep.PValue = stats.ADFPValue(spread)
		}
		rep.Pass = rep.PValue <= adfThr && rep.HalfLife <= hlMax
		if rep.Pass {
			passingHL = append(passingHL, rep.HalfLife)
		}
		// prepend so Windows reads oldest first
		res.Windows = append([]WindowReport{rep}, res.Windows...)
	}

	pass := 0
	for _, w := range res.Windows {
		if w.Pass {
			pass++
		}
	}
	res.PassRatio = float64(pass) / float64(k)
	res.OK = res.PassRatio >= st.PassRatio
	if len(passingHL) > 0 {
		sort.Float64s(passingHL)
		res.MedianHL = passingHL[len(passingHL)/2]
		res.HasMedian = true
	}
	return res
}
