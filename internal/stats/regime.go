package stats

import "math"

// Hurst estimates the Hurst exponent by log-log regression of the
// dispersion of lagged differences over lags [minLag, maxLag]. Values
// below 0.5 indicate mean reversion. Fewer than 2*maxLag observations
// returns NaN.
func Hurst(series []float64, minLag, maxLag int) float64 {
	n := len(series)
	if maxLag <= minLag || n < 2*maxLag {
		return math.NaN()
	}
	logLags := make([]float64, 0, maxLag-minLag+1)
	logTau := make([]float64, 0, maxLag-minLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		diffs := make([]float64, n-lag)
		for i := lag; i < n; i++ {
			diffs[i-lag] = series[i] - series[i-lag]
		}
		sd := populationStd(diffs)
		tau := math.Sqrt(sd)
		if tau <= 0 || math.IsNaN(tau) {
			return math.NaN()
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logTau = append(logTau, math.Log(tau))
	}
	return Slope2(logLags, logTau)
}

// VarianceRatio compares one-bar return variance against q-bar return
// variance scaled by q. Ratios at or below 1 are consistent with mean
// reversion. Fewer than 2q returns yields NaN.
func VarianceRatio(series []float64, q int) float64 {
	rets := pctReturns(series)
	clean := rets[:0:0]
	for _, r := range rets {
		if !math.IsNaN(r) {
			clean = append(clean, r)
		}
	}
	if q < 2 || len(clean) < 2*q {
		return math.NaN()
	}
	var1 := sampleVar(clean)

	sums := make([]float64, 0, len(clean)-q+1)
	for i := q - 1; i < len(clean); i++ {
		var s float64
		for j := i - q + 1; j <= i; j++ {
			s += clean[j]
		}
		sums = append(sums, s)
	}
	varq := sampleVar(sums) / float64(q)
	if var1 == 0 || math.IsNaN(var1) {
		return math.NaN()
	}
	return varq / var1
}

// IsMeanReverting applies the regime gate over the trailing lookback.
// Insufficient data fails closed.
func IsMeanReverting(series []float64, lookback int, hurstMax, vrMax float64) bool {
	if len(series) < lookback {
		return false
	}
	sub := series[len(series)-lookback:]
	h := Hurst(sub, 2, 20)
	vr := VarianceRatio(sub, 5)
	okH := !math.IsNaN(h) && h < hurstMax
	okV := !math.IsNaN(vr) && vr <= vrMax
	return okH && okV
}

// Slope2 fits y ~ a + b*x and returns b
func Slope2(x, y []float64) float64 {
	n := minLen(x, y)
	if n < 2 {
		return math.NaN()
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
	if den == 0 {
		return math.NaN()
	}
	return (fn*sxy - sx*sy) / den
}

func populationStd(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	mu := Mean(xs)
	var ss float64
	for _, v := range xs {
		d := v - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func sampleVar(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	mu := Mean(xs)
	var ss float64
	for _, v := range xs {
		d := v - mu
		ss += d * d
	}
	return ss / float64(len(xs)-1)
}
