package stats

import "math"

// Augmented Dickey-Fuller test with a constant and one lagged difference:
//
//	dy_t = c + gamma*y_{t-1} + delta*dy_{t-1} + e_t
//
// The t-statistic on gamma is mapped to an approximate p-value via the
// MacKinnon (1994) regression surface for the constant-only case, the
// same surface statsmodels uses.

// MacKinnon surface constants, constant-only case
var (
	adfTauMax   = 2.74
	adfTauMin   = -18.83
	adfTauStar  = -1.61
	adfSmallP   = []float64{2.1659, 1.4412, 0.038269}
	adfLargeP   = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// ADFPValue runs the ADF test on a series and returns the approximate
// p-value. Insufficient data or a degenerate regression returns the
// conservative 1.0 ("not cointegrated").
func ADFPValue(series []float64) float64 {
	n := len(series)
	if n < minADFObs {
		return 1.0
	}

	// Build dy_t on [2, n): predictors 1, y_{t-1}, dy_{t-1}
	m := n - 2
	yLag := make([]float64, m)
	dyLag := make([]float64, m)
	dy := make([]float64, m)
	for t := 2; t < n; t++ {
		dy[t-2] = series[t] - series[t-1]
		yLag[t-2] = series[t-1]
		dyLag[t-2] = series[t-1] - series[t-2]
	}

	gamma, se, ok := regress3(dy, yLag, dyLag)
	if !ok || se <= 0 || math.IsNaN(se) {
		return 1.0
	}
	tau := gamma / se
	return mackinnonPValue(tau)
}

// HalfLifeProxyPValue maps a half-life to an assumed cointegration
// p-value. Degraded mode only, for series where the ADF regression is
// unusable; callers should flag results that relied on it.
func HalfLifeProxyPValue(halfLife float64) float64 {
	switch {
	case math.IsNaN(halfLife) || math.IsInf(halfLife, 0):
		return 1.0
	case halfLife <= 5:
		return 0.02
	case halfLife <= 10:
		return 0.05
	case halfLife <= 20:
		return 0.1
	default:
		return 0.2
	}
}

func mackinnonPValue(tau float64) float64 {
	if tau >= adfTauMax {
		return 1.0
	}
	if tau <= adfTauMin {
		return 0.0
	}
	coeffs := adfLargeP
	if tau <= adfTauStar {
		coeffs = adfSmallP
	}
	x := polyval(coeffs, tau)
	return normCDF(x)
}

// polyval evaluates c0 + c1*x + c2*x^2 + ...
func polyval(coeffs []float64, x float64) float64 {
	var sum, pow float64
	pow = 1
	for _, c := range coeffs {
		sum += c * pow
		pow *= x
	}
	return sum
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// regress3 fits y ~ c + b1*x1 + b2*x2 by normal equations and returns
// the coefficient on x1 with its standard error.
func regress3(y, x1, x2 []float64) (b1, se float64, ok bool) {
	n := len(y)
	if n < 10 {
		return 0, 0, false
	}

	// X'X for design [1, x1, x2]
	var s1, sx1, sx2, sx1x1, sx1x2, sx2x2 float64
	var sy, sx1y, sx2y float64
	s1 = float64(n)
	for i := 0; i < n; i++ {
		sx1 += x1[i]
		sx2 += x2[i]
		sx1x1 += x1[i] * x1[i]
		sx1x2 += x1[i] * x2[i]
		sx2x2 += x2[i] * x2[i]
		sy += y[i]
		sx1y += x1[i] * y[i]
		sx2y += x2[i] * y[i]
	}
	xtx := [3][3]float64{
		{s1, sx1, sx2},
		{sx1, sx1x1, sx1x2},
		{sx2, sx1x2, sx2x2},
	}
	xty := [3]float64{sy, sx1y, sx2y}

	inv, ok := invert3(xtx)
	if !ok {
		return 0, 0, false
	}
	var beta [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			beta[i] += inv[i][j] * xty[j]
		}
	}

	// residual variance with n-3 degrees of freedom
	var rss float64
	for i := 0; i < n; i++ {
		fit := beta[0] + beta[1]*x1[i] + beta[2]*x2[i]
		r := y[i] - fit
		rss += r * r
	}
	dof := float64(n - 3)
	if dof <= 0 {
		return 0, 0, false
	}
	sigma2 := rss / dof
	v := sigma2 * inv[1][1]
	if v <= 0 || math.IsNaN(v) {
		return 0, 0, false
	}
	return beta[1], math.Sqrt(v), true
}

func invert3(m [3][3]float64) ([3][3]float64, bool) {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 || math.IsNaN(det) || math.Abs(det) < 1e-300 {
		return [3][3]float64{}, false
	}
	inv := [3][3]float64{
		{(e*i - f*h) / det, (c*h - b*i) / det, (b*f - c*e) / det},
		{(f*g - d*i) / det, (a*i - c*g) / det, (c*d - a*f) / det},
		{(d*h - e*g) / det, (b*g - a*h) / det, (a*e - b*d) / det},
	}
	return inv, true
}
