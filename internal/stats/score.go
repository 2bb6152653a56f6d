package stats

import "math"

// ScoreWeights tunes the composite tradability score. Any non-negative
// weights preserve the ordinal contract: higher correlation, lower
// p-value, shorter half-life, and lower spread volatility never lower
// the score.
type ScoreWeights struct {
	Corr     float64
	PVal     float64
	HalfLife float64
	Sigma    float64
}

// DefaultScoreWeights match the historically tuned policy
var DefaultScoreWeights = ScoreWeights{Corr: 2.0, PVal: 1.5, HalfLife: 1.0, Sigma: 0.5}

// CompositeScore ranks a pair's mean-reversion tradability. Any NaN
// input excludes the pair with -Inf.
func CompositeScore(corr, pval, halfLife, sigmaSpread float64, w ScoreWeights) float64 {
	if math.IsNaN(corr) || math.IsNaN(pval) || math.IsNaN(halfLife) || math.IsNaN(sigmaSpread) {
		return math.Inf(-1)
	}
	s1 := math.Max(0, corr)
	s2 := -math.Log(math.Max(pval, 1e-6))
	s3 := 1.0 / (1.0 + halfLife) // +Inf half-life contributes 0
	s4 := 1.0 / (1.0 + sigmaSpread)
	return w.Corr*s1 + w.PVal*s2 + w.HalfLife*s3 + w.Sigma*s4
}
