// Package scoring enumerates and ranks candidate pairs by
// mean-reversion tradability.
package scoring

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/config"
	"github.com/pairscope/statarb-cli/internal/marketdata"
	"github.com/pairscope/statarb-cli/internal/models"
	"github.com/pairscope/statarb-cli/internal/stats"
)

// AllPairs returns every unordered combination from the universe,
// deduplicated and sorted, never self-paired.
func AllPairs(universe []string) []models.Pair {
	seen := make(map[string]bool, len(universe))
	uniq := make([]string, 0, len(universe))
	for _, s := range universe {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		uniq = append(uniq, s)
	}
	sort.Strings(uniq)

	pairs := make([]models.Pair, 0, len(uniq)*(len(uniq)-1)/2)
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			pairs = append(pairs, models.Pair{A: uniq[i], B: uniq[j]})
		}
	}
	return pairs
}

// Scorer computes the ranked pair table
type Scorer struct {
	store   *marketdata.Store
	cfg     *config.Config
	weights stats.ScoreWeights
	logger  *zap.Logger
}

// NewScorer wires a scorer over a series store
func NewScorer(store *marketdata.Store, cfg *config.Config, logger *zap.Logger) *Scorer {
	return &Scorer{
		store: store,
		cfg:   cfg,
		weights: stats.ScoreWeights{
			Corr:     cfg.ScoreWeights.Corr,
			PVal:     cfg.ScoreWeights.PVal,
			HalfLife: cfg.ScoreWeights.HalfLife,
			Sigma:    cfg.ScoreWeights.Sigma,
		},
		logger: logger.With(zap.String("component", "scorer")),
	}
}

// Tally reports batch progress for one scoring run
type Tally struct {
	Evaluated int
	Skipped   int
}

// ScoreAll scores every pair in the universe and returns the table
// sorted by score descending. Per-pair data problems are logged,
// tallied, and skipped; they never abort the batch.
func (sc *Scorer) ScoreAll() ([]models.ScoredPair, Tally, error) {
	seriesMap, failed := sc.store.GetMany(sc.cfg.Data.Universe)
	tally := Tally{Skipped: len(failed)}

	usable := make([]string, 0, len(seriesMap))
	for sym := range seriesMap {
		usable = append(usable, sym)
	}
	pairs := AllPairs(usable)

	out := make([]models.ScoredPair, 0, len(pairs))
	for _, p := range pairs {
		sp, ok := sc.scoreOne(p, seriesMap[p.A], seriesMap[p.B])
		if !ok {
			tally.Skipped++
			continue
		}
		tally.Evaluated++
		out = append(out, sp)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	sc.logger.Info("pair scoring complete",
		zap.Int("evaluated", tally.Evaluated),
		zap.Int("skipped", tally.Skipped))
	return out, tally, nil
}

// scoreOne computes one row of the table. Statistical insufficiency
// surfaces as NaN/Inf fields and a -Inf score, not an error.
func (sc *Scorer) scoreOne(p models.Pair, a, b *marketdata.Series) (models.ScoredPair, bool) {
	if a == nil || b == nil {
		return models.ScoredPair{}, false
	}
	hist := marketdata.Overlap(a, b)
	if hist.Len() == 0 {
		return models.ScoredPair{}, false
	}
	_, y, x := hist.Unmasked()

	lb := sc.cfg.Lookbacks
	corr := stats.Correlation(y, x, lb.CorrDays)

	pval, hl, sigma, alpha, beta, proxy := cointStats(y, x, lb.CointDays)
	score := stats.CompositeScore(corr, pval, finiteOr(hl, math.NaN()), sigma, sc.weights)

	return models.ScoredPair{
		Pair:        p,
		Corr:        corr,
		PValue:      pval,
		HalfLife:    hl,
		SigmaSpread: sigma,
		Alpha:       alpha,
		Beta:        beta,
		Score:       score,
		PValProxy:   proxy,
	}, true
}

// cointStats runs the hedge fit, half-life, and stationarity test over
// the trailing lookback. When the ADF regression cannot produce a
// p-value the half-life proxy substitutes, flagged as such.
func cointStats(y, x []float64, lookback int) (pval, halfLife, sigma, alpha, beta float64, proxy bool) {
	n := len(y)
	if len(x) < n {
		n = len(x)
	}
	if n < lookback {
		return 1.0, math.Inf(1), math.NaN(), 0, 1, false
	}
	y = y[n-lookback:]
	x = x[n-lookback:]

	alpha, beta = stats.OLS(y, x)
	spread := stats.Spread(y, x, alpha, beta)
	sigma = stats.StdDev(spread)
	halfLife = stats.HalfLife(spread)

	pval = stats.ADFPValue(spread)
	if len(spread) < 30 {
		// too short for the ADF regression; fall back to the half-life
		// heuristic and mark the row as lower confidence
		pval = stats.HalfLifeProxyPValue(halfLife)
		proxy = true
	}
	return pval, halfLife, sigma, alpha, beta, proxy
}

// SelectTop filters the scored table by the selection thresholds and
// returns at most k rows, preserving score order.
func SelectTop(scored []models.ScoredPair, sel config.SelectionConfig) []models.ScoredPair {
	out := make([]models.ScoredPair, 0, sel.TopK)
	for _, sp := range scored {
		if math.IsNaN(sp.Corr) || sp.Corr < sel.MinCorr {
			continue
		}
		if sp.PValue > sel.PValCointMax {
			continue
		}
		if math.IsInf(sp.HalfLife, 1) || sp.HalfLife > sel.HalfLifeMaxDays || sp.HalfLife < sel.HalfLifeMinDays {
			continue
		}
		out = append(out, sp)
		if len(out) >= sel.TopK {
			break
		}
	}
	return out
}

func finiteOr(v, alt float64) float64 {
	if math.IsInf(v, 0) {
		return alt
	}
	return v
}
