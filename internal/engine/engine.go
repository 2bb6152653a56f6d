// Package engine holds the daily entry/exit state machine: the ordered
// filter chain that turns a pair's price history plus persisted trade
// state into an ENTER, EXIT, or HOLD decision.
package engine

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/config"
	"github.com/pairscope/statarb-cli/internal/marketdata"
	"github.com/pairscope/statarb-cli/internal/models"
	"github.com/pairscope/statarb-cli/internal/scoring"
	"github.com/pairscope/statarb-cli/internal/stats"
)

// Hold reasons, one per gate. Every HOLD carries exactly one of these
// so a day's batch can be tallied by cause.
const (
	ReasonInsufficientOverlap = "insufficient overlap"
	ReasonHighVIX             = "vix above ceiling"
	ReasonMacroBlackout       = "macro event blackout"
	ReasonLowLiquidity        = "below minimum volume"
	ReasonMaskedOverlap       = "overlap too small after ex-div mask"
	ReasonHalfLifeUnstable    = "half-life unstable"
	ReasonBetaUnstable        = "hedge ratio unstable"
	ReasonNotCointegrated     = "cointegration not persistent"
	ReasonTrendingRegime      = "spread regime trending"
	ReasonZUndefined          = "z-score undefined"
	ReasonZOutlier            = "z-score beyond cap"
	ReasonSlopeAgainst        = "slope confirmation failed"
	ReasonCooldown            = "cooldown or entry spacing"
	ReasonStateUnavailable    = "trade state unavailable"
	ReasonNoSignal            = "no signal"

	ReasonStopLoss      = "stop threshold reached"
	ReasonMeanReversion = "spread reverted to mean"
	ReasonEntrySignal   = "entry threshold crossed"
)

// Engine evaluates one pair per call. Gates run in a fixed order and
// short-circuit: the first failing gate names the HOLD reason, so a
// cheap data check can never be blamed on an expensive statistical one.
type Engine struct {
	cfg    *config.Config
	store  StateStore
	gate   *MarketGate
	stab   scoring.Stability
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine wires the decision engine. gate may be nil when market
// filters are disabled.
func NewEngine(cfg *config.Config, store StateStore, gate *MarketGate, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:   cfg,
		store: store,
		gate:  gate,
		stab: scoring.Stability{
			Subwindows:  cfg.Stability.Subwindows,
			PassRatio:   cfg.Stability.PassRatio,
			HalfLifeTol: cfg.Stability.HalfLifeTol,
			BetaTol:     cfg.Stability.BetaTol,
		},
		logger: logger.With(zap.String("component", "engine")),
		now:    time.Now,
	}
}

// Evaluate runs the full gate chain for one pair as of the last common
// bar of the two series.
func (e *Engine) Evaluate(pair models.Pair, a, b *marketdata.Series) models.Decision {
	d := models.Decision{
		Pair:     pair,
		Verdict:  models.VerdictHold,
		Action:   models.ActionNone,
		ZLast:    math.NaN(),
		HalfLife: math.NaN(),
		Beta:     math.NaN(),
		PValue:   math.NaN(),
	}

	hist := marketdata.Overlap(a, b)
	if hist.Len() > 0 {
		d.AsOf = hist.Dates[hist.Len()-1]
	}
	if hist.Len() < e.cfg.Quality.MinOverlapBars {
		d.Reason = ReasonInsufficientOverlap
		return d
	}

	if e.gate != nil {
		if !e.gate.VIXOK() {
			d.Reason = ReasonHighVIX
			return d
		}
		if !e.gate.MacroOK(e.now()) {
			d.Reason = ReasonMacroBlackout
			return d
		}
	}

	if !e.liquid(a) || !e.liquid(b) {
		d.Reason = ReasonLowLiquidity
		return d
	}

	if e.cfg.Quality.MaskExDiv {
		hist.ApplyExDivMask(a, b, e.cfg.Quality.MaskExDivDaysAfter)
	}
	dates, y, x := hist.Unmasked()
	if len(y) < e.cfg.Quality.MinOverlapBars {
		d.Reason = ReasonMaskedOverlap
		return d
	}

	stabY := tail(y, e.cfg.Lookbacks.StabilityDays)
	stabX := tail(x, e.cfg.Lookbacks.StabilityDays)
	hlOK, hl := e.stab.StableHalfLife(stabY, stabX,
		e.cfg.Selection.HalfLifeMinDays, e.cfg.Selection.HalfLifeMaxDays)
	d.HalfLife = hl
	if !hlOK {
		d.Reason = ReasonHalfLifeUnstable
		return d
	}

	betaOK, beta := e.stab.BetaStable(stabY, stabX)
	d.Beta = beta
	if !betaOK {
		d.Reason = ReasonBetaUnstable
		return d
	}

	alpha, beta := stats.OLS(y, x)
	d.Beta = beta
	spread := stats.Spread(y, x, alpha, beta)
	d.PValue = stats.ADFPValue(tail(spread, e.cfg.Lookbacks.CointDays))

	if e.cfg.Decision.RequireCoint {
		rolling := e.stab.RollingCoint(y, x, e.cfg.Lookbacks.CointDays,
			e.cfg.Selection.PValCointMax, e.cfg.Selection.HalfLifeMaxDays)
		if !rolling.OK {
			d.Reason = ReasonNotCointegrated
			return d
		}
	}

	if e.cfg.Regime.Enable {
		if !stats.IsMeanReverting(spread, e.cfg.Regime.LookbackDays,
			e.cfg.Regime.HurstMax, e.cfg.Regime.VarianceRatioMax) {
			d.Reason = ReasonTrendingRegime
			return d
		}
	}

	zWin := stats.ZWindow(hl, e.cfg.Lookbacks.ZScoreDaysMin, e.cfg.Lookbacks.ZScoreMultHalfLife)
	d.ZWindow = zWin
	z := stats.RollingZScore(spread, zWin)
	zLast := z[len(z)-1]
	d.ZLast = zLast
	if math.IsNaN(zLast) || math.IsInf(zLast, 0) {
		d.Reason = ReasonZUndefined
		return d
	}
	if math.Abs(zLast) > e.cfg.Thresholds.ZCap {
		d.Reason = ReasonZOutlier
		return d
	}

	today := marketdata.JulianDay(dates[len(dates)-1])
	rec, _, stateErr := e.store.Get(pair.Key())
	if stateErr != nil {
		e.logger.Error("state read failed", zap.String("pair", pair.Key()), zap.Error(stateErr))
	}

	// Exits are unconditional and take precedence over entries: a
	// blown-out or reverted spread marks its exit and cooldown even
	// with no entry on record, so a spread beyond the stop can never
	// be entered on the bar it stops out.
	if math.Abs(zLast) >= e.cfg.Thresholds.StopZ {
		return e.exit(d, rec, today, models.ActionExitStop, ReasonStopLoss)
	}
	if math.Abs(zLast) <= e.cfg.Thresholds.ExitZ {
		return e.exit(d, rec, today, models.ActionExitNeutral, ReasonMeanReversion)
	}

	action := e.entrySignal(z)
	if action == models.ActionNone {
		d.Reason = ReasonNoSignal
		return d
	}

	if e.cfg.Decision.SlopeConfirm && !e.slopeConfirms(z, zLast) {
		d.Reason = ReasonSlopeAgainst
		return d
	}

	// A broken state store blocks new risk but never blocks exits.
	if stateErr != nil {
		d.Reason = ReasonStateUnavailable
		return d
	}
	if today < rec.CoolUntilIndex {
		d.Reason = ReasonCooldown
		return d
	}
	if rec.LastEntryIndex > 0 && today-rec.LastEntryIndex < int64(e.cfg.Decision.MinBarsBetweenEntries) {
		d.Reason = ReasonCooldown
		return d
	}

	rec.LastEntryIndex = today
	if err := e.store.Put(pair.Key(), rec); err != nil {
		e.logger.Error("state write failed", zap.String("pair", pair.Key()), zap.Error(err))
		d.Reason = ReasonStateUnavailable
		return d
	}

	d.Verdict = models.VerdictEnter
	d.Action = action
	d.Reason = ReasonEntrySignal
	e.logger.Info("entry signal",
		zap.String("pair", pair.Key()),
		zap.String("action", string(action)),
		zap.Float64("z", zLast),
		zap.Float64("half_life", hl))
	return d
}

// EvaluateAll runs Evaluate over a candidate list, loading each leg
// through the store. Pairs with missing data are skipped.
func (e *Engine) EvaluateAll(pairs []models.Pair, store *marketdata.Store) []models.Decision {
	decisions := make([]models.Decision, 0, len(pairs))
	for _, p := range pairs {
		a, err := store.Get(p.A)
		if err != nil {
			e.logger.Warn("skipping pair, leg unavailable", zap.String("symbol", p.A), zap.Error(err))
			continue
		}
		b, err := store.Get(p.B)
		if err != nil {
			e.logger.Warn("skipping pair, leg unavailable", zap.String("symbol", p.B), zap.Error(err))
			continue
		}
		decisions = append(decisions, e.Evaluate(p, a, b))
	}
	return decisions
}

func (e *Engine) exit(d models.Decision, rec models.PairTradeState, today int64, action models.Action, reason string) models.Decision {
	rec.LastExitIndex = today
	rec.CoolUntilIndex = today + int64(e.cfg.Decision.CoolOffBars)
	if err := e.store.Put(d.Pair.Key(), rec); err != nil {
		// The exit still stands; losing the cooldown record is the
		// lesser failure.
		e.logger.Error("state write failed on exit", zap.String("pair", d.Pair.Key()), zap.Error(err))
	}
	d.Verdict = models.VerdictExit
	d.Action = action
	d.Reason = reason
	e.logger.Info("exit signal",
		zap.String("pair", d.Pair.Key()),
		zap.String("action", string(action)),
		zap.Float64("z", d.ZLast))
	return d
}

// entrySignal applies the configured entry policy to the z path.
// Crossing requires the previous bar inside the band and the current
// bar outside it; threshold fires on level alone.
func (e *Engine) entrySignal(z []float64) models.Action {
	n := len(z)
	zLast := z[n-1]
	entry := e.cfg.Thresholds.EntryZ

	outside := math.Abs(zLast) >= entry
	if !outside {
		return models.ActionNone
	}
	if e.cfg.Decision.EntryPolicy == "crossing" {
		if n < 2 {
			return models.ActionNone
		}
		zPrev := z[n-2]
		if math.IsNaN(zPrev) || math.Abs(zPrev) >= entry {
			return models.ActionNone
		}
	}
	if zLast > 0 {
		return models.ActionShortYLongX
	}
	return models.ActionLongYShortX
}

// slopeConfirms requires the recent z path to still move in the
// direction of the excursion, rejecting entries on a bar that merely
// wicked through the band.
func (e *Engine) slopeConfirms(z []float64, zLast float64) bool {
	return slopeAgrees(z, e.cfg.Decision.SlopeBars, zLast)
}

func slopeAgrees(z []float64, bars int, zLast float64) bool {
	if bars < 2 {
		bars = 3
	}
	recent := tail(z, bars)
	if len(recent) < 2 {
		return false
	}
	for _, v := range recent {
		if math.IsNaN(v) {
			return false
		}
	}
	slope := stats.Slope(recent)
	if zLast > 0 {
		return slope > 0
	}
	return slope < 0
}

func (e *Engine) liquid(s *marketdata.Series) bool {
	min := e.cfg.Quality.MinVolume
	if min <= 0 {
		return true
	}
	v := s.LastVolume()
	if math.IsNaN(v) {
		// No volume column; treat as unknown rather than illiquid.
		return true
	}
	return v >= float64(min)
}

func tail(xs []float64, n int) []float64 {
	if n <= 0 || n >= len(xs) {
		return xs
	}
	return xs[len(xs)-n:]
}
