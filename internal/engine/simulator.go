package engine

import (
	"math"

	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/config"
	"github.com/pairscope/statarb-cli/internal/marketdata"
	"github.com/pairscope/statarb-cli/internal/models"
	"github.com/pairscope/statarb-cli/internal/stats"
)

// minSimBars is the floor on usable history for a replay; below it the
// rolling z-score is all warm-up and the result would be noise.
const minSimBars = 30

// scaleSmoothing is the EMA factor applied to the rolling spread std
// used for PnL normalization, so a single volatile bar cannot whip the
// unit size.
const scaleSmoothing = 0.2

// Simulator replays the entry/exit rules over history with static
// hedge parameters fit once on the full window. It shares the
// threshold and policy config with the live engine so a backtest
// exercises the same signal logic the daily run would.
type Simulator struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSimulator builds a replay harness from the shared config
func NewSimulator(cfg *config.Config, logger *zap.Logger) *Simulator {
	return &Simulator{cfg: cfg, logger: logger.With(zap.String("component", "simulator"))}
}

// Run replays one pair end to end and returns the journal
func (s *Simulator) Run(pair models.Pair, a, b *marketdata.Series) models.BacktestResult {
	res := models.BacktestResult{Pair: pair}

	hist := marketdata.Overlap(a, b)
	if s.cfg.Quality.MaskExDiv {
		hist.ApplyExDivMask(a, b, s.cfg.Quality.MaskExDivDaysAfter)
	}
	dates, y, x := hist.Unmasked()

	alpha, beta := stats.OLS(y, x)
	spread := stats.Spread(y, x, alpha, beta)
	hl := stats.HalfLife(spread)
	zWin := stats.ZWindow(hl, s.cfg.Lookbacks.ZScoreDaysMin, s.cfg.Lookbacks.ZScoreMultHalfLife)

	if len(spread) < maxInt(minSimBars, zWin+1) {
		s.logger.Debug("history too short for replay",
			zap.String("pair", pair.Key()),
			zap.Int("bars", len(spread)),
			zap.Int("z_window", zWin))
		return res
	}

	z := stats.RollingZScore(spread, zWin)
	scale := smoothedScale(spread, zWin)
	notional := s.notional()
	unit := notional * 0.01
	cost := notional * float64(s.cfg.Costs.SlippageBp) / 10000.0

	entryZ := s.cfg.Thresholds.EntryZ
	exitZ := s.cfg.Thresholds.ExitZ
	stopZ := s.cfg.Thresholds.StopZ
	crossing := s.cfg.Decision.EntryPolicy != "threshold"
	coolOff := s.cfg.Decision.CoolOffBars
	minSpacing := s.cfg.Decision.MinBarsBetweenEntries

	pos := 0
	coolUntil := -1
	lastEntry := math.MinInt32
	cum := 0.0
	res.Journal = make([]models.JournalRow, 0, len(spread))
	res.Journal = append(res.Journal, models.JournalRow{Date: dates[0], Z: z[0]})

	for i := 1; i < len(spread); i++ {
		// PnL accrues on the position carried into the bar.
		step := 0.0
		if pos != 0 && scale[i] > 0 {
			step = float64(pos) * (spread[i] - spread[i-1]) / scale[i] * unit
		}

		signal := 0
		zi := z[i]
		switch {
		case pos != 0:
			if math.Abs(zi) >= stopZ || math.Abs(zi) <= exitZ {
				signal = -pos
				pos = 0
				coolUntil = i + coolOff
			}
		case finite(zi) && math.Abs(zi) >= entryZ && math.Abs(zi) < stopZ:
			fired := !crossing || (finite(z[i-1]) && math.Abs(z[i-1]) < entryZ)
			if fired && s.cfg.Decision.SlopeConfirm {
				fired = slopeAgrees(z[:i+1], s.cfg.Decision.SlopeBars, zi)
			}
			if fired && i >= coolUntil && i-lastEntry >= minSpacing {
				if zi > 0 {
					pos = -1
				} else {
					pos = 1
				}
				signal = pos
				lastEntry = i
				res.Entries++
			}
		}
		if signal != 0 {
			step -= cost
		}

		cum += step
		res.Journal = append(res.Journal, models.JournalRow{
			Date:     dates[i],
			Z:        zi,
			Position: pos,
			Signal:   signal,
			StepPnL:  step,
			CumPnL:   cum,
		})
	}

	res.TotalPnL = cum
	s.logger.Debug("replay complete",
		zap.String("pair", pair.Key()),
		zap.Int("entries", res.Entries),
		zap.Float64("total_pnl", res.TotalPnL))
	return res
}

// RunAll replays a candidate list, loading legs through the store
func (s *Simulator) RunAll(pairs []models.Pair, store *marketdata.Store) []models.BacktestResult {
	results := make([]models.BacktestResult, 0, len(pairs))
	for _, p := range pairs {
		a, err := store.Get(p.A)
		if err != nil {
			s.logger.Warn("skipping pair, leg unavailable", zap.String("symbol", p.A), zap.Error(err))
			continue
		}
		b, err := store.Get(p.B)
		if err != nil {
			s.logger.Warn("skipping pair, leg unavailable", zap.String("symbol", p.B), zap.Error(err))
			continue
		}
		results = append(results, s.Run(p, a, b))
	}
	return results
}

func (s *Simulator) notional() float64 {
	if s.cfg.Risk.NotionalPerTrade > 0 {
		return s.cfg.Risk.NotionalPerTrade
	}
	return s.cfg.Risk.Capital * s.cfg.Risk.PerTradePct
}

// smoothedScale is the EMA-smoothed rolling std of the spread, with
// the full-window std backfilling the warm-up prefix.
func smoothedScale(spread []float64, win int) []float64 {
	_, rollStd := stats.RollingMeanStd(spread, win)
	fallback := stats.StdDev(spread)
	if !finite(fallback) || fallback <= 0 {
		fallback = 1.0
	}
	scale := make([]float64, len(spread))
	prev := fallback
	for i := range spread {
		v := rollStd[i]
		if !finite(v) || v <= 0 {
			v = prev
		}
		prev = prev + scaleSmoothing*(v-prev)
		scale[i] = prev
	}
	return scale
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
