// Package risk turns decisions into sized two-leg order tickets and
// enforces portfolio-level limits.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pairscope/statarb-cli/internal/config"
	"github.com/pairscope/statarb-cli/internal/models"
)

// Manager handles position sizing and portfolio limits
type Manager struct {
	cfg *config.Config
}

// NewManager creates a new risk manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// TradeNotional returns the combined dollar target for one pair trade:
// the fixed per-trade notional when set, otherwise a percentage of
// capital.
func (m *Manager) TradeNotional() decimal.Decimal {
	if m.cfg.Risk.NotionalPerTrade > 0 {
		return decimal.NewFromFloat(m.cfg.Risk.NotionalPerTrade)
	}
	return decimal.NewFromFloat(m.cfg.Risk.Capital).
		Mul(decimal.NewFromFloat(m.cfg.Risk.PerTradePct))
}

// SizeLegs splits the notional evenly across the two legs and floors
// each to whole shares. With beta_neutral set, leg B is scaled by the
// hedge ratio so the position is hedge-weighted rather than
// dollar-weighted.
func (m *Manager) SizeLegs(notional, priceA, priceB decimal.Decimal, beta float64) (qtyA, qtyB decimal.Decimal, err error) {
	if priceA.IsZero() || priceB.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("cannot size legs with zero price (a=%s b=%s)", priceA, priceB)
	}
	half := notional.Div(decimal.NewFromInt(2))
	qtyA = half.Div(priceA).Floor()

	legB := half
	if m.cfg.Risk.BetaNeutral && !math.IsNaN(beta) && !math.IsInf(beta, 0) && beta > 0 {
		legB = half.Mul(decimal.NewFromFloat(beta))
	}
	qtyB = legB.Div(priceB).Floor()

	if qtyA.IsZero() || qtyB.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("notional %s too small for prices (a=%s b=%s)", notional, priceA, priceB)
	}
	return qtyA, qtyB, nil
}

// BuildTicket converts an actionable decision into a two-leg order
// ticket at the given last prices. HOLD decisions return an error.
func (m *Manager) BuildTicket(d models.Decision, priceA, priceB decimal.Decimal, now time.Time) (models.OrderTicket, error) {
	var sideA, sideB models.OrderSide
	switch d.Action {
	case models.ActionShortYLongX:
		sideA, sideB = models.Sell, models.Buy
	case models.ActionLongYShortX:
		sideA, sideB = models.Buy, models.Sell
	case models.ActionExitStop, models.ActionExitNeutral:
		sideA, sideB = models.Close, models.Close
	default:
		return models.OrderTicket{}, fmt.Errorf("decision for %s carries no actionable signal", d.Pair.Key())
	}

	qtyA, qtyB := decimal.Zero, decimal.Zero
	if sideA != models.Close {
		var err error
		qtyA, qtyB, err = m.SizeLegs(m.TradeNotional(), priceA, priceB, d.Beta)
		if err != nil {
			return models.OrderTicket{}, err
		}
	}

	return models.OrderTicket{
		Pair:      d.Pair,
		Action:    d.Action,
		LegA:      models.OrderLeg{Symbol: d.Pair.A, Side: sideA, Qty: qtyA, Price: priceA},
		LegB:      models.OrderLeg{Symbol: d.Pair.B, Side: sideB, Qty: qtyB, Price: priceB},
		CreatedAt: now,
	}, nil
}

// ClampEntries drops ENTER decisions beyond the max_pairs_open budget,
// given how many pairs are already open. Decisions are taken in order,
// so callers should pass them ranked. EXIT and HOLD pass untouched.
func (m *Manager) ClampEntries(decisions []models.Decision, openPairs int) []models.Decision {
	max := m.cfg.Risk.MaxPairsOpen
	if max <= 0 {
		return decisions
	}
	budget := max - openPairs
	out := make([]models.Decision, 0, len(decisions))
	for _, d := range decisions {
		if d.Verdict == models.VerdictEnter {
			if budget <= 0 {
				d.Verdict = models.VerdictHold
				d.Action = models.ActionNone
				d.Reason = "max open pairs reached"
				out = append(out, d)
				continue
			}
			budget--
		}
		out = append(out, d)
	}
	return out
}
