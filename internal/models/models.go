package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Verdict is the decision engine's output for a pair on a given day
type Verdict string

const (
	VerdictEnter Verdict = "ENTER"
	VerdictExit  Verdict = "EXIT"
	VerdictHold  Verdict = "HOLD"
)

// Action is the directional instruction attached to a verdict
type Action string

const (
	ActionNone        Action = "none"
	ActionShortYLongX Action = "short_y_long_x" // spread rich: sell leg A, buy leg B
	ActionLongYShortX Action = "long_y_short_x" // spread cheap: buy leg A, sell leg B
	ActionExitStop    Action = "exit_stop"
	ActionExitNeutral Action = "exit_neutral"
)

// OrderSide represents buy, sell, or position close
type OrderSide string

const (
	Buy   OrderSide = "buy"
	Sell  OrderSide = "sell"
	Close OrderSide = "close"
)

// Pair is an unordered instrument combination, A < B by convention
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPair normalizes symbol order so (x,y) and (y,x) map to the same pair
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Key returns the canonical state-store key for the pair
func (p Pair) Key() string {
	return fmt.Sprintf("%s/%s", p.A, p.B)
}

func (p Pair) String() string { return p.Key() }

// ScoredPair is one row of the pair-scoring table
type ScoredPair struct {
	Pair        Pair    `json:"pair"`
	Corr        float64 `json:"corr"`
	PValue      float64 `json:"pval"`
	HalfLife    float64 `json:"half_life"`
	SigmaSpread float64 `json:"sigma_spread"`
	Alpha       float64 `json:"alpha"`
	Beta        float64 `json:"beta"`
	Score       float64 `json:"score"`
	// PValProxy marks a half-life-derived p-value used because the ADF
	// test could not run; lower confidence than a real test.
	PValProxy bool `json:"pval_proxy"`
}

// Decision is the engine's full evaluation record for one pair
type Decision struct {
	Pair     Pair      `json:"pair"`
	Verdict  Verdict   `json:"verdict"`
	Action   Action    `json:"action"`
	Reason   string    `json:"reason"`
	ZLast    float64   `json:"z_last"`
	HalfLife float64   `json:"half_life"`
	Beta     float64   `json:"beta"`
	PValue   float64   `json:"pval"`
	ZWindow  int       `json:"z_window"`
	AsOf     time.Time `json:"as_of"`
}

// PairTradeState is the persisted anti-churn record for a pair.
// Indices are Julian day numbers of the bar that triggered the event.
type PairTradeState struct {
	LastEntryIndex int64 `json:"last_entry_idx"`
	LastExitIndex  int64 `json:"last_exit_idx"`
	CoolUntilIndex int64 `json:"cool_until_idx"`
}

// OrderLeg is one leg of a pair order ready for broker hand-off
type OrderLeg struct {
	Symbol string          `json:"symbol"`
	Side   OrderSide       `json:"side"`
	Qty    decimal.Decimal `json:"qty"`
	Price  decimal.Decimal `json:"price"`
}

// OrderTicket bundles the two legs emitted for one decision
type OrderTicket struct {
	Pair      Pair      `json:"pair"`
	Action    Action    `json:"action"`
	LegA      OrderLeg  `json:"leg_a"`
	LegB      OrderLeg  `json:"leg_b"`
	CreatedAt time.Time `json:"created_at"`
}

// Notional returns the combined absolute dollar value of both legs
func (t OrderTicket) Notional() decimal.Decimal {
	return t.LegA.Qty.Mul(t.LegA.Price).Add(t.LegB.Qty.Mul(t.LegB.Price))
}

// JournalRow is one bar of a backtest replay
type JournalRow struct {
	Date     time.Time `json:"date"`
	Z        float64   `json:"z"`
	Position int       `json:"pos"`
	Signal   int       `json:"signal"`
	StepPnL  float64   `json:"step_pnl"`
	CumPnL   float64   `json:"cum_pnl"`
}

// BacktestResult is the simulator output for one pair
type BacktestResult struct {
	Pair     Pair         `json:"pair"`
	TotalPnL float64      `json:"total_pnl"`
	Entries  int          `json:"entries"`
	Journal  []JournalRow `json:"journal"`
}
