package formatters

import (
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pairscope/statarb-cli/internal/models"
)

// Colors for different values
var (
	ColorGreen  = text.FgGreen
	ColorRed    = text.FgRed
	ColorYellow = text.FgYellow
	ColorBlue   = text.FgCyan
	ColorWhite  = text.FgWhite
	ColorGray   = text.FgHiBlack
)

// FormatFloat renders a statistic, showing a dash for NaN/Inf so
// missing values are visibly missing rather than zero.
func FormatFloat(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ColorGray.Sprint("-")
	}
	return fmt.Sprintf("%.*f", decimals, v)
}

// FormatPValue colors a cointegration p-value by conventional
// significance levels.
func FormatPValue(pval float64, proxy bool) string {
	s := FormatFloat(pval, 4)
	if proxy {
		s += ColorGray.Sprint("*")
	}
	switch {
	case math.IsNaN(pval):
		return s
	case pval <= 0.01:
		return ColorGreen.Sprint(s)
	case pval <= 0.05:
		return ColorYellow.Sprint(s)
	default:
		return ColorRed.Sprint(s)
	}
}

// FormatVerdict colors the decision verdict
func FormatVerdict(v models.Verdict) string {
	switch v {
	case models.VerdictEnter:
		return ColorGreen.Sprint(string(v))
	case models.VerdictExit:
		return ColorRed.Sprint(string(v))
	default:
		return ColorGray.Sprint(string(v))
	}
}

// FormatScoresTable renders the ranked pair-scoring table
func FormatScoresTable(scored []models.ScoredPair) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{
		"#", "Pair", "Corr", "P-Value", "Half-Life", "Sigma", "Beta", "Score"})

	for i, sp := range scored {
		t.AppendRow(table.Row{
			i + 1,
			sp.Pair.Key(),
			FormatFloat(sp.Corr, 3),
			FormatPValue(sp.PValue, sp.PValProxy),
			FormatFloat(sp.HalfLife, 1),
			FormatFloat(sp.SigmaSpread, 4),
			FormatFloat(sp.Beta, 3),
			FormatFloat(sp.Score, 3),
		})
	}

	if len(scored) == 0 {
		t.AppendRow(table.Row{"No pairs scored", "", "", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatDecisionsTable renders a day's decisions with one row per pair
func FormatDecisionsTable(decisions []models.Decision) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{
		"Pair", "Verdict", "Action", "Z", "Z-Win", "Half-Life", "Beta", "Reason"})

	for _, d := range decisions {
		t.AppendRow(table.Row{
			d.Pair.Key(),
			FormatVerdict(d.Verdict),
			string(d.Action),
			FormatFloat(d.ZLast, 2),
			d.ZWindow,
			FormatFloat(d.HalfLife, 1),
			FormatFloat(d.Beta, 3),
			d.Reason,
		})
	}

	if len(decisions) == 0 {
		t.AppendRow(table.Row{"No decisions", "", "", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatBacktestTable renders per-pair replay summaries
func FormatBacktestTable(results []models.BacktestResult) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Pair", "Bars", "Entries", "Total P&L"})

	total := 0.0
	for _, r := range results {
		plColor := ColorGreen
		if r.TotalPnL < 0 {
			plColor = ColorRed
		}
		t.AppendRow(table.Row{
			r.Pair.Key(),
			len(r.Journal),
			r.Entries,
			plColor.Sprintf("$%.2f", r.TotalPnL),
		})
		total += r.TotalPnL
	}

	t.AppendSeparator()
	totalColor := ColorGreen
	if total < 0 {
		totalColor = ColorRed
	}
	t.AppendRow(table.Row{"TOTAL", "", "", totalColor.Sprintf("$%.2f", total)})

	return t.Render()
}

// FormatOrdersTable renders sized order tickets, both legs per ticket
func FormatOrdersTable(tickets []models.OrderTicket) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{
		"Pair", "Action", "Symbol", "Side", "Qty", "Price", "Value"})

	for _, tk := range tickets {
		for _, leg := range []models.OrderLeg{tk.LegA, tk.LegB} {
			sideColor := ColorGreen
			if leg.Side == models.Sell {
				sideColor = ColorRed
			} else if leg.Side == models.Close {
				sideColor = ColorYellow
			}
			t.AppendRow(table.Row{
				tk.Pair.Key(),
				string(tk.Action),
				leg.Symbol,
				sideColor.Sprint(strings.ToUpper(string(leg.Side))),
				leg.Qty.String(),
				fmt.Sprintf("$%.2f", leg.Price.InexactFloat64()),
				fmt.Sprintf("$%.2f", leg.Qty.Mul(leg.Price).InexactFloat64()),
			})
		}
	}

	if len(tickets) == 0 {
		t.AppendRow(table.Row{"No orders", "", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatStateTable renders the persisted anti-churn records
func FormatStateTable(state map[string]models.PairTradeState, keys []string) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Pair", "Last Entry", "Last Exit", "Cool Until"})

	for _, k := range keys {
		rec := state[k]
		t.AppendRow(table.Row{k, rec.LastEntryIndex, rec.LastExitIndex, rec.CoolUntilIndex})
	}

	if len(keys) == 0 {
		t.AppendRow(table.Row{"No state", "", "", ""})
	}

	return t.Render()
}
