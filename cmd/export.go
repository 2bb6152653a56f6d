package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pairscope/statarb-cli/internal/models"
)

// bundleDir creates and returns the daily export directory,
// reports/bundles/<mode>/<date>. Every artifact of a run lands in the
// same bundle so a day is reviewable as a unit.
func bundleDir(asOf time.Time) (string, error) {
	dir := filepath.Join(cfg.Exports.ReportsDir, "bundles", cfg.Trading.Mode, asOf.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bundle dir: %w", err)
	}
	return dir, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func exportScores(dir string, scored []models.ScoredPair) error {
	rows := make([][]string, 0, len(scored))
	for _, sp := range scored {
		rows = append(rows, []string{
			sp.Pair.Key(),
			fmtF(sp.Corr), fmtF(sp.PValue), fmtF(sp.HalfLife), fmtF(sp.SigmaSpread),
			fmtF(sp.Alpha), fmtF(sp.Beta), fmtF(sp.Score),
			strconv.FormatBool(sp.PValProxy),
		})
	}
	return writeCSV(filepath.Join(dir, "scores.csv"),
		[]string{"pair", "corr", "pval", "half_life", "sigma_spread", "alpha", "beta", "score", "pval_proxy"},
		rows)
}

func exportDecisions(dir string, decisions []models.Decision) error {
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		rows = append(rows, []string{
			d.AsOf.Format("2006-01-02"),
			d.Pair.Key(),
			string(d.Verdict), string(d.Action), d.Reason,
			fmtF(d.ZLast), strconv.Itoa(d.ZWindow),
			fmtF(d.HalfLife), fmtF(d.Beta), fmtF(d.PValue),
		})
	}
	return writeCSV(filepath.Join(dir, "decisions.csv"),
		[]string{"date", "pair", "verdict", "action", "reason", "z", "z_window", "half_life", "beta", "pval"},
		rows)
}

func exportOrders(dir string, tickets []models.OrderTicket) error {
	rows := make([][]string, 0, len(tickets)*2)
	for _, tk := range tickets {
		for _, leg := range []models.OrderLeg{tk.LegA, tk.LegB} {
			rows = append(rows, []string{
				tk.CreatedAt.Format(time.RFC3339),
				tk.Pair.Key(), string(tk.Action),
				leg.Symbol, string(leg.Side), leg.Qty.String(), leg.Price.String(),
			})
		}
	}
	return writeCSV(filepath.Join(dir, "orders.csv"),
		[]string{"created_at", "pair", "action", "symbol", "side", "qty", "price"},
		rows)
}

func exportJournal(dir string, res models.BacktestResult) error {
	rows := make([][]string, 0, len(res.Journal))
	for _, jr := range res.Journal {
		rows = append(rows, []string{
			jr.Date.Format("2006-01-02"),
			fmtF(jr.Z), strconv.Itoa(jr.Position), strconv.Itoa(jr.Signal),
			fmtF(jr.StepPnL), fmtF(jr.CumPnL),
		})
	}
	name := fmt.Sprintf("journal_%s_%s.csv", res.Pair.A, res.Pair.B)
	return writeCSV(filepath.Join(dir, name),
		[]string{"date", "z", "position", "signal", "step_pnl", "cum_pnl"},
		rows)
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
