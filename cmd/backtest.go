package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/models"
	"github.com/pairscope/statarb-cli/internal/scoring"
	"github.com/pairscope/statarb-cli/pkg/formatters"
)

func init() {
	backtestCmd.Flags().StringSlice("pairs", []string{}, "Replay specific pairs (A/B), bypassing selection")
	backtestCmd.Flags().Bool("json", false, "Output as JSON (summaries only)")
	backtestCmd.Flags().Bool("journal", false, "Write per-pair journal CSVs into the daily bundle")

	rootCmd.AddCommand(backtestCmd)
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the trading rules over full pair history",
	Long: `Replays the entry/exit rules over each candidate pair's shared
history with hedge parameters fit once on the full window. The replay
shares the threshold, policy, and cost config with the daily decision
run, so it answers how today's rules would have traded the past.`,
	RunE: runBacktest,
}

func runBacktest(cmd *cobra.Command, args []string) error {
	pairArgs, _ := cmd.Flags().GetStringSlice("pairs")
	asJSON, _ := cmd.Flags().GetBool("json")
	journal, _ := cmd.Flags().GetBool("journal")

	var pairs []models.Pair
	if len(pairArgs) > 0 {
		for _, arg := range pairArgs {
			p, err := parsePairArg(arg)
			if err != nil {
				return err
			}
			pairs = append(pairs, p)
		}
	} else {
		scored, _, err := scorer.ScoreAll()
		if err != nil {
			return err
		}
		for _, sp := range scoring.SelectTop(scored, cfg.Selection) {
			pairs = append(pairs, sp.Pair)
		}
	}

	results := simulator.RunAll(pairs, dataStore)

	if asJSON {
		summaries := make([]models.BacktestResult, len(results))
		for i, r := range results {
			r.Journal = nil
			summaries[i] = r
		}
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(formatters.FormatBacktestTable(results))
	}

	if journal {
		dir, err := bundleDir(time.Now())
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := exportJournal(dir, r); err != nil {
				return err
			}
		}
		logger.Info("journals exported", zap.String("dir", dir), zap.Int("pairs", len(results)))
	}

	return nil
}
