package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/scoring"
	"github.com/pairscope/statarb-cli/pkg/formatters"
)

func init() {
	scoreCmd.Flags().Bool("all", false, "Show every scored pair, not just the selected candidates")
	scoreCmd.Flags().Bool("json", false, "Output as JSON")
	scoreCmd.Flags().Bool("export", false, "Write scores.csv into the daily bundle")

	rootCmd.AddCommand(scoreCmd)
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank all universe pairs by mean-reversion quality",
	Long: `Scores every unordered pair in the configured universe: return
correlation, cointegration p-value, spread half-life, and spread
volatility combine into one composite score. By default only pairs
passing the selection thresholds are shown.`,
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	showAll, _ := cmd.Flags().GetBool("all")
	asJSON, _ := cmd.Flags().GetBool("json")
	export, _ := cmd.Flags().GetBool("export")

	scored, tally, err := scorer.ScoreAll()
	if err != nil {
		return err
	}

	rows := scored
	if !showAll {
		rows = scoring.SelectTop(scored, cfg.Selection)
	}

	if asJSON {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(formatters.FormatScoresTable(rows))
		fmt.Printf("Evaluated %d pairs, skipped %d\n", tally.Evaluated, tally.Skipped)
	}

	if export {
		dir, err := bundleDir(time.Now())
		if err != nil {
			return err
		}
		if err := exportScores(dir, rows); err != nil {
			return err
		}
		logger.Info("scores exported", zap.String("dir", dir))
	}

	return nil
}
