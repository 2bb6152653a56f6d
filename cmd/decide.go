package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/models"
	"github.com/pairscope/statarb-cli/internal/scoring"
	"github.com/pairscope/statarb-cli/pkg/formatters"
)

func init() {
	decideCmd.Flags().Bool("json", false, "Output as JSON")
	decideCmd.Flags().Bool("no-export", false, "Skip writing the daily bundle")
	decideCmd.Flags().StringSlice("pairs", []string{}, "Evaluate specific pairs (A/B), bypassing selection")

	rootCmd.AddCommand(decideCmd)
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run the daily entry/exit decision over selected pairs",
	Long: `Scores the universe, selects candidates, and runs each one through
the decision filter chain: data quality, market regime, stability,
cointegration persistence, and the z-score entry/exit rules. Every
pair gets a verdict with the exact reason it was held, entered, or
exited. Results are written to the daily bundle unless suppressed.`,
	RunE: runDecide,
}

func runDecide(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	noExport, _ := cmd.Flags().GetBool("no-export")
	pairArgs, _ := cmd.Flags().GetStringSlice("pairs")

	decisions, err := evaluateCandidates(pairArgs)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(decisions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(formatters.FormatDecisionsTable(decisions))
		printTally(decisions)
	}

	if !noExport && len(decisions) > 0 {
		dir, err := bundleDir(decisions[0].AsOf)
		if err != nil {
			return err
		}
		if err := exportDecisions(dir, decisions); err != nil {
			return err
		}
		logger.Info("decisions exported", zap.String("dir", dir))
	}

	return nil
}

// evaluateCandidates runs the score -> select -> decide pipeline, or
// evaluates an explicit pair list when one is given.
func evaluateCandidates(pairArgs []string) ([]models.Decision, error) {
	var pairs []models.Pair
	if len(pairArgs) > 0 {
		for _, arg := range pairArgs {
			p, err := parsePairArg(arg)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, p)
		}
	} else {
		scored, _, err := scorer.ScoreAll()
		if err != nil {
			return nil, err
		}
		for _, sp := range scoring.SelectTop(scored, cfg.Selection) {
			pairs = append(pairs, sp.Pair)
		}
	}

	decisions := decider.EvaluateAll(pairs, dataStore)
	return riskManager.ClampEntries(decisions, openPairCount()), nil
}

func parsePairArg(arg string) (models.Pair, error) {
	i := strings.IndexAny(arg, "/-,")
	if i <= 0 || i == len(arg)-1 {
		return models.Pair{}, fmt.Errorf("pair %q must be SYMBOL/SYMBOL", arg)
	}
	return models.NewPair(strings.ToUpper(arg[:i]), strings.ToUpper(arg[i+1:])), nil
}

func printTally(decisions []models.Decision) {
	var enters, exits, holds int
	for _, d := range decisions {
		switch d.Verdict {
		case models.VerdictEnter:
			enters++
		case models.VerdictExit:
			exits++
		default:
			holds++
		}
	}
	fmt.Printf("%d pairs: %d enter, %d exit, %d hold (as of %s)\n",
		len(decisions), enters, exits, holds, asOfLabel(decisions))
}

func asOfLabel(decisions []models.Decision) string {
	for _, d := range decisions {
		if !d.AsOf.IsZero() {
			return d.AsOf.Format("2006-01-02")
		}
	}
	return time.Now().Format("2006-01-02")
}
