package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/models"
	"github.com/pairscope/statarb-cli/pkg/formatters"
)

func init() {
	ordersCmd.Flags().StringSlice("pairs", []string{}, "Evaluate specific pairs (A/B), bypassing selection")
	ordersCmd.Flags().Bool("no-export", false, "Skip writing the daily bundle")

	rootCmd.AddCommand(ordersCmd)
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Turn today's actionable decisions into sized order tickets",
	Long: `Runs the daily decision pipeline and converts every ENTER and EXIT
into a two-leg order ticket sized from the risk config, priced at each
leg's last close. Tickets are printed and written to the daily bundle
for manual or downstream execution; nothing is sent to a broker.`,
	RunE: runOrders,
}

func runOrders(cmd *cobra.Command, args []string) error {
	pairArgs, _ := cmd.Flags().GetStringSlice("pairs")
	noExport, _ := cmd.Flags().GetBool("no-export")

	decisions, err := evaluateCandidates(pairArgs)
	if err != nil {
		return err
	}

	now := time.Now()
	var tickets []models.OrderTicket
	for _, d := range decisions {
		if d.Verdict == models.VerdictHold {
			continue
		}
		priceA, err := lastPrice(d.Pair.A)
		if err != nil {
			logger.Warn("skipping ticket, no price", zap.String("symbol", d.Pair.A), zap.Error(err))
			continue
		}
		priceB, err := lastPrice(d.Pair.B)
		if err != nil {
			logger.Warn("skipping ticket, no price", zap.String("symbol", d.Pair.B), zap.Error(err))
			continue
		}
		ticket, err := riskManager.BuildTicket(d, priceA, priceB, now)
		if err != nil {
			logger.Warn("skipping ticket", zap.String("pair", d.Pair.Key()), zap.Error(err))
			continue
		}
		tickets = append(tickets, ticket)
	}

	fmt.Println(formatters.FormatOrdersTable(tickets))
	fmt.Printf("%d tickets from %d decisions\n", len(tickets), len(decisions))

	if !noExport && len(tickets) > 0 {
		dir, err := bundleDir(now)
		if err != nil {
			return err
		}
		if err := exportOrders(dir, tickets); err != nil {
			return err
		}
		logger.Info("orders exported", zap.String("dir", dir))
	}

	return nil
}

func lastPrice(symbol string) (decimal.Decimal, error) {
	s, err := dataStore.Get(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if s.Len() == 0 {
		return decimal.Zero, fmt.Errorf("no bars for %s", symbol)
	}
	return decimal.NewFromFloat(s.Px[s.Len()-1]), nil
}
