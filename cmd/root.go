package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pairscope/statarb-cli/internal/config"
	"github.com/pairscope/statarb-cli/internal/engine"
	"github.com/pairscope/statarb-cli/internal/marketdata"
	"github.com/pairscope/statarb-cli/internal/risk"
	"github.com/pairscope/statarb-cli/internal/scoring"
)

var (
	// Global instances
	cfg         *config.Config
	logger      *zap.Logger
	dataStore   *marketdata.Store
	scorer      *scoring.Scorer
	stateStore  engine.StateStore
	riskManager *risk.Manager
	decider     *engine.Engine
	simulator   *engine.Simulator

	cfgPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "statarb",
	Short: "Pairs-trading research and daily decision pipeline",
	Long: `statarb scans an equity universe for cointegrated pairs, ranks them
by a composite mean-reversion score, and runs a filtered entry/exit
state machine over the survivors. Decisions, sized orders, and
backtest journals are printed as tables and exported as daily
bundles.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default is ./params.yaml)")
}

// initLogger configures zap: default INFO, DEBUG if DEBUG env is truthy
func initLogger() {
	verbose := false
	if v := os.Getenv("DEBUG"); v == "true" || v == "1" || v == "yes" {
		verbose = true
	}

	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var err error
	logger, err = zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
}

// initializeApp sets up all dependencies
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dataStore = marketdata.NewStore(cfg.Data.RootDir, cfg.Quality.MaskExDiv, cfg.Quality.ExDivToleranceBp, logger)
	scorer = scoring.NewScorer(dataStore, cfg, logger)
	stateStore = engine.NewFileStore(cfg.State.Path)
	riskManager = risk.NewManager(cfg)

	gate := engine.NewMarketGate(cfg.MarketFilters, cfg.Data.VIXCSV, cfg.Data.MacroCalendarCSV, logger)
	decider = engine.NewEngine(cfg, stateStore, gate, logger)
	simulator = engine.NewSimulator(cfg, logger)

	mode := "PAPER"
	if !cfg.IsPaperTrading() {
		mode = "LIVE"
	}
	logger.Info("pipeline initialized",
		zap.String("mode", mode),
		zap.Int("universe", len(cfg.Data.Universe)))

	return nil
}

// openPairCount returns how many pairs the state store currently
// records as open.
func openPairCount() int {
	all, err := stateStore.All()
	if err != nil {
		logger.Warn("state unreadable, assuming no open pairs", zap.Error(err))
		return 0
	}
	open := 0
	for _, rec := range all {
		if rec.LastEntryIndex > rec.LastExitIndex {
			open++
		}
	}
	return open
}
