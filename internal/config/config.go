package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all pipeline configuration, loaded from params.yaml with
// environment overrides (STATARB_ prefix).
type Config struct {
	Data          DataConfig          `mapstructure:"data"`
	Lookbacks     LookbackConfig      `mapstructure:"lookbacks"`
	Thresholds    ThresholdConfig     `mapstructure:"thresholds"`
	Selection     SelectionConfig     `mapstructure:"selection"`
	Stability     StabilityConfig     `mapstructure:"stability"`
	Regime        RegimeConfig        `mapstructure:"regime"`
	Quality       QualityConfig       `mapstructure:"quality"`
	MarketFilters MarketFilterConfig  `mapstructure:"market_filters"`
	Decision      DecisionConfig      `mapstructure:"decision"`
	Costs         CostConfig          `mapstructure:"costs"`
	Risk          RiskConfig          `mapstructure:"risk"`
	ScoreWeights  ScoreWeightConfig   `mapstructure:"score_weights"`
	Trading       TradingConfig       `mapstructure:"trading"`
	State         StateConfig         `mapstructure:"state"`
	Profiles      map[string]Profile  `mapstructure:"profiles"`
	Exports       ExportConfig        `mapstructure:"exports"`
}

// DataConfig locates the price universe on disk
type DataConfig struct {
	RootDir          string   `mapstructure:"root_dir"`
	Universe         []string `mapstructure:"universe"`
	VIXCSV           string   `mapstructure:"vix_csv"`
	MacroCalendarCSV string   `mapstructure:"macro_calendar_csv"`
}

// LookbackConfig sets the statistical window lengths, in trading days
type LookbackConfig struct {
	CorrDays           int     `mapstructure:"corr_days"`
	CointDays          int     `mapstructure:"coint_days"`
	ZScoreDaysMin      int     `mapstructure:"zscore_days_min"`
	ZScoreMultHalfLife float64 `mapstructure:"zscore_mult_half_life"`
	StabilityDays      int     `mapstructure:"stability_lookback_days"`
}

// ThresholdConfig sets the z-score trade levels
type ThresholdConfig struct {
	EntryZ float64 `mapstructure:"entry_z"`
	ExitZ  float64 `mapstructure:"exit_z"`
	StopZ  float64 `mapstructure:"stop_z"`
	ZCap   float64 `mapstructure:"z_cap"`
}

// SelectionConfig filters the scored table down to tradable candidates
type SelectionConfig struct {
	MinCorr         float64 `mapstructure:"min_corr"`
	PValCointMax    float64 `mapstructure:"pval_coint_max"`
	HalfLifeMinDays float64 `mapstructure:"half_life_min_days"`
	HalfLifeMaxDays float64 `mapstructure:"half_life_max_days"`
	TopK            int     `mapstructure:"top_k"`
}

// StabilityConfig parameterizes the sub-window persistence checks
type StabilityConfig struct {
	Subwindows  int     `mapstructure:"subwindows"`
	PassRatio   float64 `mapstructure:"pass_ratio"`
	HalfLifeTol float64 `mapstructure:"half_life_tol"`
	BetaTol     float64 `mapstructure:"beta_tol"`
}

// RegimeConfig gates trading on spread regime (Hurst / variance ratio)
type RegimeConfig struct {
	Enable           bool    `mapstructure:"enable"`
	HurstMax         float64 `mapstructure:"hurst_max"`
	VarianceRatioMax float64 `mapstructure:"variance_ratio_max"`
	LookbackDays     int     `mapstructure:"lookback_days"`
}

// QualityConfig covers data hygiene: ex-div masking, liquidity, overlap
type QualityConfig struct {
	MaskExDiv          bool  `mapstructure:"mask_ex_div"`
	MaskExDivDaysAfter int   `mapstructure:"mask_ex_div_days_after"`
	MinVolume          int64 `mapstructure:"min_volume"`
	ExDivToleranceBp   int   `mapstructure:"ex_div_tolerance_bp"`
	MinOverlapBars     int   `mapstructure:"min_overlap_bars"`
}

// MarketFilterConfig gates trading on market-wide conditions
type MarketFilterConfig struct {
	Enable            bool    `mapstructure:"enable"`
	VIXMax            float64 `mapstructure:"vix_max"`
	MacroCoolOffHours int     `mapstructure:"macro_cool_off_hours"`
}

// DecisionConfig tunes the entry/exit state machine
type DecisionConfig struct {
	EntryPolicy           string `mapstructure:"entry_policy"` // "crossing" or "threshold"
	SlopeConfirm          bool   `mapstructure:"slope_confirm"`
	SlopeBars             int    `mapstructure:"slope_bars"`
	CoolOffBars           int    `mapstructure:"cool_off_bars"`
	MinBarsBetweenEntries int    `mapstructure:"min_bars_between_entries"`
	RequireCoint          bool   `mapstructure:"require_coint"`
}

// CostConfig models transaction costs
type CostConfig struct {
	SlippageBp int `mapstructure:"slippage_bp"`
}

// RiskConfig sets capital and per-trade sizing
type RiskConfig struct {
	Capital          float64 `mapstructure:"capital"`
	PerTradePct      float64 `mapstructure:"per_trade_pct"`
	NotionalPerTrade float64 `mapstructure:"notional_per_trade"`
	BetaNeutral      bool    `mapstructure:"beta_neutral"`
	MaxPairsOpen     int     `mapstructure:"max_pairs_open"`
}

// ScoreWeightConfig tunes the composite score; ordinal monotonicity is
// preserved for any non-negative weights.
type ScoreWeightConfig struct {
	Corr     float64 `mapstructure:"corr"`
	PVal     float64 `mapstructure:"pval"`
	HalfLife float64 `mapstructure:"half_life"`
	Sigma    float64 `mapstructure:"sigma"`
}

// TradingConfig selects the paper/live profile
type TradingConfig struct {
	Mode string `mapstructure:"mode"`
}

// StateConfig locates the persisted pair trade state
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// Profile allows per-mode risk overrides (profiles.paper / profiles.live)
type Profile struct {
	Risk *RiskConfig `mapstructure:"risk"`
}

// ExportConfig locates report/bundle output
type ExportConfig struct {
	ReportsDir string `mapstructure:"reports_dir"`
}

// Load reads params.yaml (path may be empty for the default search),
// applies env overrides and the trading-mode profile, and validates.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("params")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}
	v.SetEnvPrefix("STATARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No file: defaults plus env may still form a valid config
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyProfile()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsPaperTrading returns true unless the live profile is selected
func (c *Config) IsPaperTrading() bool {
	return c.Trading.Mode != "live"
}

// applyProfile overlays profile risk settings for the active trading mode
func (c *Config) applyProfile() {
	mode := c.Trading.Mode
	if mode == "" {
		mode = "paper"
		c.Trading.Mode = mode
	}
	prof, ok := c.Profiles[mode]
	if !ok || prof.Risk == nil {
		return
	}
	r := prof.Risk
	if r.Capital > 0 {
		c.Risk.Capital = r.Capital
	}
	if r.PerTradePct > 0 {
		c.Risk.PerTradePct = r.PerTradePct
	}
	if r.NotionalPerTrade > 0 {
		c.Risk.NotionalPerTrade = r.NotionalPerTrade
	}
	if r.MaxPairsOpen > 0 {
		c.Risk.MaxPairsOpen = r.MaxPairsOpen
	}
}

// Validate rejects configurations that would only fail mid-batch
func (c *Config) Validate() error {
	if c.Data.RootDir == "" {
		return fmt.Errorf("data.root_dir must be set")
	}
	if len(c.Data.Universe) < 2 {
		return fmt.Errorf("data.universe needs at least 2 symbols, got %d", len(c.Data.Universe))
	}
	t := c.Thresholds
	if t.EntryZ <= 0 || t.ExitZ < 0 || t.StopZ <= 0 {
		return fmt.Errorf("thresholds entry_z/exit_z/stop_z must be positive")
	}
	if t.ExitZ >= t.EntryZ {
		return fmt.Errorf("thresholds.exit_z (%.2f) must be below entry_z (%.2f)", t.ExitZ, t.EntryZ)
	}
	if t.StopZ <= t.EntryZ {
		return fmt.Errorf("thresholds.stop_z (%.2f) must be above entry_z (%.2f)", t.StopZ, t.EntryZ)
	}
	switch c.Decision.EntryPolicy {
	case "crossing", "threshold":
	default:
		return fmt.Errorf("decision.entry_policy must be \"crossing\" or \"threshold\", got %q", c.Decision.EntryPolicy)
	}
	if c.Trading.Mode != "paper" && c.Trading.Mode != "live" {
		return fmt.Errorf("trading.mode must be \"paper\" or \"live\", got %q", c.Trading.Mode)
	}
	if c.Risk.NotionalPerTrade <= 0 && (c.Risk.Capital <= 0 || c.Risk.PerTradePct <= 0) {
		return fmt.Errorf("risk requires notional_per_trade or capital with per_trade_pct")
	}
	if c.Lookbacks.ZScoreDaysMin <= 1 {
		return fmt.Errorf("lookbacks.zscore_days_min must exceed 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("lookbacks.corr_days", 120)
	v.SetDefault("lookbacks.coint_days", 120)
	v.SetDefault("lookbacks.zscore_days_min", 20)
	v.SetDefault("lookbacks.zscore_mult_half_life", 3.0)
	v.SetDefault("lookbacks.stability_lookback_days", 60)

	v.SetDefault("thresholds.entry_z", 2.0)
	v.SetDefault("thresholds.exit_z", 0.5)
	v.SetDefault("thresholds.stop_z", 3.5)
	v.SetDefault("thresholds.z_cap", 5.0)

	v.SetDefault("selection.min_corr", 0.6)
	v.SetDefault("selection.pval_coint_max", 0.05)
	v.SetDefault("selection.half_life_min_days", 2.0)
	v.SetDefault("selection.half_life_max_days", 20.0)
	v.SetDefault("selection.top_k", 5)

	v.SetDefault("stability.subwindows", 3)
	v.SetDefault("stability.pass_ratio", 2.0/3.0)
	v.SetDefault("stability.half_life_tol", 0.2)
	v.SetDefault("stability.beta_tol", 0.2)

	v.SetDefault("regime.enable", false)
	v.SetDefault("regime.hurst_max", 0.5)
	v.SetDefault("regime.variance_ratio_max", 1.0)
	v.SetDefault("regime.lookback_days", 60)

	v.SetDefault("quality.mask_ex_div", true)
	v.SetDefault("quality.mask_ex_div_days_after", 1)
	v.SetDefault("quality.min_volume", 0)
	v.SetDefault("quality.ex_div_tolerance_bp", 1)
	v.SetDefault("quality.min_overlap_bars", 120)

	v.SetDefault("market_filters.enable", true)
	v.SetDefault("market_filters.vix_max", 30.0)
	v.SetDefault("market_filters.macro_cool_off_hours", 1)

	v.SetDefault("decision.entry_policy", "crossing")
	v.SetDefault("decision.slope_confirm", true)
	v.SetDefault("decision.slope_bars", 3)
	v.SetDefault("decision.cool_off_bars", 5)
	v.SetDefault("decision.min_bars_between_entries", 3)
	v.SetDefault("decision.require_coint", true)

	v.SetDefault("costs.slippage_bp", 2)

	v.SetDefault("risk.capital", 100000.0)
	v.SetDefault("risk.per_trade_pct", 0.1)
	v.SetDefault("risk.notional_per_trade", 0.0)
	v.SetDefault("risk.beta_neutral", false)
	v.SetDefault("risk.max_pairs_open", 5)

	v.SetDefault("score_weights.corr", 2.0)
	v.SetDefault("score_weights.pval", 1.5)
	v.SetDefault("score_weights.half_life", 1.0)
	v.SetDefault("score_weights.sigma", 0.5)

	v.SetDefault("trading.mode", "paper")
	v.SetDefault("state.path", "reports/state/trade_state.json")
	v.SetDefault("exports.reports_dir", "reports")
}
