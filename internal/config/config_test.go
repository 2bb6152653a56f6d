package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
data:
  root_dir: /tmp/prices
  universe: [AAA, BBB, CCC]
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeParams(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Thresholds.EntryZ != 2.0 || cfg.Thresholds.ExitZ != 0.5 || cfg.Thresholds.StopZ != 3.5 {
		t.Errorf("threshold defaults wrong: %+v", cfg.Thresholds)
	}
	if cfg.Lookbacks.CorrDays != 120 || cfg.Lookbacks.ZScoreDaysMin != 20 {
		t.Errorf("lookback defaults wrong: %+v", cfg.Lookbacks)
	}
	if cfg.Selection.TopK != 5 || cfg.Selection.PValCointMax != 0.05 {
		t.Errorf("selection defaults wrong: %+v", cfg.Selection)
	}
	if cfg.Decision.EntryPolicy != "crossing" || cfg.Decision.CoolOffBars != 5 {
		t.Errorf("decision defaults wrong: %+v", cfg.Decision)
	}
	if cfg.Trading.Mode != "paper" || !cfg.IsPaperTrading() {
		t.Errorf("mode default wrong: %+v", cfg.Trading)
	}
	if cfg.State.Path != "reports/state/trade_state.json" {
		t.Errorf("state path default wrong: %q", cfg.State.Path)
	}
	if cfg.ScoreWeights.Corr != 2.0 || cfg.ScoreWeights.Sigma != 0.5 {
		t.Errorf("score weight defaults wrong: %+v", cfg.ScoreWeights)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeParams(t, minimalYAML+`
thresholds:
  entry_z: 2.5
  stop_z: 4.0
decision:
  entry_policy: threshold
risk:
  notional_per_trade: 20000
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Thresholds.EntryZ != 2.5 || cfg.Thresholds.StopZ != 4.0 {
		t.Errorf("overrides not applied: %+v", cfg.Thresholds)
	}
	if cfg.Thresholds.ExitZ != 0.5 {
		t.Errorf("untouched keys should keep defaults, exit_z = %v", cfg.Thresholds.ExitZ)
	}
	if cfg.Decision.EntryPolicy != "threshold" {
		t.Errorf("entry_policy = %q", cfg.Decision.EntryPolicy)
	}
	if cfg.Risk.NotionalPerTrade != 20000 {
		t.Errorf("notional_per_trade = %v", cfg.Risk.NotionalPerTrade)
	}
}

func TestLoadProfileOverlay(t *testing.T) {
	cfg, err := Load(writeParams(t, minimalYAML+`
trading:
  mode: live
profiles:
  live:
    risk:
      capital: 50000
      max_pairs_open: 2
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IsPaperTrading() {
		t.Error("live mode should not report paper trading")
	}
	if cfg.Risk.Capital != 50000 || cfg.Risk.MaxPairsOpen != 2 {
		t.Errorf("live profile not applied: %+v", cfg.Risk)
	}
	if cfg.Risk.PerTradePct != 0.1 {
		t.Errorf("unset profile fields should keep base values, got %v", cfg.Risk.PerTradePct)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing root dir", "data:\n  universe: [AAA, BBB]\n", "root_dir"},
		{"one symbol", "data:\n  root_dir: /x\n  universe: [AAA]\n", "universe"},
		{"exit above entry", minimalYAML + "thresholds:\n  exit_z: 2.5\n", "exit_z"},
		{"stop below entry", minimalYAML + "thresholds:\n  stop_z: 1.5\n", "stop_z"},
		{"bad policy", minimalYAML + "decision:\n  entry_policy: vibes\n", "entry_policy"},
		{"bad mode", minimalYAML + "trading:\n  mode: demo\n", "trading.mode"},
		{"no sizing", minimalYAML + "risk:\n  capital: 0\n  per_trade_pct: 0\n", "risk"},
		{"z window too small", minimalYAML + "lookbacks:\n  zscore_days_min: 1\n", "zscore_days_min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeParams(t, tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileIsFatalWithPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("an explicitly named missing config file should error")
	}
}
