package scoring

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/config"
	"github.com/pairscope/statarb-cli/internal/marketdata"
	"github.com/pairscope/statarb-cli/internal/models"
)

// lcg is a deterministic noise source for reproducible test series
type lcg struct{ state uint32 }

func (r *lcg) next() float64 {
	r.state = r.state*1103515245 + 12345
	return float64(r.state%2000000)/1000000.0 - 1.0
}

func TestAllPairs(t *testing.T) {
	pairs := AllPairs([]string{"C", "A", "B", "A", ""})
	want := []models.Pair{{A: "A", B: "B"}, {A: "A", B: "C"}, {A: "B", B: "C"}}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(pairs), len(want))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %v, want %v", i, pairs[i], want[i])
		}
	}
}

// writeSeries renders a close-only CSV over sequential calendar days
func writeSeries(t *testing.T, dir, symbol string, px []float64) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("date,close\n")
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, p := range px {
		fmt.Fprintf(&sb, "%s,%.6f\n", start.AddDate(0, 0, i).Format("2006-01-02"), p)
	}
	if err := os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(dir string, universe ...string) *config.Config {
	cfg := &config.Config{}
	cfg.Data.RootDir = dir
	cfg.Data.Universe = universe
	cfg.Lookbacks.CorrDays = 120
	cfg.Lookbacks.CointDays = 120
	cfg.Selection = config.SelectionConfig{
		MinCorr: 0.6, PValCointMax: 0.05,
		HalfLifeMinDays: 2.0, HalfLifeMaxDays: 20.0, TopK: 5,
	}
	cfg.ScoreWeights = config.ScoreWeightConfig{Corr: 2.0, PVal: 1.5, HalfLife: 1.0, Sigma: 0.5}
	return cfg
}

func TestScoreAllRanksCointegratedPairFirst(t *testing.T) {
	dir := t.TempDir()
	r := &lcg{state: 11}

	n := 300
	base := make([]float64, n)
	coint := make([]float64, n)
	indep := make([]float64, n)
	base[0], indep[0] = 100, 100
	ou := 0.0
	for i := 0; i < n; i++ {
		if i > 0 {
			base[i] = base[i-1] + 0.3*r.next()
			indep[i] = indep[i-1] + 0.5*r.next()
		}
		ou = 0.8*ou + 0.2*r.next()
		coint[i] = 2*base[i] + ou
	}
	writeSeries(t, dir, "AAA", base)
	writeSeries(t, dir, "BBB", coint)
	writeSeries(t, dir, "CCC", indep)

	cfg := testConfig(dir, "AAA", "BBB", "CCC", "GHOST")
	store := marketdata.NewStore(dir, false, 1, zap.NewNop())
	sc := NewScorer(store, cfg, zap.NewNop())

	scored, tally, err := sc.ScoreAll()
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}
	if tally.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 for the missing symbol", tally.Skipped)
	}
	if tally.Evaluated != 3 {
		t.Errorf("Evaluated = %d, want 3", tally.Evaluated)
	}
	if len(scored) != 3 {
		t.Fatalf("scored %d pairs, want 3", len(scored))
	}

	top := scored[0]
	if top.Pair.Key() != "AAA/BBB" {
		t.Errorf("top pair = %s, want AAA/BBB", top.Pair.Key())
	}
	if top.Corr < 0.9 {
		t.Errorf("top corr = %v, want near 1", top.Corr)
	}
	if top.PValue > 0.05 {
		t.Errorf("top pval = %v, want significant", top.PValue)
	}
	if top.PValProxy {
		t.Error("long series should use the real ADF test, not the proxy")
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[i-1].Score {
			t.Errorf("scores out of order at %d: %v > %v", i, scored[i].Score, scored[i-1].Score)
		}
	}
}

func TestScoreAllIdempotent(t *testing.T) {
	dir := t.TempDir()
	r := &lcg{state: 5}
	n := 200
	a := make([]float64, n)
	b := make([]float64, n)
	a[0] = 50
	for i := 1; i < n; i++ {
		a[i] = a[i-1] + 0.2*r.next()
	}
	for i := 0; i < n; i++ {
		b[i] = 1.5*a[i] + 0.1*r.next()
	}
	writeSeries(t, dir, "AAA", a)
	writeSeries(t, dir, "BBB", b)

	cfg := testConfig(dir, "AAA", "BBB")
	sc := NewScorer(marketdata.NewStore(dir, false, 1, zap.NewNop()), cfg, zap.NewNop())

	s1, _, err := sc.ScoreAll()
	if err != nil {
		t.Fatal(err)
	}
	s2, _, err := sc.ScoreAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(s1) != 1 || len(s2) != 1 {
		t.Fatalf("want exactly one pair per run, got %d and %d", len(s1), len(s2))
	}
	if s1[0].Score != s2[0].Score || s1[0].Beta != s2[0].Beta {
		t.Errorf("same inputs scored differently: %+v vs %+v", s1[0], s2[0])
	}
}

func TestSelectTop(t *testing.T) {
	mk := func(key string, corr, pval, hl, score float64) models.ScoredPair {
		return models.ScoredPair{
			Pair: models.NewPair(key[:1], key[2:]), Corr: corr, PValue: pval,
			HalfLife: hl, Score: score,
		}
	}
	scored := []models.ScoredPair{
		mk("A/B", 0.9, 0.01, 5, 10),          // passes
		mk("A/C", 0.4, 0.01, 5, 9),           // corr too low
		mk("A/D", 0.9, 0.20, 5, 8),           // pval too high
		mk("A/E", 0.9, 0.01, 40, 7),          // half-life too long
		mk("A/F", 0.9, 0.01, 1, 6),           // half-life too short
		mk("B/C", 0.8, 0.02, 8, 5),           // passes
		mk("B/D", math.NaN(), 0.01, 5, 4),    // corr undefined
		mk("B/E", 0.9, 0.01, math.Inf(1), 3), // no reversion
		mk("B/F", 0.7, 0.03, 10, 2),          // passes, but beyond top k
	}
	sel := config.SelectionConfig{
		MinCorr: 0.6, PValCointMax: 0.05,
		HalfLifeMinDays: 2, HalfLifeMaxDays: 20, TopK: 2,
	}
	got := SelectTop(scored, sel)
	if len(got) != 2 {
		t.Fatalf("selected %d, want 2", len(got))
	}
	if got[0].Pair.Key() != "A/B" || got[1].Pair.Key() != "B/C" {
		t.Errorf("selected %s, %s; want A/B, B/C", got[0].Pair.Key(), got[1].Pair.Key())
	}
}
