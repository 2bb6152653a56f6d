package marketdata

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writePrices(t *testing.T, dir, symbol, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStoreGetCaches(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "AAA", "date,close\n2024-01-02,10\n2024-01-03,11\n")

	st := NewStore(dir, false, 1, zap.NewNop())
	s1, err := st.Get("AAA")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// delete the file; a warm cache must still serve the series
	if err := os.Remove(filepath.Join(dir, "AAA.csv")); err != nil {
		t.Fatal(err)
	}
	s2, err := st.Get("AAA")
	if err != nil {
		t.Fatalf("Get from cache: %v", err)
	}
	if s1 != s2 {
		t.Error("expected the cached series instance")
	}

	st.Flush()
	if _, err := st.Get("AAA"); err == nil {
		t.Error("expected error after flush with file gone")
	}
}

func TestStoreGetManySkipsFailures(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "AAA", "date,close\n2024-01-02,10\n")
	writePrices(t, dir, "BBB", "date,close\n2024-01-02,20\n")

	st := NewStore(dir, false, 1, zap.NewNop())
	out, failed := st.GetMany([]string{"AAA", "MISSING", "BBB"})
	if len(out) != 2 {
		t.Errorf("loaded %d series, want 2", len(out))
	}
	if len(failed) != 1 || failed[0] != "MISSING" {
		t.Errorf("failed = %v, want [MISSING]", failed)
	}
}

func TestStoreRepairsExDiv(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "DIV",
		"date,close,adj_close\n2024-01-02,100,95\n2024-01-03,100,95\n2024-01-04,100,90\n")

	st := NewStore(dir, true, 1, zap.NewNop())
	s, err := st.Get("DIV")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !s.HasExDiv || !s.ExDiv[2] {
		t.Errorf("expected reconstructed ex-div flag on the factor step, got %v", s.ExDiv)
	}
}
