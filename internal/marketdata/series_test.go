package marketdata

import (
	"math"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func mkSeries(symbol string, startDay int, px ...float64) *Series {
	s := &Series{Symbol: symbol}
	for i, p := range px {
		s.Dates = append(s.Dates, day(startDay+i))
		s.Close = append(s.Close, p)
	}
	if err := s.Coalesce(); err != nil {
		panic(err)
	}
	return s
}

func TestOverlapInnerJoin(t *testing.T) {
	a := mkSeries("A", 1, 10, 11, 12, 13) // days 1-4
	b := mkSeries("B", 3, 20, 21, 22)     // days 3-5

	h := Overlap(a, b)
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (days 3 and 4)", h.Len())
	}
	if h.Y[0] != 12 || h.X[0] != 20 {
		t.Errorf("first joined row = (%v, %v), want (12, 20)", h.Y[0], h.X[0])
	}
}

func TestOverlapDropsNaNRows(t *testing.T) {
	a := mkSeries("A", 1, 10, math.NaN(), 12)
	b := mkSeries("B", 1, 20, 21, 22)

	h := Overlap(a, b)
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2 after dropping the NaN row", h.Len())
	}
}

func TestApplyExDivMaskEitherLeg(t *testing.T) {
	a := mkSeries("A", 1, 10, 11, 12, 13, 14)
	b := mkSeries("B", 1, 20, 21, 22, 23, 24)
	// leg A goes ex-div on day 3; day 4 is the trailing masked bar
	a.HasExDiv = true
	a.ExDiv = []bool{false, false, true, false, false}

	h := Overlap(a, b)
	h.ApplyExDivMask(a, b, 1)

	dates, y, _ := h.Unmasked()
	if len(y) != 3 {
		t.Fatalf("unmasked rows = %d, want 3", len(y))
	}
	for _, d := range dates {
		if d.Equal(day(3)) || d.Equal(day(4)) {
			t.Errorf("date %v should be masked", d)
		}
	}
}

func TestReconstructExDiv(t *testing.T) {
	s := &Series{
		Symbol: "DIV",
		Dates:  []time.Time{day(1), day(2), day(3), day(4)},
		Close:  []float64{100, 100, 100, 100},
		// adjustment factor steps down on day 3: an ex-date
		Adj:    []float64{95, 95, 90, 90},
		HasAdj: true,
	}
	if err := s.Coalesce(); err != nil {
		t.Fatal(err)
	}
	s.ReconstructExDiv(1)
	if !s.HasExDiv {
		t.Fatal("HasExDiv should be set after reconstruction")
	}
	want := []bool{false, false, true, false}
	for i := range want {
		if s.ExDiv[i] != want[i] {
			t.Errorf("ExDiv[%d] = %v, want %v", i, s.ExDiv[i], want[i])
		}
	}
}

func TestReconstructExDivNoAdj(t *testing.T) {
	s := mkSeries("X", 1, 10, 11)
	s.ReconstructExDiv(1)
	if s.HasExDiv {
		t.Error("reconstruction without adj column should be a no-op")
	}
}

func TestJulianDay(t *testing.T) {
	if jd := JulianDay(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)); jd != 2451545 {
		t.Errorf("JulianDay(2000-01-01) = %d, want 2451545", jd)
	}
	// consecutive calendar days differ by exactly one
	d1 := JulianDay(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))
	d2 := JulianDay(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	d3 := JulianDay(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if d2-d1 != 1 || d3-d2 != 1 {
		t.Errorf("leap-day sequence not contiguous: %d, %d, %d", d1, d2, d3)
	}
}
