// Package marketdata normalizes raw end-of-day price tables into the
// canonical per-instrument series the statistics core consumes.
package marketdata

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrMissingColumn signals a table with neither adj_close nor close
	ErrMissingColumn = errors.New("price table missing required column")
	// ErrEmptySeries signals a table with no usable rows
	ErrEmptySeries = errors.New("price series is empty")
	// ErrUnsortedDates signals non-increasing or duplicate dates
	ErrUnsortedDates = errors.New("price series dates must be strictly increasing")
)

// Series is the canonical per-instrument price history. Optional
// columns are tracked explicitly so their absence is visible to
// callers rather than hidden behind zero values.
type Series struct {
	Symbol string
	Dates  []time.Time
	Close  []float64
	Adj    []float64 // NaN where unavailable
	Px     []float64 // row-wise coalesce of Adj over Close
	Volume []float64 // NaN where unavailable
	ExDiv  []bool

	HasAdj    bool
	HasVolume bool
	HasExDiv  bool
}

// Len returns the number of bars
func (s *Series) Len() int { return len(s.Dates) }

// LastVolume returns the most recent volume, or NaN when the series
// carries no volume column.
func (s *Series) LastVolume() float64 {
	if !s.HasVolume || s.Len() == 0 {
		return math.NaN()
	}
	return s.Volume[s.Len()-1]
}

// Coalesce fills Px with adj_close where finite, else close, per row.
// Adjustment history can have gaps, so the fallback is row-wise rather
// than a whole-column switch.
func (s *Series) Coalesce() error {
	if s.Len() == 0 {
		return ErrEmptySeries
	}
	if len(s.Close) == 0 && !s.HasAdj {
		return ErrMissingColumn
	}
	s.Px = make([]float64, s.Len())
	for i := range s.Px {
		switch {
		case s.HasAdj && !math.IsNaN(s.Adj[i]):
			s.Px[i] = s.Adj[i]
		case i < len(s.Close):
			s.Px[i] = s.Close[i]
		default:
			s.Px[i] = math.NaN()
		}
	}
	return nil
}

// ReconstructExDiv repairs a missing ex-dividend flag from the
// adjustment factor: a day-over-day relative change of the
// adj_close/close ratio beyond tolBp basis points marks an ex-date.
// Best effort; a no-op when the adjusted column is absent.
func (s *Series) ReconstructExDiv(tolBp int) {
	if s.HasExDiv || !s.HasAdj {
		return
	}
	if tolBp < 1 {
		tolBp = 1
	}
	s.ExDiv = make([]bool, s.Len())
	prev := math.NaN()
	for i := 0; i < s.Len(); i++ {
		factor := math.NaN()
		if s.Close[i] != 0 && !math.IsNaN(s.Adj[i]) {
			factor = s.Adj[i] / s.Close[i]
		}
		if !math.IsNaN(factor) && !math.IsNaN(prev) && prev != 0 {
			change := math.Abs(factor/prev - 1)
			if change*10000 > float64(tolBp) {
				s.ExDiv[i] = true
			}
		}
		if !math.IsNaN(factor) {
			prev = factor
		}
	}
	s.HasExDiv = true
}

// MaskIndices returns, for this leg, the set of bar offsets to exclude:
// every ex-dividend date plus daysAfter trailing bars.
func (s *Series) MaskIndices(daysAfter int) map[int]bool {
	out := make(map[int]bool)
	if !s.HasExDiv {
		return out
	}
	for i, ex := range s.ExDiv {
		if !ex {
			continue
		}
		for k := 0; k <= daysAfter; k++ {
			if i+k < s.Len() {
				out[i+k] = true
			}
		}
	}
	return out
}

// PairHistory is the inner join of two legs on date, the unit of work
// for scoring and decisions.
type PairHistory struct {
	Dates []time.Time
	Y     []float64 // leg A coalesced price
	X     []float64 // leg B coalesced price
	Mask  []bool    // true = excluded (ex-div window on either leg)
}

// Len returns the number of joined bars
func (h *PairHistory) Len() int { return len(h.Dates) }

// Overlap inner-joins two series on date. Rows where either coalesced
// price is NaN are dropped.
func Overlap(a, b *Series) *PairHistory {
	h := &PairHistory{}
	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		da, db := a.Dates[i], b.Dates[j]
		switch {
		case da.Before(db):
			i++
		case db.Before(da):
			j++
		default:
			if !math.IsNaN(a.Px[i]) && !math.IsNaN(b.Px[j]) {
				h.Dates = append(h.Dates, da)
				h.Y = append(h.Y, a.Px[i])
				h.X = append(h.X, b.Px[j])
				h.Mask = append(h.Mask, false)
			}
			i++
			j++
		}
	}
	return h
}

// ApplyExDivMask marks joined rows falling inside either leg's
// ex-dividend window (the flagged date plus daysAfter trailing bars).
func (h *PairHistory) ApplyExDivMask(a, b *Series, daysAfter int) {
	maskDates := make(map[time.Time]bool)
	collect := func(s *Series) {
		for idx := range s.MaskIndices(daysAfter) {
			maskDates[s.Dates[idx]] = true
		}
	}
	collect(a)
	collect(b)
	for i, d := range h.Dates {
		if maskDates[d] {
			h.Mask[i] = true
		}
	}
}

// Unmasked returns the surviving price columns and their dates
func (h *PairHistory) Unmasked() (dates []time.Time, y, x []float64) {
	for i := range h.Dates {
		if h.Mask[i] {
			continue
		}
		dates = append(dates, h.Dates[i])
		y = append(y, h.Y[i])
		x = append(x, h.X[i])
	}
	return dates, y, x
}

// JulianDay converts a date to its Julian day number, the engine's
// monotonic time index for cooldown and spacing arithmetic.
func JulianDay(t time.Time) int64 {
	t = t.UTC()
	y, m, d := t.Year(), int(t.Month()), t.Day()
	a := (14 - m) / 12
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return int64(d) + (153*int64(mm)+2)/5 + 365*int64(yy) + int64(yy)/4 - int64(yy)/100 + int64(yy)/400 - 32045
}
