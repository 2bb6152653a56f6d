package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParseCSV reads a per-instrument price table with a header row. The
// date and close columns are required; adj_close, volume, and is_ex_div
// are optional. Rows must be strictly date-ascending.
func ParseCSV(r io.Reader, symbol string) (*Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateIdx, hasDate := col["date"]
	closeIdx, hasClose := col["close"]
	adjIdx, hasAdj := col["adj_close"]
	volIdx, hasVol := col["volume"]
	exIdx, hasEx := col["is_ex_div"]
	if !hasDate || (!hasClose && !hasAdj) {
		return nil, fmt.Errorf("%s: need date plus close or adj_close: %w", symbol, ErrMissingColumn)
	}

	s := &Series{Symbol: symbol, HasAdj: hasAdj, HasVolume: hasVol, HasExDiv: hasEx}
	var prev time.Time
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", symbol, line, err)
		}
		line++

		d, err := parseDate(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q", symbol, line, rec[dateIdx])
		}
		if len(s.Dates) > 0 && !d.After(prev) {
			return nil, fmt.Errorf("%s line %d: %w", symbol, line, ErrUnsortedDates)
		}
		prev = d

		s.Dates = append(s.Dates, d)
		if hasClose {
			s.Close = append(s.Close, parseFloat(rec[closeIdx]))
		} else {
			s.Close = append(s.Close, math.NaN())
		}
		if hasAdj {
			s.Adj = append(s.Adj, parseFloat(rec[adjIdx]))
		}
		if hasVol {
			s.Volume = append(s.Volume, parseFloat(rec[volIdx]))
		}
		if hasEx {
			s.ExDiv = append(s.ExDiv, parseBool(rec[exIdx]))
		}
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}
	if err := s.Coalesce(); err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return s, nil
}

// LoadCSV reads <root>/<SYMBOL>.csv
func LoadCSV(rootDir, symbol string) (*Series, error) {
	path := filepath.Join(rootDir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParseCSV(f, symbol)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006/01/02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "t":
		return true
	}
	return false
}
