package marketdata

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseCSVHappyPath(t *testing.T) {
	in := `date,close,adj_close,volume,is_ex_div
2024-01-02,100.0,99.0,1000,false
2024-01-03,101.0,,2000,false
2024-01-04,102.0,100.9,3000,true
`
	s, err := ParseCSV(strings.NewReader(in), "AAA")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	// adj where present, close where the adj cell is blank
	if s.Px[0] != 99.0 || s.Px[1] != 101.0 || s.Px[2] != 100.9 {
		t.Errorf("Px = %v, want [99 101 100.9]", s.Px)
	}
	if !s.HasExDiv || !s.ExDiv[2] || s.ExDiv[0] {
		t.Errorf("ExDiv = %v, want flag only on last row", s.ExDiv)
	}
	if got := s.LastVolume(); got != 3000 {
		t.Errorf("LastVolume = %v, want 3000", got)
	}
}

func TestParseCSVCloseOnly(t *testing.T) {
	in := "date,close\n2024-01-02,50\n2024-01-03,51\n"
	s, err := ParseCSV(strings.NewReader(in), "BBB")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if s.HasAdj || s.HasVolume || s.HasExDiv {
		t.Error("optional columns should be marked absent")
	}
	if math.IsNaN(s.Px[1]) || s.Px[1] != 51 {
		t.Errorf("Px[1] = %v, want 51", s.Px[1])
	}
	if v := s.LastVolume(); !math.IsNaN(v) {
		t.Errorf("LastVolume without column = %v, want NaN", v)
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"missing price column", "date,volume\n2024-01-02,100\n", ErrMissingColumn},
		{"no rows", "date,close\n", ErrEmptySeries},
		{"empty input", "", ErrEmptySeries},
		{"unsorted dates", "date,close\n2024-01-03,1\n2024-01-02,2\n", ErrUnsortedDates},
		{"duplicate dates", "date,close\n2024-01-03,1\n2024-01-03,2\n", ErrUnsortedDates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.in), "SYM")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseCSVBadCellsBecomeNaN(t *testing.T) {
	in := "date,close\n2024-01-02,abc\n2024-01-03,50\n"
	s, err := ParseCSV(strings.NewReader(in), "CCC")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if !math.IsNaN(s.Px[0]) {
		t.Errorf("Px[0] = %v, want NaN for unparseable cell", s.Px[0])
	}
}

func TestParseDateFormats(t *testing.T) {
	for _, in := range []string{"2024-03-05", "2024/03/05", "2024-03-05T00:00:00Z"} {
		d, err := parseDate(in)
		if err != nil {
			t.Errorf("parseDate(%q): %v", in, err)
			continue
		}
		if d.Year() != 2024 || d.Month() != 3 || d.Day() != 5 {
			t.Errorf("parseDate(%q) = %v", in, d)
		}
	}
	if _, err := parseDate("05.03.2024"); err == nil {
		t.Error("parseDate should reject unknown formats")
	}
}
