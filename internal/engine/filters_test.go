package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/config"
)

func gateConfig() config.MarketFilterConfig {
	return config.MarketFilterConfig{Enable: true, VIXMax: 30.0, MacroCoolOffHours: 1}
}

func TestNewMarketGateDisabled(t *testing.T) {
	if g := NewMarketGate(config.MarketFilterConfig{Enable: false}, "", "", zap.NewNop()); g != nil {
		t.Error("disabled config should return a nil gate")
	}
}

func TestVIXOK(t *testing.T) {
	dir := t.TempDir()
	calm := filepath.Join(dir, "vix_calm.csv")
	hot := filepath.Join(dir, "vix_hot.csv")
	os.WriteFile(calm, []byte("date,close\n2024-01-02,14.5\n2024-01-03,15.1\n"), 0o644)
	os.WriteFile(hot, []byte("date,close\n2024-01-02,14.5\n2024-01-03,41.0\n"), 0o644)

	if g := NewMarketGate(gateConfig(), calm, "", zap.NewNop()); !g.VIXOK() {
		t.Error("VIX below the ceiling should pass")
	}
	if g := NewMarketGate(gateConfig(), hot, "", zap.NewNop()); g.VIXOK() {
		t.Error("VIX above the ceiling should block")
	}
	// a missing file passes open
	if g := NewMarketGate(gateConfig(), filepath.Join(dir, "nope.csv"), "", zap.NewNop()); !g.VIXOK() {
		t.Error("missing VIX file should pass")
	}
}

func TestParseCalendar(t *testing.T) {
	in := `date,event
2024-03-12,US CPI
2024-03-20,FOMC Decision
2024-03-29,NYSE Holiday
`
	events, err := ParseCalendar(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[1].Event != "FOMC Decision" {
		t.Errorf("event = %q", events[1].Event)
	}

	if _, err := ParseCalendar(strings.NewReader("when,what\n2024-01-01,x\n")); err == nil {
		t.Error("missing columns should error")
	}
}

func TestParseCalendarTimeColumn(t *testing.T) {
	in := `date,event,time
2024-03-12,US CPI,08:30
2024-03-20,FOMC Decision,
`
	events, err := ParseCalendar(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	if !events[0].HasTime || events[0].EndHour != 8 || events[0].EndMin != 30 {
		t.Errorf("explicit time not parsed: %+v", events[0])
	}
	if events[1].HasTime {
		t.Error("blank time cell should fall back to the event-class default")
	}
}

func TestMacroOKExplicitTime(t *testing.T) {
	dir := t.TempDir()
	cal := filepath.Join(dir, "macro.csv")
	os.WriteFile(cal, []byte("date,event,time\n2024-03-12,Retail Sales,08:30\n"), 0o644)

	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tz database unavailable")
	}
	g := NewMarketGate(gateConfig(), "", cal, zap.NewNop())
	// 08:30 settle + 1h cool-off: blocked at 09:00, clear by 10:00
	if g.MacroOK(time.Date(2024, 3, 12, 9, 0, 0, 0, et)) {
		t.Error("inside explicit-time cool-off should block")
	}
	if !g.MacroOK(time.Date(2024, 3, 12, 10, 0, 0, 0, et)) {
		t.Error("past explicit-time cool-off should pass")
	}
}

func TestMacroOK(t *testing.T) {
	dir := t.TempDir()
	cal := filepath.Join(dir, "macro.csv")
	os.WriteFile(cal, []byte(`date,event
2024-03-12,US CPI
2024-03-29,NYSE Holiday
`), 0o644)

	g := NewMarketGate(gateConfig(), "", cal, zap.NewNop())

	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tz database unavailable")
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"cpi morning blocked", time.Date(2024, 3, 12, 9, 0, 0, 0, et), false},
		{"cpi inside cool-off", time.Date(2024, 3, 12, 11, 0, 0, 0, et), false},
		{"cpi after cool-off", time.Date(2024, 3, 12, 12, 0, 0, 0, et), true},
		{"holiday blocked all day", time.Date(2024, 3, 29, 15, 0, 0, 0, et), false},
		{"plain day passes", time.Date(2024, 3, 13, 10, 0, 0, 0, et), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.MacroOK(tt.now); got != tt.want {
				t.Errorf("MacroOK(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestMacroOKMissingCalendar(t *testing.T) {
	g := NewMarketGate(gateConfig(), "", filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop())
	if !g.MacroOK(time.Now()) {
		t.Error("missing calendar should pass open")
	}
}
