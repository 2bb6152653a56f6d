package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pairscope/statarb-cli/internal/config"
	"github.com/pairscope/statarb-cli/internal/marketdata"
)

// Macro events settle at different times of day. Times are eastern,
// matched against the event name case-insensitively.
var macroEventEnds = map[string]struct{ hour, min int }{
	"cpi":  {10, 30},
	"nfp":  {10, 30},
	"fomc": {16, 30},
	"boc":  {11, 30},
}

const defaultEventEndHour = 16

// CalendarEvent is one row of the macro calendar. EndHour/EndMin are
// only meaningful when HasTime is set; otherwise the settle time comes
// from the event class.
type CalendarEvent struct {
	Date    time.Time
	Event   string
	EndHour int
	EndMin  int
	HasTime bool
}

// MarketGate blocks new entries during hostile market-wide conditions:
// elevated VIX and macro event blackout windows. Missing inputs pass
// open, since a stale calendar should not silence the whole batch, but
// the pass is logged.
type MarketGate struct {
	cfg      config.MarketFilterConfig
	vixPath  string
	calPath  string
	logger   *zap.Logger
	eastern  *time.Location
	calendar []CalendarEvent
	calOnce  bool
}

// NewMarketGate builds a gate from the market_filters config block.
// Returns nil when the gate is disabled so callers can skip it cheaply.
func NewMarketGate(cfg config.MarketFilterConfig, vixPath, calPath string, logger *zap.Logger) *MarketGate {
	if !cfg.Enable {
		return nil
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("ET", -5*3600)
	}
	return &MarketGate{
		cfg:     cfg,
		vixPath: vixPath,
		calPath: calPath,
		logger:  logger.With(zap.String("component", "market_gate")),
		eastern: loc,
	}
}

// VIXOK returns true when the most recent VIX close is at or below the
// configured ceiling. A missing or unreadable VIX file passes.
func (g *MarketGate) VIXOK() bool {
	if g.cfg.VIXMax <= 0 || g.vixPath == "" {
		return true
	}
	f, err := os.Open(g.vixPath)
	if err != nil {
		g.logger.Warn("VIX file unavailable, passing filter", zap.Error(err))
		return true
	}
	defer f.Close()
	series, err := marketdata.ParseCSV(f, "VIX")
	if err != nil {
		g.logger.Warn("VIX file unreadable, passing filter", zap.Error(err))
		return true
	}
	last := series.Px[series.Len()-1]
	if last > g.cfg.VIXMax {
		g.logger.Info("VIX above ceiling",
			zap.Float64("vix", last),
			zap.Float64("max", g.cfg.VIXMax))
		return false
	}
	return true
}

// MacroOK returns true when now falls outside every macro blackout
// window. An event blocks from midnight eastern through its settle time
// plus the configured cool-off; an NYSE holiday blocks the whole day.
func (g *MarketGate) MacroOK(now time.Time) bool {
	events, err := g.loadCalendar()
	if err != nil {
		g.logger.Warn("macro calendar unavailable, passing filter", zap.Error(err))
		return true
	}
	nowET := now.In(g.eastern)
	for _, ev := range events {
		if !sameDay(ev.Date, nowET) {
			continue
		}
		name := strings.ToLower(ev.Event)
		if strings.Contains(name, "holiday") {
			g.logger.Info("market holiday, blocking entries", zap.String("event", ev.Event))
			return false
		}
		end := g.eventEnd(ev, name)
		until := end.Add(time.Duration(g.cfg.MacroCoolOffHours) * time.Hour)
		if nowET.Before(until) {
			g.logger.Info("macro event blackout",
				zap.String("event", ev.Event),
				zap.Time("until", until))
			return false
		}
	}
	return true
}

func (g *MarketGate) eventEnd(ev CalendarEvent, lowered string) time.Time {
	hour, min := defaultEventEndHour, 0
	if ev.HasTime {
		hour, min = ev.EndHour, ev.EndMin
	} else {
		for key, at := range macroEventEnds {
			if strings.Contains(lowered, key) {
				hour, min = at.hour, at.min
				break
			}
		}
	}
	return time.Date(ev.Date.Year(), ev.Date.Month(), ev.Date.Day(), hour, min, 0, 0, g.eastern)
}

func (g *MarketGate) loadCalendar() ([]CalendarEvent, error) {
	if g.calOnce {
		return g.calendar, nil
	}
	if g.calPath == "" {
		return nil, errors.New("no macro calendar configured")
	}
	f, err := os.Open(g.calPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	events, err := ParseCalendar(f)
	if err != nil {
		return nil, err
	}
	g.calendar = events
	g.calOnce = true
	return events, nil
}

// ParseCalendar reads a macro calendar CSV with date and event columns.
// An optional time column (HH:MM, eastern) overrides the event-class
// settle time for that row.
func ParseCalendar(r io.Reader) ([]CalendarEvent, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read calendar header: %w", err)
	}
	dateIdx, eventIdx, timeIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date":
			dateIdx = i
		case "event":
			eventIdx = i
		case "time":
			timeIdx = i
		}
	}
	if dateIdx < 0 || eventIdx < 0 {
		return nil, errors.New("calendar requires date and event columns")
	}
	var events []CalendarEvent
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read calendar row: %w", err)
		}
		d, err := time.Parse("2006-01-02", strings.TrimSpace(row[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("calendar date %q: %w", row[dateIdx], err)
		}
		ev := CalendarEvent{Date: d, Event: strings.TrimSpace(row[eventIdx])}
		if timeIdx >= 0 && timeIdx < len(row) {
			if at, err := time.Parse("15:04", strings.TrimSpace(row[timeIdx])); err == nil {
				ev.EndHour, ev.EndMin = at.Hour(), at.Minute()
				ev.HasTime = true
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
