package domain

import (
	"fmt"
	"sort"
	"time"
)

// FeatureTable is the read-only per-(date, code) bar store the engine
// replays. Bars are grouped by date; the date index is strictly ascending.
type FeatureTable struct {
	dates []time.Time
	days  map[time.Time]map[string]*Bar
}

// NewFeatureTable groups bars by date and validates the input contract.
// It fails before any simulation can start on: fewer than two distinct
// trading days, or duplicate (date, code) rows.
func NewFeatureTable(bars []*Bar) (*FeatureTable, error) {
	days := make(map[time.Time]map[string]*Bar)
	for _, b := range bars {
		d := b.Date
		if days[d] == nil {
			days[d] = make(map[string]*Bar)
		}
		if _, dup := days[d][b.Code]; dup {
			return nil, fmt.Errorf("duplicate feature row for %s on %s", b.Code, d.Format("2006-01-02"))
		}
		days[d][b.Code] = b
	}

	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) < 2 {
		return nil, fmt.Errorf("feature table covers %d trading day(s), need at least 2", len(dates))
	}

	return &FeatureTable{dates: dates, days: days}, nil
}

// Dates returns the ascending trading-day index.
func (t *FeatureTable) Dates() []time.Time { return t.dates }

// Day returns all bars for a trading day, keyed by code. Nil if the table
// has no rows for that day.
func (t *FeatureTable) Day(date time.Time) map[string]*Bar { return t.days[date] }

// Bar returns the bar for (date, code), or nil.
func (t *FeatureTable) Bar(date time.Time, code string) *Bar {
	day := t.days[date]
	if day == nil {
		return nil
	}
	return day[code]
}

// Slice returns the date index restricted to [start, end]. Zero bounds are
// open-ended.
func (t *FeatureTable) Slice(start, end time.Time) []time.Time {
	out := make([]time.Time, 0, len(t.dates))
	for _, d := range t.dates {
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}
