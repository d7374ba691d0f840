package domain

import (
	"fmt"
	"strings"
	"time"
)

// IntervalSeparator splits the start and end halves of a compound field.
const IntervalSeparator = " TO "

// Day-first date layouts, tried in order. Single-digit day/month components
// also accept two digits, so "2/1/2006" covers "05/03/2015" and "5/3/2015".
var dateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
	"2-Jan-2006",
	"2 Jan 2006",
	"2-Jan-06",
	"2 January 2006",
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"1504",
}

// DurationPolicy decides what happens to trips whose end precedes their start.
type DurationPolicy string

const (
	// DurationFlag keeps the negative duration and counts it in the report.
	DurationFlag DurationPolicy = "flag"
	// DurationClear sets the duration to missing and keeps the row.
	DurationClear DurationPolicy = "clear"
	// DurationDrop removes the row.
	DurationDrop DurationPolicy = "drop"
)

// ParseDurationPolicy validates a policy name.
func ParseDurationPolicy(s string) (DurationPolicy, error) {
	switch p := DurationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DurationFlag, DurationClear, DurationDrop:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duration policy %q", s)
	}
}

// IntervalStats counts what the interval parser could not resolve.
type IntervalStats struct {
	UnparsedStart     int
	UnparsedEnd       int
	NegativeDurations int
}

// SplitInterval splits "<start> TO <end>". Without a separator the whole value
// is the start and ok is false. Parts after a second separator are ignored.
func SplitInterval(s string) (start, end string, ok bool) {
	parts := strings.SplitN(s, IntervalSeparator, 3)
	if len(parts) == 1 {
		return strings.TrimSpace(parts[0]), "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// ParseDayFirst combines a day-first date and a clock time into one timestamp.
func ParseDayFirst(date, clock string) (time.Time, bool) {
	d, ok := parseWithLayouts(strings.TrimSpace(date), dateLayouts)
	if !ok {
		return time.Time{}, false
	}
	c, ok := parseWithLayouts(strings.ToUpper(strings.TrimSpace(clock)), clockLayouts)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC), true
}

func parseWithLayouts(s string, layouts []string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseBounds resolves the start and end timestamps of one row.
func parseBounds(date, clock Value) (start, end Value) {
	if date.kind != KindText || clock.kind != KindText {
		return Missing(), Missing()
	}
	d0, d1, dok := SplitInterval(date.text)
	c0, c1, cok := SplitInterval(clock.text)

	start, end = Missing(), Missing()
	if ts, ok := ParseDayFirst(d0, c0); ok {
		start = Timestamp(ts)
	}
	if dok && cok {
		if ts, ok := ParseDayFirst(d1, c1); ok {
			end = Timestamp(ts)
		}
	}
	return start, end
}

// ParseIntervals replaces travel_date and travel_time with start_datetime,
// end_datetime and trip_duration_min. Unparseable halves become missing; the
// row is kept. Durations are (end - start) in minutes and may be negative.
func ParseIntervals(t *Table) (IntervalStats, error) {
	var stats IntervalStats
	if err := RequireColumns(t, ColTravelDate, ColTravelTime); err != nil {
		return stats, err
	}

	n := t.Len()
	starts := make([]Value, n)
	ends := make([]Value, n)
	durations := make([]Value, n)
	for i := 0; i < n; i++ {
		start, end := parseBounds(t.Get(i, ColTravelDate), t.Get(i, ColTravelTime))
		starts[i], ends[i] = start, end
		if start.IsMissing() {
			stats.UnparsedStart++
		}
		if end.IsMissing() {
			stats.UnparsedEnd++
		}
		if start.IsMissing() || end.IsMissing() {
			continue
		}
		minutes := end.ts.Sub(start.ts).Minutes()
		if minutes < 0 {
			stats.NegativeDurations++
		}
		durations[i] = Number(minutes)
	}

	for _, col := range []struct {
		name   string
		values []Value
	}{
		{ColStartDatetime, starts},
		{ColEndDatetime, ends},
		{ColTripDurationMin, durations},
	} {
		if err := t.SetColumn(col.name, col.values); err != nil {
			return stats, err
		}
	}
	t.DropColumns(ColTravelDate, ColTravelTime)
	return stats, nil
}

// ApplyDurationPolicy handles rows with a negative trip_duration_min and
// returns how many rows were affected.
func ApplyDurationPolicy(t *Table, policy DurationPolicy) (int, error) {
	j, ok := t.index[ColTripDurationMin]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, ColTripDurationMin)
	}
	negative := func(row []Value) bool {
		return row[j].kind == KindNumber && row[j].num < 0
	}

	switch policy {
	case DurationDrop:
		return t.Filter(func(row []Value) bool { return !negative(row) }), nil
	case DurationClear:
		n := 0
		for _, row := range t.rows {
			if negative(row) {
				row[j] = Missing()
				n++
			}
		}
		return n, nil
	default:
		n := 0
		for _, row := range t.rows {
			if negative(row) {
				n++
			}
		}
		return n, nil
	}
}
