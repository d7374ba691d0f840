// Package analytics derives the dashboard's time fields from consolidated trips
// and computes the filtered aggregations the dashboard renders.
package analytics

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
)

const dateLayout = "2006-01-02"

// WeekdayOrder is the display order of day_of_week, Monday first.
var WeekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Ride is a trip with the fields derived from its start_datetime. HasTime is
// false when the start is missing; such rides are left out of every view.
type Ride struct {
	domain.Trip
	Month   time.Time
	Weekday time.Weekday
	Hour    int
	HasTime bool
}

// Derive computes month (first of month), day_of_week and hour for each trip.
func Derive(trips []domain.Trip) []Ride {
	rides := make([]Ride, len(trips))
	for i, t := range trips {
		rides[i] = Ride{Trip: t}
		if !t.StartDatetime.Valid {
			continue
		}
		start := t.StartDatetime.V
		rides[i].Month = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
		rides[i].Weekday = start.Weekday()
		rides[i].Hour = start.Hour()
		rides[i].HasTime = true
	}
	return rides
}

// Filter narrows the rides a dashboard view covers. Zero From/To leave the
// range open; empty Divisions or Weekdays select all.
type Filter struct {
	From      time.Time
	To        time.Time
	HourMin   int
	HourMax   int
	Divisions []string
	Weekdays  []time.Weekday
}

// AllRides is the unrestricted filter.
func AllRides() Filter {
	return Filter{HourMin: 0, HourMax: 23}
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Ride) bool {
	if !r.HasTime {
		return false
	}
	day := time.Date(r.StartDatetime.V.Year(), r.StartDatetime.V.Month(), r.StartDatetime.V.Day(), 0, 0, 0, 0, time.UTC)
	if !f.From.IsZero() && day.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && day.After(f.To) {
		return false
	}
	if r.Hour < f.HourMin || r.Hour > f.HourMax {
		return false
	}
	if len(f.Divisions) > 0 && (!r.DivisionCode.Valid || !slices.Contains(f.Divisions, r.DivisionCode.V)) {
		return false
	}
	if len(f.Weekdays) > 0 && !slices.Contains(f.Weekdays, r.Weekday) {
		return false
	}
	return true
}

// Apply returns the rides matching f, in input order.
func Apply(rides []Ride, f Filter) []Ride {
	out := make([]Ride, 0, len(rides))
	for _, r := range rides {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParseFilter reads from, to (YYYY-MM-DD), hour_min, hour_max and the
// repeatable division and weekday query parameters.
func ParseFilter(q url.Values) (Filter, error) {
	f := AllRides()
	var err error

	if s := q.Get("from"); s != "" {
		if f.From, err = time.Parse(dateLayout, s); err != nil {
			return f, fmt.Errorf("invalid from: %w", err)
		}
	}
	if s := q.Get("to"); s != "" {
		if f.To, err = time.Parse(dateLayout, s); err != nil {
			return f, fmt.Errorf("invalid to: %w", err)
		}
	}
	if f.HourMin, err = parseHour(q.Get("hour_min"), 0); err != nil {
		return f, fmt.Errorf("invalid hour_min: %w", err)
	}
	if f.HourMax, err = parseHour(q.Get("hour_max"), 23); err != nil {
		return f, fmt.Errorf("invalid hour_max: %w", err)
	}
	if f.HourMin > f.HourMax {
		return f, fmt.Errorf("hour_min %d is after hour_max %d", f.HourMin, f.HourMax)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, fmt.Errorf("from %s is after to %s", q.Get("from"), q.Get("to"))
	}

	for _, d := range q["division"] {
		if d = strings.TrimSpace(d); d != "" {
			f.Divisions = append(f.Divisions, d)
		}
	}
	for _, s := range q["weekday"] {
		wd, err := ParseWeekday(s)
		if err != nil {
			return f, err
		}
		f.Weekdays = append(f.Weekdays, wd)
	}
	return f, nil
}

// ParseWeekday accepts a full English day name in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	for _, wd := range WeekdayOrder {
		if strings.EqualFold(strings.TrimSpace(s), wd.String()) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

func parseHour(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	h, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d out of range 0-23", h)
	}
	return h, nil
}
