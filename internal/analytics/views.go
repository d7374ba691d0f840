package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/umahmood/haversine"
)

// topDivisions is how many divisions the weekday breakdown covers.
const topDivisions = 10

// Dashboard is every view for one filter.
type Dashboard struct {
	Overview         Overview              `json:"overview"`
	Monthly          []MonthStat           `json:"monthly"`
	WeekdayHour      []WeekdayHourStat     `json:"weekday_hour"`
	ByWeekday        []WeekdayStat         `json:"by_weekday"`
	Divisions        []DivisionStat        `json:"divisions"`
	WeekdayDivisions []WeekdayDivisionStat `json:"weekday_divisions"`
	Pickups          []PointCount          `json:"pickups"`
	Dropoffs         []PointCount          `json:"dropoffs"`
}

type Overview struct {
	Trips     int     `json:"trips"`
	TotalCost float64 `json:"total_cost"`
	AvgCost   float64 `json:"avg_cost"`
}

type MonthStat struct {
	Month     string  `json:"month"`
	TotalFare float64 `json:"total_fare"`
	Trips     int     `json:"trips"`
	AvgFare   float64 `json:"avg_fare"`
}

type WeekdayHourStat struct {
	Weekday string `json:"weekday"`
	Hour    int    `json:"hour"`
	Rides   int    `json:"rides"`
}

type WeekdayStat struct {
	Weekday string `json:"weekday"`
	Rides   int    `json:"rides"`
}

// DivisionStat counts trips with a known total_fare, matching how the cost
// columns are aggregated. MeanKm is the mean straight-line pickup to drop-off
// distance over trips with all four coordinates.
type DivisionStat struct {
	Division  string  `json:"division"`
	Trips     int     `json:"trips"`
	TotalCost float64 `json:"total_cost"`
	MeanKm    float64 `json:"mean_km"`
}

type WeekdayDivisionStat struct {
	Weekday  string `json:"weekday"`
	Division string `json:"division"`
	Rides    int    `json:"rides"`
}

type PointCount struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
}

// Build computes every view. The weekday by division breakdown always covers
// all rides so its top divisions do not shift while the filter narrows.
func Build(all []Ride, f Filter) Dashboard {
	rides := Apply(all, f)
	return Dashboard{
		Overview:         overview(rides),
		Monthly:          monthly(rides),
		WeekdayHour:      weekdayHour(rides),
		ByWeekday:        byWeekday(rides),
		Divisions:        divisions(rides),
		WeekdayDivisions: weekdayDivisions(all, TopDivisions(all, topDivisions)),
		Pickups:          pickups(rides),
		Dropoffs:         dropoffs(rides),
	}
}

func overview(rides []Ride) Overview {
	o := Overview{Trips: len(rides)}
	fares := 0
	for _, r := range rides {
		if r.TotalFare.Valid {
			o.TotalCost += r.TotalFare.V
			fares++
		}
	}
	if fares > 0 {
		o.AvgCost = o.TotalCost / float64(fares)
	}
	return o
}

func monthly(rides []Ride) []MonthStat {
	type acc struct {
		sum          float64
		trips, fares int
	}
	byMonth := make(map[time.Time]*acc)
	for _, r := range rides {
		a, ok := byMonth[r.Month]
		if !ok {
			a = &acc{}
			byMonth[r.Month] = a
		}
		a.trips++
		if r.TotalFare.Valid {
			a.sum += r.TotalFare.V
			a.fares++
		}
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	slices.SortFunc(months, func(a, b time.Time) int { return a.Compare(b) })

	out := make([]MonthStat, 0, len(months))
	for _, m := range months {
		a := byMonth[m]
		s := MonthStat{Month: m.Format(dateLayout), TotalFare: a.sum, Trips: a.trips}
		if a.fares > 0 {
			s.AvgFare = a.sum / float64(a.fares)
		}
		out = append(out, s)
	}
	return out
}

// weekdayHour returns the full Monday..Sunday by 0..23 grid, zeros included.
func weekdayHour(rides []Ride) []WeekdayHourStat {
	var grid [7][24]int
	for _, r := range rides {
		grid[r.Weekday][r.Hour]++
	}
	out := make([]WeekdayHourStat, 0, 7*24)
	for _, wd := range WeekdayOrder {
		for h := 0; h < 24; h++ {
			out = append(out, WeekdayHourStat{Weekday: wd.String(), Hour: h, Rides: grid[wd][h]})
		}
	}
	return out
}

func byWeekday(rides []Ride) []WeekdayStat {
	var counts [7]int
	for _, r := range rides {
		counts[r.Weekday]++
	}
	out := make([]WeekdayStat, 0, 7)
	for _, wd := range WeekdayOrder {
		out = append(out, WeekdayStat{Weekday: wd.String(), Rides: counts[wd]})
	}
	return out
}

func divisions(rides []Ride) []DivisionStat {
	type acc struct {
		DivisionStat
		kmSum float64
		kmN   int
	}
	byDiv := make(map[string]*acc)
	for _, r := range rides {
		if !r.DivisionCode.Valid {
			continue
		}
		a, ok := byDiv[r.DivisionCode.V]
		if !ok {
			a = &acc{DivisionStat: DivisionStat{Division: r.DivisionCode.V}}
			byDiv[r.DivisionCode.V] = a
		}
		if r.TotalFare.Valid {
			a.Trips++
			a.TotalCost += r.TotalFare.V
		}
		if km, ok := StraightLineKm(r); ok {
			a.kmSum += km
			a.kmN++
		}
	}

	out := make([]DivisionStat, 0, len(byDiv))
	for _, a := range byDiv {
		if a.kmN > 0 {
			a.MeanKm = a.kmSum / float64(a.kmN)
		}
		out = append(out, a.DivisionStat)
	}
	slices.SortFunc(out, func(a, b DivisionStat) int {
		if c := cmp.Compare(b.Trips, a.Trips); c != 0 {
			return c
		}
		return cmp.Compare(a.Division, b.Division)
	})
	return out
}

// StraightLineKm is the haversine distance between pickup and drop-off.
func StraightLineKm(r Ride) (float64, bool) {
	if !r.PickupLatitude.Valid || !r.PickupLongitude.Valid ||
		!r.DestinationLatitude.Valid || !r.DestinationLongitude.Valid {
		return 0, false
	}
	_, km := haversine.Distance(
		haversine.Coord{Lat: r.PickupLatitude.V, Lon: r.PickupLongitude.V},
		haversine.Coord{Lat: r.DestinationLatitude.V, Lon: r.DestinationLongitude.V},
	)
	return km, true
}

// TopDivisions ranks divisions by ride count, ties by code, and returns at most n.
func TopDivisions(rides []Ride, n int) []string {
	counts := make(map[string]int)
	for _, r := range rides {
		if r.DivisionCode.Valid {
			counts[r.DivisionCode.V]++
		}
	}
	codes := make([]string, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	slices.SortFunc(codes, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(codes) > n {
		codes = codes[:n]
	}
	return codes
}

// weekdayDivisions counts rides per weekday for each of the given divisions,
// zeros included.
func weekdayDivisions(rides []Ride, divs []string) []WeekdayDivisionStat {
	type key struct {
		wd  time.Weekday
		div string
	}
	counts := make(map[key]int)
	for _, r := range rides {
		if r.HasTime && r.DivisionCode.Valid {
			counts[key{r.Weekday, r.DivisionCode.V}]++
		}
	}
	out := make([]WeekdayDivisionStat, 0, 7*len(divs))
	for _, wd := range WeekdayOrder {
		for _, d := range divs {
			out = append(out, WeekdayDivisionStat{Weekday: wd.String(), Division: d, Rides: counts[key{wd, d}]})
		}
	}
	return out
}

func pickups(rides []Ride) []PointCount {
	return countPoints(rides, func(r Ride) (float64, float64, bool) {
		return r.PickupLatitude.V, r.PickupLongitude.V, r.PickupLatitude.Valid && r.PickupLongitude.Valid
	})
}

func dropoffs(rides []Ride) []PointCount {
	return countPoints(rides, func(r Ride) (float64, float64, bool) {
		return r.DestinationLatitude.V, r.DestinationLongitude.V, r.DestinationLatitude.Valid && r.DestinationLongitude.Valid
	})
}

// countPoints groups rides by exact coordinate, most visited first.
func countPoints(rides []Ride, point func(Ride) (float64, float64, bool)) []PointCount {
	type key struct{ lat, lon float64 }
	counts := make(map[key]int)
	for _, r := range rides {
		if lat, lon, ok := point(r); ok {
			counts[key{lat, lon}]++
		}
	}
	out := make([]PointCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, PointCount{Latitude: k.lat, Longitude: k.lon, Count: n})
	}
	slices.SortFunc(out, func(a, b PointCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Latitude, b.Latitude); c != 0 {
			return c
		}
		return cmp.Compare(a.Longitude, b.Longitude)
	})
	return out
}
