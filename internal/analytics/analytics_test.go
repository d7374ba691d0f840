package analytics

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
	"github.com/couchcryptid/taxi-claims-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day, hour int) domain.Null[time.Time] {
	return domain.Some(time.Date(2015, 2, day, hour, 0, 0, 0, time.UTC))
}

// 2015-02-02 is a Monday.
func sampleTrips() []domain.Trip {
	return []domain.Trip{
		{DivisionCode: domain.Some("D01"), TotalFare: domain.Some(10.0), StartDatetime: ts(2, 8),
			PickupLatitude: domain.Some(1.30), PickupLongitude: domain.Some(103.80),
			DestinationLatitude: domain.Some(1.35), DestinationLongitude: domain.Some(103.85)},
		{DivisionCode: domain.Some("D01"), TotalFare: domain.Some(20.0), StartDatetime: ts(2, 9),
			PickupLatitude: domain.Some(1.30), PickupLongitude: domain.Some(103.80)},
		{DivisionCode: domain.Some("D02"), TotalFare: domain.Some(5.0), StartDatetime: ts(7, 22)},
		{DivisionCode: domain.Some("D02"), StartDatetime: domain.Some(time.Date(2015, 3, 1, 23, 30, 0, 0, time.UTC))},
		{DivisionCode: domain.Some("D03"), TotalFare: domain.Some(99.0)},
	}
}

func TestDerive(t *testing.T) {
	rides := Derive(sampleTrips())

	assert.Equal(t, time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC), rides[0].Month)
	assert.Equal(t, time.Monday, rides[0].Weekday)
	assert.Equal(t, 8, rides[0].Hour)
	assert.Equal(t, time.Sunday, rides[3].Weekday)
	assert.Equal(t, 23, rides[3].Hour)
	assert.False(t, rides[4].HasTime)
}

func TestBuild_AllRides(t *testing.T) {
	d := Build(Derive(sampleTrips()), AllRides())

	assert.Equal(t, 4, d.Overview.Trips, "ride without a start is excluded")
	assert.InDelta(t, 35.0, d.Overview.TotalCost, 1e-9)
	assert.InDelta(t, 35.0/3, d.Overview.AvgCost, 1e-9)

	require.Len(t, d.Monthly, 2)
	assert.Equal(t, MonthStat{Month: "2015-02-01", TotalFare: 35, Trips: 3, AvgFare: 35.0 / 3}, d.Monthly[0])
	assert.Equal(t, MonthStat{Month: "2015-03-01", Trips: 1}, d.Monthly[1])

	require.Len(t, d.WeekdayHour, 7*24)
	assert.Equal(t, WeekdayHourStat{Weekday: "Monday", Hour: 8, Rides: 1}, d.WeekdayHour[8])
	assert.Equal(t, WeekdayHourStat{Weekday: "Sunday", Hour: 23, Rides: 1}, d.WeekdayHour[6*24+23])

	require.Len(t, d.ByWeekday, 7)
	assert.Equal(t, WeekdayStat{Weekday: "Monday", Rides: 2}, d.ByWeekday[0])
	assert.Equal(t, WeekdayStat{Weekday: "Saturday", Rides: 1}, d.ByWeekday[5])

	require.Len(t, d.Divisions, 2)
	assert.Equal(t, "D01", d.Divisions[0].Division)
	assert.Equal(t, 2, d.Divisions[0].Trips)
	assert.InDelta(t, 30.0, d.Divisions[0].TotalCost, 1e-9)
	assert.InDelta(t, 7.86, d.Divisions[0].MeanKm, 0.05)
	assert.Equal(t, DivisionStat{Division: "D02", Trips: 1, TotalCost: 5}, d.Divisions[1])

	require.Len(t, d.Pickups, 1)
	assert.Equal(t, PointCount{Latitude: 1.30, Longitude: 103.80, Count: 2}, d.Pickups[0])
	require.Len(t, d.Dropoffs, 1)
	assert.Equal(t, 1, d.Dropoffs[0].Count)
}

func TestBuild_Filtered(t *testing.T) {
	rides := Derive(sampleTrips())

	f := AllRides()
	f.HourMin, f.HourMax = 9, 23
	f.Divisions = []string{"D01"}
	d := Build(rides, f)
	assert.Equal(t, 1, d.Overview.Trips)
	assert.InDelta(t, 20.0, d.Overview.TotalCost, 1e-9)

	f = AllRides()
	f.From = time.Date(2015, 2, 3, 0, 0, 0, 0, time.UTC)
	f.To = time.Date(2015, 2, 28, 0, 0, 0, 0, time.UTC)
	d = Build(rides, f)
	assert.Equal(t, 1, d.Overview.Trips)

	f = AllRides()
	f.Weekdays = []time.Weekday{time.Sunday}
	d = Build(rides, f)
	assert.Equal(t, 1, d.Overview.Trips)

	// The weekday by division breakdown ignores the filter.
	require.Len(t, d.WeekdayDivisions, 7*3)
	assert.Equal(t, WeekdayDivisionStat{Weekday: "Monday", Division: "D01", Rides: 2}, d.WeekdayDivisions[0])
}

func TestTopDivisions(t *testing.T) {
	rides := Derive(sampleTrips())
	assert.Equal(t, []string{"D01", "D02", "D03"}, TopDivisions(rides, 10))
	assert.Equal(t, []string{"D01"}, TopDivisions(rides, 1))
}

func TestStraightLineKm(t *testing.T) {
	_, ok := StraightLineKm(Ride{})
	assert.False(t, ok)

	km, ok := StraightLineKm(Derive(sampleTrips())[0])
	require.True(t, ok)
	assert.Greater(t, km, 7.0)
	assert.Less(t, km, 8.5)
}

func TestParseFilter(t *testing.T) {
	q := url.Values{
		"from":     {"2015-02-01"},
		"to":       {"2015-02-28"},
		"hour_min": {"7"},
		"hour_max": {"19"},
		"division": {"D01", " D02 ", ""},
		"weekday":  {"monday", "Friday"},
	}

	f, err := ParseFilter(q)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2015, 2, 28, 0, 0, 0, 0, time.UTC), f.To)
	assert.Equal(t, 7, f.HourMin)
	assert.Equal(t, 19, f.HourMax)
	assert.Equal(t, []string{"D01", "D02"}, f.Divisions)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, f.Weekdays)

	f, err = ParseFilter(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, AllRides(), f)
}

func TestParseFilter_Invalid(t *testing.T) {
	for _, q := range []url.Values{
		{"from": {"01/02/2015"}},
		{"to": {"tomorrow"}},
		{"hour_min": {"-1"}},
		{"hour_max": {"24"}},
		{"hour_min": {"10"}, "hour_max": {"9"}},
		{"from": {"2015-03-01"}, "to": {"2015-02-01"}},
		{"weekday": {"Funday"}},
	} {
		_, err := ParseFilter(q)
		assert.Error(t, err, q.Encode())
	}
}

func TestStore(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	s := NewStore(metrics)
	require.Error(t, s.CheckReadiness(context.Background()))

	tbl, err := domain.NewTable(
		[]string{domain.ColDivisionCode, domain.ColTotalFare, domain.ColStartDatetime},
		[][]domain.Value{
			{domain.Text("D01"), domain.Text("15.5"), domain.Text("2015-02-01 08:00:00")},
			{domain.Text("D02"), domain.Text("4.0"), domain.Missing()},
		},
	)
	require.NoError(t, err)
	s.Replace(tbl)

	require.NoError(t, s.CheckReadiness(context.Background()))
	d := s.Dashboard(AllRides())
	assert.Equal(t, 1, d.Overview.Trips)
	assert.InDelta(t, 15.5, d.Overview.TotalCost, 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.DatasetRows), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DashboardQueries), 0)
}
