package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Null is a typed optional field. The zero Null is absent and marshals to JSON null.
type Null[T any] struct {
	V     T
	Valid bool
}

// Some wraps a present value.
func Some[T any](v T) Null[T] { return Null[T]{V: v, Valid: true} }

func (n Null[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.V)
}

func (n *Null[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Null[T]{}
		return nil
	}
	if err := json.Unmarshal(data, &n.V); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Trip is the canonical trip record of the consolidated dataset.
type Trip struct {
	CardNo               Null[string]    `json:"card_no"`
	DivisionCode         Null[string]    `json:"division_code"`
	PickupLatitude       Null[float64]   `json:"pickup_latitude"`
	PickupLongitude      Null[float64]   `json:"pickup_longtitude"`
	DestinationLatitude  Null[float64]   `json:"destination_latitude"`
	DestinationLongitude Null[float64]   `json:"destination_longtitude"`
	DistanceRun          Null[float64]   `json:"distance_run"`
	TaxiFare             Null[float64]   `json:"taxi_fare"`
	Admin                Null[float64]   `json:"admin"`
	TotalFare            Null[float64]   `json:"total_fare"`
	StartDatetime        Null[time.Time] `json:"start_datetime"`
	EndDatetime          Null[time.Time] `json:"end_datetime"`
	TripDurationMin      Null[float64]   `json:"trip_duration_min"`
}

// TripFromRow reads row i of a cleaned table into a Trip. Cells that cannot be
// read as the field's type are absent.
func TripFromRow(t *Table, i int) Trip {
	return Trip{
		CardNo:               textField(t.Get(i, ColCardNo)),
		DivisionCode:         textField(t.Get(i, ColDivisionCode)),
		PickupLatitude:       floatField(t.Get(i, ColPickupLatitude)),
		PickupLongitude:      floatField(t.Get(i, ColPickupLongitude)),
		DestinationLatitude:  floatField(t.Get(i, ColDestinationLatitude)),
		DestinationLongitude: floatField(t.Get(i, ColDestinationLongitude)),
		DistanceRun:          floatField(t.Get(i, ColDistanceRun)),
		TaxiFare:             floatField(t.Get(i, ColTaxiFare)),
		Admin:                floatField(t.Get(i, ColAdmin)),
		TotalFare:            floatField(t.Get(i, ColTotalFare)),
		StartDatetime:        timeField(t.Get(i, ColStartDatetime)),
		EndDatetime:          timeField(t.Get(i, ColEndDatetime)),
		TripDurationMin:      floatField(t.Get(i, ColTripDurationMin)),
	}
}

// TripsFromTable converts every row of a cleaned table.
func TripsFromTable(t *Table) []Trip {
	trips := make([]Trip, t.Len())
	for i := range trips {
		trips[i] = TripFromRow(t, i)
	}
	return trips
}

func textField(v Value) Null[string] {
	if v.IsMissing() {
		return Null[string]{}
	}
	return Some(v.Format())
}

func floatField(v Value) Null[float64] {
	f, err := v.Float()
	if err != nil {
		return Null[float64]{}
	}
	return Some(f)
}

// timeField accepts parsed timestamps and timestamp text read back from the
// consolidated CSV.
func timeField(v Value) Null[time.Time] {
	if ts, ok := v.Time(); ok {
		return Some(ts)
	}
	if v.kind == KindText {
		if ts, err := time.Parse(TimestampLayout, strings.TrimSpace(v.text)); err == nil {
			return Some(ts)
		}
	}
	return Null[time.Time]{}
}

// TripIDs returns a deterministic ID per row, hashed from the contracted
// fields. Identical rows are genuine repeat claims, so the n-th repeat is
// salted with n and each keeps its own key. Republishing the same dataset
// yields the same IDs.
func TripIDs(t *Table) []string {
	ids := make([]string, t.Len())
	seen := make(map[string]int, t.Len())
	var b strings.Builder
	for i := range ids {
		b.Reset()
		for _, c := range ContractColumns {
			b.WriteString(t.Get(i, c).Format())
			b.WriteByte('|')
		}
		content := b.String()
		n := seen[content]
		seen[content] = n + 1

		hash := sha256.Sum256([]byte(content + strconv.Itoa(n)))
		ids[i] = "trip-" + hex.EncodeToString(hash[:8])
	}
	return ids
}
