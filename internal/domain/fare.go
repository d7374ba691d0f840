package domain

// ComputeTotalFare appends total_fare = taxi_fare + admin. A missing or
// non-numeric component yields a missing total; the number of non-numeric
// components is returned as invalid.
func ComputeTotalFare(t *Table) (invalid int, err error) {
	if err := RequireColumns(t, ColTaxiFare, ColAdmin); err != nil {
		return 0, err
	}

	totals := make([]Value, t.Len())
	for i := range totals {
		fare, ok, bad := numeric(t.Get(i, ColTaxiFare))
		invalid += bad
		admin, ok2, bad2 := numeric(t.Get(i, ColAdmin))
		invalid += bad2
		if ok && ok2 {
			totals[i] = Number(fare + admin)
		}
	}
	return invalid, t.SetColumn(ColTotalFare, totals)
}

// numeric returns the float in v, whether it was usable, and 1 if v held text
// that is not a number.
func numeric(v Value) (float64, bool, int) {
	if v.IsMissing() {
		return 0, false, 0
	}
	f, err := v.Float()
	if err != nil {
		return 0, false, 1
	}
	return f, true, 0
}
