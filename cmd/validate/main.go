// Command validate checks a consolidated taxi-trip CSV against the dashboard
// contract: every contracted column is present, no sentinel null tokens
// remain, every row has a distance_run, and the derived total_fare and
// trip_duration_min agree with the columns they are computed from.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -input cleaned_taxi_data.csv \
//	  -report cleaned_taxi_data.report.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/taxi-claims-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
)

const epsilon = 1e-9

// maxErrorsPerPhase caps the detail printed for one failing phase.
const maxErrorsPerPhase = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	input := flag.String("input", "cleaned_taxi_data.csv", "path to the consolidated CSV")
	reportPath := flag.String("report", "", "optional run report to cross-check row counts")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *input, *reportPath))
}

func run(out io.Writer, input, reportPath string) int {
	fmt.Fprintln(out, "=== Taxi Trip Dataset Validation ===")
	fmt.Fprintln(out)

	t, err := csvfile.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", input, err)
		return 1
	}

	var report *domain.Report
	if reportPath != "" {
		if report, err = loadReport(reportPath); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load report: %v\n", err)
			return 1
		}
	}

	phases := validate(t, report)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d rows, %d columns\n", t.Len(), len(t.Columns()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrorsPerPhase {
				fmt.Fprintf(out, "  ... %d more\n", len(p.errors)-maxErrorsPerPhase)
				break
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadReport(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &r, nil
}

func validate(t *domain.Table, report *domain.Report) []*phase {
	phases := []*phase{
		validateColumns(t),
		validateSentinels(t),
		validateCompleteness(t),
		validateTotalFare(t),
		validateDuration(t),
	}
	if report != nil {
		phases = append(phases, validateReport(t, report))
	}
	return phases
}

func validateColumns(t *domain.Table) *phase {
	p := &phase{name: "Contracted columns"}
	for _, c := range domain.ContractColumns {
		if !t.Has(c) {
			p.errorf("missing column %q", c)
		}
	}
	for _, c := range []string{domain.ColTravelDate, domain.ColTravelTime} {
		if t.Has(c) {
			p.errorf("raw compound column %q still present", c)
		}
	}
	return p
}

func validateSentinels(t *domain.Table) *phase {
	p := &phase{name: "No sentinel null tokens"}
	cols := t.Columns()
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			if v.Kind() == domain.KindText && domain.IsSentinel(v.String(), domain.DefaultSentinels) {
				p.errorf("row %d: %s holds sentinel %q", i+1, cols[j], v.String())
			}
		}
	}
	return p
}

func validateCompleteness(t *domain.Table) *phase {
	p := &phase{name: "distance_run present"}
	if !t.Has(domain.ColDistanceRun) {
		p.errorf("column %s absent", domain.ColDistanceRun)
		return p
	}
	for i := 0; i < t.Len(); i++ {
		v := t.Get(i, domain.ColDistanceRun)
		if v.IsMissing() {
			p.errorf("row %d: distance_run missing", i+1)
			continue
		}
		if _, err := v.Float(); err != nil {
			p.errorf("row %d: distance_run %q is not numeric", i+1, v.String())
		}
	}
	return p
}

func validateTotalFare(t *domain.Table) *phase {
	p := &phase{name: "total_fare = taxi_fare + admin"}
	if err := domain.RequireColumns(t, domain.ColTaxiFare, domain.ColAdmin, domain.ColTotalFare); err != nil {
		p.errorf("%v", err)
		return p
	}
	for i := 0; i < t.Len(); i++ {
		fare, fareOK := number(t.Get(i, domain.ColTaxiFare))
		admin, adminOK := number(t.Get(i, domain.ColAdmin))
		total, totalOK := number(t.Get(i, domain.ColTotalFare))

		switch {
		case !fareOK || !adminOK:
			if totalOK {
				p.errorf("row %d: total_fare %v present but a component is missing", i+1, total)
			}
		case !totalOK:
			p.errorf("row %d: total_fare missing", i+1)
		case math.Abs(total-(fare+admin)) > epsilon:
			p.errorf("row %d: total_fare %v != %v + %v", i+1, total, fare, admin)
		}
	}
	return p
}

func validateDuration(t *domain.Table) *phase {
	p := &phase{name: "trip_duration_min = end - start"}
	if err := domain.RequireColumns(t, domain.ColStartDatetime, domain.ColEndDatetime, domain.ColTripDurationMin); err != nil {
		p.errorf("%v", err)
		return p
	}
	trips := domain.TripsFromTable(t)
	for i, trip := range trips {
		raw := t.Get(i, domain.ColTripDurationMin)
		if !raw.IsMissing() && !trip.TripDurationMin.Valid {
			p.errorf("row %d: trip_duration_min %q is not numeric", i+1, raw.String())
			continue
		}
		if !trip.StartDatetime.Valid || !trip.EndDatetime.Valid {
			if trip.TripDurationMin.Valid {
				p.errorf("row %d: trip_duration_min present without both timestamps", i+1)
			}
			continue
		}
		if !trip.TripDurationMin.Valid {
			// A cleared negative duration keeps its timestamps.
			if !trip.EndDatetime.V.Before(trip.StartDatetime.V) {
				p.errorf("row %d: trip_duration_min missing", i+1)
			}
			continue
		}
		want := trip.EndDatetime.V.Sub(trip.StartDatetime.V).Minutes()
		if math.Abs(trip.TripDurationMin.V-want) > epsilon {
			p.errorf("row %d: trip_duration_min %v, timestamps give %v", i+1, trip.TripDurationMin.V, want)
		}
	}
	return p
}

func validateReport(t *domain.Table, r *domain.Report) *phase {
	p := &phase{name: "Report row counts"}
	if r.RowsKept != t.Len() {
		p.errorf("report rows_kept %d, file has %d rows", r.RowsKept, t.Len())
	}
	dropped := 0
	for _, n := range r.Dropped {
		dropped += n
	}
	if r.RowsRead-dropped != r.RowsKept {
		p.errorf("rows_read %d - dropped %d != rows_kept %d", r.RowsRead, dropped, r.RowsKept)
	}
	return p
}

func number(v domain.Value) (float64, bool) {
	f, err := v.Float()
	return f, err == nil
}
