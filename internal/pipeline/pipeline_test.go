package pipeline_test

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/taxi-claims-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
	"github.com/couchcryptid/taxi-claims-etl/internal/observability"
	"github.com/couchcryptid/taxi-claims-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

// memSource serves tables built from string records; the first record is the header.
type memSource struct {
	files   map[string][][]string
	listErr error
	loadErr error
}

func (m *memSource) List(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	return names, nil
}

func (m *memSource) Load(_ context.Context, name string) (*domain.Table, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return tableFromRecords(m.files[name])
}

func tableFromRecords(records [][]string) (*domain.Table, error) {
	rows := make([][]domain.Value, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]domain.Value, len(rec))
		for j, s := range rec {
			if s != "" {
				row[j] = domain.Text(s)
			}
		}
		rows = append(rows, row)
	}
	return domain.NewTable(records[0], rows)
}

type recordingSink struct {
	tables []*domain.Table
	err    error
}

func (s *recordingSink) Write(_ context.Context, t *domain.Table) error {
	if s.err != nil {
		return s.err
	}
	s.tables = append(s.tables, t)
	return nil
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// Two files: A has three rows with one missing distance_run, B spells the
// card column "CardNo".
func scenarioSource() *memSource {
	return &memSource{files: map[string][][]string{
		"a.csv": {
			{"Card No", "Division Code", "Pickup X", "Travel Date", "Travel Time", "Taxi Fare (SGD)", "Admin", "Distance Run"},
			{"C-1", "D01", "1", "01/02/2015 TO 01/02/2015", "08:00 TO 08:45", "12.5", "3", "7.2"},
			{"C-2", "D02", "2", "02/02/2015 TO 02/02/2015", "09:00 TO 09:30", "10", "2.5", "NULL"},
			{"nil", "D03", "3", "03/02/2015 TO 03/02/2015", "10:15 TO 10:20", "4.25", "1", "1.1"},
		},
		"b.csv": {
			{"CardNo", "Division Code", "Travel Date", "Travel Time", "Taxi Fare", "Admin", "Distance Run"},
			{"C-9", "D01", "05/03/2015 TO 05/03/2015", "23:00 TO 23:59", "20", "5", "15"},
			{"C-8", "D04", "06/03/2015 TO 06/03/2015", "7:00 AM TO 7:30 AM", "6", "0.5", "3.3"},
		},
	}}
}

// --- tests ---

func TestPipeline_Run_EndToEnd(t *testing.T) {
	sink := &recordingSink{}
	metrics := newTestMetrics()
	p := pipeline.New(scenarioSource(), []pipeline.Sink{sink}, pipeline.DefaultOptions(), slog.Default(), metrics)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.tables, 1)

	out := sink.tables[0]
	assert.Equal(t, 4, out.Len())
	assert.Equal(t, []string{
		"card_no", "division_code", "taxi_fare", "admin", "distance_run",
		"start_datetime", "end_datetime", "trip_duration_min", "total_fare",
	}, out.Columns())

	want := [][]string{
		{"C-1", "D01", "12.5", "3", "7.2", "2015-02-01 08:00:00", "2015-02-01 08:45:00", "45.0", "15.5"},
		{"", "D03", "4.25", "1", "1.1", "2015-02-03 10:15:00", "2015-02-03 10:20:00", "5.0", "5.25"},
		{"C-9", "D01", "20", "5", "15", "2015-03-05 23:00:00", "2015-03-05 23:59:00", "59.0", "25.0"},
		{"C-8", "D04", "6", "0.5", "3.3", "2015-03-06 07:00:00", "2015-03-06 07:30:00", "30.0", "6.5"},
	}
	if diff := cmp.Diff(want, out.Records()[1:]); diff != "" {
		t.Errorf("consolidated rows mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 5, report.RowsRead)
	assert.Equal(t, 4, report.RowsKept)
	assert.Equal(t, map[domain.DropReason]int{domain.DropMissingDistance: 1}, report.Dropped)
	require.Len(t, report.Files, 2)
	assert.Equal(t, "a.csv", report.Files[0].File)
	assert.Equal(t, []string{"pickup_x"}, report.Files[0].DroppedColumns)
	assert.Equal(t, 2, report.Files[0].SentinelsReplaced)
	assert.Equal(t, out.Columns(), report.Columns)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.FilesProcessed), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(metrics.RowsRead), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(metrics.RowsWritten), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RowsDropped.WithLabelValues("missing_distance_run")), 0)
	require.NoError(t, p.CheckReadiness(context.Background()))
}

// writeScenarioDir writes the scenario files as CSV into a temp directory.
func writeScenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, records := range scenarioSource().files {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, csv.NewWriter(f).WriteAll(records))
		require.NoError(t, f.Close())
	}
	return dir
}

func TestPipeline_Run_IdempotentOutputFile(t *testing.T) {
	in := writeScenarioDir(t)
	out := t.TempDir()

	run := func(name string) []byte {
		path := filepath.Join(out, name)
		sinks := []pipeline.Sink{csvfile.NewWriter(path, slog.Default())}
		p := pipeline.New(csvfile.NewDir(in), sinks, pipeline.DefaultOptions(), slog.Default(), newTestMetrics())
		_, err := p.Run(context.Background())
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}

	first := run("first.csv")
	second := run("second.csv")
	rerun := run("first.csv")

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, first, rerun)
}

func TestPipeline_Run_ShortRowHitsCompletenessGate(t *testing.T) {
	in := t.TempDir()
	body := "Card No,Travel Date,Travel Time,Taxi Fare,Admin,Distance Run\n" +
		"C-1,01/02/2015 TO 01/02/2015,08:00 TO 08:45,12.5,3,7.2\n" +
		"C-2,02/02/2015 TO 02/02/2015,09:00 TO 09:30,10,2.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.csv"), []byte(body), 0o644))

	sink := &recordingSink{}
	p := pipeline.New(csvfile.NewDir(in), []pipeline.Sink{sink}, pipeline.DefaultOptions(), slog.Default(), newTestMetrics())

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.RowsRead)
	assert.Equal(t, 1, report.RowsKept)
	assert.Equal(t, 1, report.Dropped[domain.DropMissingDistance])
	assert.Equal(t, "C-1", sink.tables[0].Get(0, domain.ColCardNo).String())
}

func TestPipeline_Run_NoInputFiles(t *testing.T) {
	sink := &recordingSink{}
	p := pipeline.New(&memSource{}, []pipeline.Sink{sink}, pipeline.DefaultOptions(), slog.Default(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNoInputFiles)
	assert.Empty(t, sink.tables)
	require.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_MissingRequiredColumnAborts(t *testing.T) {
	src := scenarioSource()
	src.files["c.csv"] = [][]string{
		{"Card No", "Travel Date", "Taxi Fare", "Admin", "Distance Run"},
		{"C-5", "01/01/2015 TO 01/01/2015", "1", "1", "1"},
	}
	sink := &recordingSink{}
	p := pipeline.New(src, []pipeline.Sink{sink}, pipeline.DefaultOptions(), slog.Default(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.Contains(t, err.Error(), "c.csv")
	assert.Contains(t, err.Error(), "travel_time")
	assert.Empty(t, sink.tables, "no partial output")
}

func TestPipeline_Run_SchemaPolicy(t *testing.T) {
	newSource := func() *memSource {
		src := scenarioSource()
		src.files["c.csv"] = [][]string{
			{"Travel Date", "Travel Time", "Taxi Fare", "Admin", "Distance Run", "Remarks"},
			{"07/03/2015 TO 07/03/2015", "12:00 TO 12:10", "3", "1", "2", "late"},
		}
		return src
	}

	t.Run("strict", func(t *testing.T) {
		sink := &recordingSink{}
		p := pipeline.New(newSource(), []pipeline.Sink{sink}, pipeline.DefaultOptions(), slog.Default(), newTestMetrics())

		_, err := p.Run(context.Background())
		require.ErrorIs(t, err, domain.ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "c.csv")
		assert.Empty(t, sink.tables)
	})

	t.Run("union", func(t *testing.T) {
		opts := pipeline.DefaultOptions()
		opts.SchemaPolicy = domain.SchemaUnion
		sink := &recordingSink{}
		p := pipeline.New(newSource(), []pipeline.Sink{sink}, opts, slog.Default(), newTestMetrics())

		_, err := p.Run(context.Background())
		require.NoError(t, err)

		out := sink.tables[0]
		assert.Equal(t, 5, out.Len())
		assert.Equal(t, "remarks", out.Columns()[len(out.Columns())-1])
		assert.True(t, out.Get(4, "card_no").IsMissing())
		assert.Equal(t, "late", out.Get(4, "remarks").String())
		assert.True(t, out.Get(0, "remarks").IsMissing())
	})
}

func TestPipeline_Run_SinkOrderAndFailure(t *testing.T) {
	first := &recordingSink{}
	failing := &recordingSink{err: errors.New("disk full")}
	last := &recordingSink{}
	p := pipeline.New(scenarioSource(), []pipeline.Sink{first, failing, last}, pipeline.DefaultOptions(), slog.Default(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, first.tables, 1)
	assert.Empty(t, last.tables)
}

func TestPipeline_Run_LoadError(t *testing.T) {
	src := scenarioSource()
	src.loadErr = errors.New("permission denied")
	p := pipeline.New(src, nil, pipeline.DefaultOptions(), slog.Default(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.csv")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	sink := &recordingSink{}
	p := pipeline.New(scenarioSource(), []pipeline.Sink{sink}, pipeline.DefaultOptions(), slog.Default(), newTestMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.tables)
}
