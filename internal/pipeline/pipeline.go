package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
	"github.com/couchcryptid/taxi-claims-etl/internal/observability"
)

const tracerName = "github.com/couchcryptid/taxi-claims-etl/internal/pipeline"

// Source lists and loads the raw per-file tables.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*domain.Table, error)
}

// Sink persists or publishes the consolidated table.
type Sink interface {
	Write(ctx context.Context, t *domain.Table) error
}

// Pipeline cleans every source file and hands the consolidated table to the sinks.
type Pipeline struct {
	source  Source
	sinks   []Sink
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	done    atomic.Bool
}

// New creates a Pipeline. Sinks run in the given order after consolidation.
func New(src Source, sinks []Sink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  src,
		sinks:   sinks,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.done.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run consolidates every source file. Any file failure aborts the run before
// a sink is written.
func (p *Pipeline) Run(ctx context.Context) (*domain.Report, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	report := domain.NewReport()
	p.logger.Info("pipeline started", "run_id", report.RunID)

	merged, err := p.consolidate(ctx, report)
	if err != nil {
		return report, err
	}

	for _, s := range p.sinks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.Write(ctx, merged); err != nil {
			return report, fmt.Errorf("write %T: %w", s, err)
		}
	}

	report.Columns = merged.Columns()
	report.Finish()
	p.metrics.RowsWritten.Add(float64(merged.Len()))
	p.metrics.RunDuration.Set(time.Since(start).Seconds())
	p.metrics.LastSuccess.Set(float64(report.FinishedAt.Unix()))
	p.done.Store(true)

	p.logger.Info("pipeline finished",
		"run_id", report.RunID,
		"files", len(report.Files),
		"rows_read", report.RowsRead,
		"rows_kept", report.RowsKept,
		"dropped", report.Dropped,
		"duration", time.Since(start),
	)
	return report, nil
}

func (p *Pipeline) consolidate(ctx context.Context, report *domain.Report) (*domain.Table, error) {
	names, err := p.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source files: %w", err)
	}
	if len(names) == 0 {
		return nil, domain.ErrNoInputFiles
	}
	names = slices.Clone(names)
	slices.Sort(names)

	tables := make([]*domain.Table, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, fr, err := p.processFile(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		report.Add(fr)
		tables = append(tables, t)
	}

	merged, err := domain.Merge(tables, names, p.opts.SchemaPolicy)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return merged, nil
}

func (p *Pipeline) processFile(ctx context.Context, name string) (*domain.Table, domain.FileReport, error) {
	ctx, span := p.tracer.Start(ctx, "clean file", trace.WithAttributes(attribute.String("file", name)))
	defer span.End()
	start := time.Now()

	p.logger.Info("loading file", "file", name)
	t, err := p.source.Load(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, domain.FileReport{File: name}, fmt.Errorf("load: %w", err)
	}

	fr, err := CleanTable(t, p.opts)
	fr.File = name
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clean failed")
		return nil, fr, err
	}

	span.SetAttributes(
		attribute.Int("rows_read", fr.RowsRead),
		attribute.Int("rows_kept", fr.RowsKept),
	)
	p.observe(fr, time.Since(start))
	return t, fr, nil
}

func (p *Pipeline) observe(fr domain.FileReport, elapsed time.Duration) {
	p.metrics.FilesProcessed.Inc()
	p.metrics.RowsRead.Add(float64(fr.RowsRead))
	p.metrics.SentinelsReplaced.Add(float64(fr.SentinelsReplaced))
	p.metrics.UnparsedTimes.WithLabelValues("start").Add(float64(fr.UnparsedStart))
	p.metrics.UnparsedTimes.WithLabelValues("end").Add(float64(fr.UnparsedEnd))
	p.metrics.InvalidFares.Add(float64(fr.InvalidFares))
	for reason, n := range fr.Dropped {
		p.metrics.RowsDropped.WithLabelValues(string(reason)).Add(float64(n))
	}
	p.metrics.FileProcessingDuration.Observe(elapsed.Seconds())

	p.logger.Info("file cleaned",
		"file", fr.File,
		"rows_read", fr.RowsRead,
		"rows_kept", fr.RowsKept,
		"sentinels_replaced", fr.SentinelsReplaced,
	)
	if n := fr.TotalDropped(); n > 0 {
		p.logger.Warn("rows dropped", "file", fr.File, "dropped", fr.Dropped)
	}
	if fr.UnparsedStart > 0 || fr.UnparsedEnd > 0 {
		p.logger.Warn("unparsed timestamps", "file", fr.File,
			"unparsed_start", fr.UnparsedStart, "unparsed_end", fr.UnparsedEnd)
	}
	if fr.NegativeDurations > 0 {
		p.logger.Warn("negative trip durations", "file", fr.File,
			"count", fr.NegativeDurations, "policy", p.opts.DurationPolicy)
	}
}
