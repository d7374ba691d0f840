package pipeline

import (
	"fmt"

	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
)

// Options are the cleaning rules applied to every file.
type Options struct {
	Synonyms       map[string]string
	Sentinels      []string
	DurationPolicy domain.DurationPolicy
	SchemaPolicy   domain.SchemaPolicy
}

// DefaultOptions returns the built-in synonym table and sentinels with the
// flag and strict policies.
func DefaultOptions() Options {
	return Options{
		Synonyms:       domain.NormalizeSynonyms(nil),
		Sentinels:      domain.DefaultSentinels,
		DurationPolicy: domain.DurationFlag,
		SchemaPolicy:   domain.SchemaStrict,
	}
}

// CleanTable runs the per-file chain on t in place: header normalization,
// geometry drop, sentinel replacement, interval parsing, fare total, duration
// policy and the distance_run completeness gate.
func CleanTable(t *domain.Table, opts Options) (domain.FileReport, error) {
	report := domain.FileReport{RowsRead: t.Len()}

	if err := domain.NormalizeHeaders(t, opts.Synonyms); err != nil {
		return report, fmt.Errorf("normalize headers: %w", err)
	}
	report.DroppedColumns = domain.DropGeometry(t)
	report.SentinelsReplaced = domain.ReplaceSentinels(t, opts.Sentinels)

	if err := domain.RequireColumns(t, domain.RequiredColumns...); err != nil {
		return report, err
	}

	stats, err := domain.ParseIntervals(t)
	if err != nil {
		return report, fmt.Errorf("parse intervals: %w", err)
	}
	report.UnparsedStart = stats.UnparsedStart
	report.UnparsedEnd = stats.UnparsedEnd
	report.NegativeDurations = stats.NegativeDurations

	if report.InvalidFares, err = domain.ComputeTotalFare(t); err != nil {
		return report, fmt.Errorf("compute total fare: %w", err)
	}

	affected, err := domain.ApplyDurationPolicy(t, opts.DurationPolicy)
	if err != nil {
		return report, fmt.Errorf("duration policy: %w", err)
	}
	if opts.DurationPolicy == domain.DurationDrop {
		report.Drop(domain.DropNegativeDuration, affected)
	}

	dropped, err := domain.DropIncomplete(t, domain.ColDistanceRun)
	if err != nil {
		return report, err
	}
	report.Drop(domain.DropMissingDistance, dropped)

	report.RowsKept = t.Len()
	return report, nil
}
