package domain

import (
	"time"

	"github.com/google/uuid"
)

// DropReason names why a row was removed from the dataset.
type DropReason string

const (
	DropMissingDistance  DropReason = "missing_distance_run"
	DropNegativeDuration DropReason = "negative_duration"
)

// FileReport describes what cleaning did to one source file.
type FileReport struct {
	File              string             `json:"file"`
	RowsRead          int                `json:"rows_read"`
	RowsKept          int                `json:"rows_kept"`
	Dropped           map[DropReason]int `json:"dropped,omitempty"`
	DroppedColumns    []string           `json:"dropped_columns,omitempty"`
	SentinelsReplaced int                `json:"sentinels_replaced"`
	UnparsedStart     int                `json:"unparsed_start"`
	UnparsedEnd       int                `json:"unparsed_end"`
	NegativeDurations int                `json:"negative_durations"`
	InvalidFares      int                `json:"invalid_fares"`
}

// Drop records n rows removed for reason.
func (f *FileReport) Drop(reason DropReason, n int) {
	if n == 0 {
		return
	}
	if f.Dropped == nil {
		f.Dropped = make(map[DropReason]int)
	}
	f.Dropped[reason] += n
}

// TotalDropped returns the number of rows removed from the file.
func (f *FileReport) TotalDropped() int {
	n := 0
	for _, c := range f.Dropped {
		n += c
	}
	return n
}

// Report is the data-quality summary of one pipeline run.
type Report struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Files      []FileReport       `json:"files"`
	RowsRead   int                `json:"rows_read"`
	RowsKept   int                `json:"rows_kept"`
	Dropped    map[DropReason]int `json:"dropped"`
	Columns    []string           `json:"columns,omitempty"`
}

// NewReport starts a report stamped with a fresh run ID and the clock time.
func NewReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: clock.Now(),
		Dropped:   make(map[DropReason]int),
	}
}

// Add folds a file report into the run totals.
func (r *Report) Add(f FileReport) {
	r.Files = append(r.Files, f)
	r.RowsRead += f.RowsRead
	r.RowsKept += f.RowsKept
	for reason, n := range f.Dropped {
		r.Dropped[reason] += n
	}
}

// Finish stamps the completion time.
func (r *Report) Finish() {
	r.FinishedAt = clock.Now()
}
