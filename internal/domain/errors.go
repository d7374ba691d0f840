package domain

import "errors"

var (
	// ErrMissingColumn means a file lacks a column a cleaning stage depends on.
	ErrMissingColumn = errors.New("missing required column")

	// ErrDuplicateColumn means two source headers normalize to the same name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrSchemaMismatch means a file's canonical columns differ from the
	// schema established by the first file.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrNoInputFiles means the input directory holds no CSV files.
	ErrNoInputFiles = errors.New("no input csv files")
)
