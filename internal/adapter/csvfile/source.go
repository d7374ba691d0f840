// Package csvfile reads raw CSV files into tables and writes the consolidated dataset.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
)

// Dir is a pipeline source over the CSV files directly inside a directory.
type Dir struct {
	path string
}

// NewDir creates a source rooted at path.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// List returns the names of the regular files whose suffix is .csv in any
// case, in lexical order. Subdirectories are not searched.
func (d *Dir) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Load reads one file of the directory.
func (d *Dir) Load(_ context.Context, name string) (*domain.Table, error) {
	return ReadFile(filepath.Join(d.path, name))
}

// ReadFile loads a CSV file with a header row. Empty cells become Missing and
// every other cell is kept as Text.
func ReadFile(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// naTokens are the cell texts loaded as Missing: an empty cell and the
// literal NaN that spreadsheet and dataframe exports write for a missing number.
var naTokens = []string{"", "NaN"}

// Read loads CSV from r, stripping a leading UTF-8 byte order mark. Rows
// shorter than the header are padded with Missing cells; a row longer than
// the header is an error.
func Read(r io.Reader) (*domain.Table, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	header := append([]string(nil), records[0]...)
	if len(records) == 1 {
		return domain.NewTable(header, nil)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load table: %w", df.Err)
	}

	rows := make([][]domain.Value, df.Nrow())
	for i := range rows {
		rows[i] = make([]domain.Value, len(header))
	}
	// gota suffixes duplicate names, so columns are matched by position.
	for j, name := range df.Names() {
		col := df.Col(name)
		missing := col.IsNaN()
		for i, text := range col.Records() {
			if !missing[i] {
				rows[i][j] = domain.Text(text)
			}
		}
	}
	return domain.NewTable(header, rows)
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("parse csv: missing header row")
	}

	width := len(records[0])
	for i := 1; i < len(records); i++ {
		switch n := len(records[i]); {
		case n > width:
			return nil, fmt.Errorf("parse csv: data row %d has %d fields, header has %d", i, n, width)
		case n < width:
			records[i] = append(records[i], make([]string, width-n)...)
		}
	}
	return records, nil
}
