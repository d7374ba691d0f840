// Package xlsx exports the consolidated table as an Excel workbook.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
)

// SheetName is the worksheet holding the trips.
const SheetName = "trips"

// Writer is a pipeline.Sink writing one worksheet with a header row. Numbers
// and timestamps are written as typed cells; missing values are left blank.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Writer for path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Write replaces the workbook at path.
func (w *Writer) Write(_ context.Context, t *domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]any, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, rowCells(t.Row(i), dateStyle)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("xlsx export written", "path", w.path, "rows", t.Len())
	return nil
}

func rowCells(row []domain.Value, dateStyle int) []any {
	cells := make([]any, len(row))
	for j, v := range row {
		switch v.Kind() {
		case domain.KindMissing:
			cells[j] = nil
		case domain.KindNumber:
			f, _ := v.Float()
			cells[j] = f
		case domain.KindTime:
			ts, _ := v.Time()
			cells[j] = excelize.Cell{StyleID: dateStyle, Value: ts}
		default:
			cells[j] = v.String()
		}
	}
	return cells
}
