package domain

import "fmt"

// Table is an ordered set of named columns over rows of Values. Cleaning
// stages mutate a Table in place; new columns are appended at the end.
type Table struct {
	columns []string
	rows    [][]Value
	index   map[string]int
}

// NewTable builds a table. Every row must have one Value per column.
func NewTable(columns []string, rows [][]Value) (*Table, error) {
	t := &Table{columns: append([]string(nil), columns...), rows: rows}
	if err := t.reindex(); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(columns))
		}
	}
	return t, nil
}

func (t *Table) reindex() error {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		if _, dup := t.index[c]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		t.index[c] = i
	}
	return nil
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Get returns the cell at row i in the named column, or Missing if the column
// does not exist.
func (t *Table) Get(i int, name string) Value {
	j, ok := t.index[name]
	if !ok {
		return Missing()
	}
	return t.rows[i][j]
}

// Row returns row i. The slice is shared with the table.
func (t *Table) Row(i int) []Value { return t.rows[i] }

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Value, bool) {
	j, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, true
}

// SetColumn replaces the named column, or appends it if absent.
func (t *Table) SetColumn(name string, values []Value) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	j, ok := t.index[name]
	if !ok {
		t.columns = append(t.columns, name)
		j = len(t.columns) - 1
		t.index[name] = j
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], Missing())
		}
	}
	for i := range t.rows {
		t.rows[i][j] = values[i]
	}
	return nil
}

// DropColumns removes the named columns that exist and returns the ones removed.
func (t *Table) DropColumns(names ...string) []string {
	drop := make(map[int]bool, len(names))
	var dropped []string
	for _, n := range names {
		if j, ok := t.index[n]; ok && !drop[j] {
			drop[j] = true
			dropped = append(dropped, n)
		}
	}
	if len(drop) == 0 {
		return nil
	}

	keep := make([]int, 0, len(t.columns)-len(drop))
	cols := make([]string, 0, len(t.columns)-len(drop))
	for j, c := range t.columns {
		if !drop[j] {
			keep = append(keep, j)
			cols = append(cols, c)
		}
	}
	for i, row := range t.rows {
		next := make([]Value, len(keep))
		for k, j := range keep {
			next[k] = row[j]
		}
		t.rows[i] = next
	}
	t.columns = cols
	_ = t.reindex() // names were unique before the drop
	return dropped
}

// Rename applies fn to every column name. Two columns mapping to the same
// name is an ErrDuplicateColumn and leaves the table unchanged.
func (t *Table) Rename(fn func(string) string) error {
	prev := t.columns
	next := make([]string, len(prev))
	for j, c := range prev {
		next[j] = fn(c)
	}
	t.columns = next
	if err := t.reindex(); err != nil {
		t.columns = prev
		_ = t.reindex()
		return err
	}
	return nil
}

// Filter keeps the rows for which keep returns true, preserving order, and
// returns the number of rows removed.
func (t *Table) Filter(keep func(row []Value) bool) int {
	kept := t.rows[:0]
	removed := 0
	for _, row := range t.rows {
		if keep(row) {
			kept = append(kept, row)
			continue
		}
		removed++
	}
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = nil
	}
	t.rows = kept
	return removed
}

// Map replaces every cell with fn(cell) and returns how many cells changed kind.
func (t *Table) Map(fn func(Value) Value) int {
	changed := 0
	for _, row := range t.rows {
		for j, v := range row {
			nv := fn(v)
			if nv.kind != v.kind {
				changed++
			}
			row[j] = nv
		}
	}
	return changed
}

// Records renders the table as a header row followed by formatted rows.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, row := range t.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.Format()
		}
		out = append(out, rec)
	}
	return out
}
