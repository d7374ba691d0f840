package domain

import (
	"fmt"
	"slices"
	"strings"
)

// SchemaPolicy decides how files whose canonical columns differ are combined.
type SchemaPolicy string

const (
	// SchemaStrict requires every file to carry the first file's column set.
	SchemaStrict SchemaPolicy = "strict"
	// SchemaUnion appends unseen columns and fills absent cells with Missing.
	SchemaUnion SchemaPolicy = "union"
)

// ParseSchemaPolicy accepts "strict" or "union", case-insensitively.
func ParseSchemaPolicy(s string) (SchemaPolicy, error) {
	switch p := SchemaPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case SchemaStrict, SchemaUnion:
		return p, nil
	default:
		return "", fmt.Errorf("unknown schema policy %q (want strict or union)", s)
	}
}

// Merge concatenates tables in order. Rows keep their file and in-file order;
// the column order is the first table's. names labels tables in errors.
func Merge(tables []*Table, names []string, policy SchemaPolicy) (*Table, error) {
	if len(tables) == 0 {
		return NewTable(nil, nil)
	}

	columns := slices.Clone(tables[0].columns)
	for k := 1; k < len(tables); k++ {
		t := tables[k]
		switch policy {
		case SchemaUnion:
			for _, c := range t.columns {
				if !slices.Contains(columns, c) {
					columns = append(columns, c)
				}
			}
		default:
			if err := sameColumns(columns, t); err != nil {
				return nil, fmt.Errorf("%s: %w", label(names, k), err)
			}
		}
	}

	total := 0
	for _, t := range tables {
		total += t.Len()
	}
	rows := make([][]Value, 0, total)
	for _, t := range tables {
		for i := range t.rows {
			row := make([]Value, len(columns))
			for j, c := range columns {
				row[j] = t.Get(i, c)
			}
			rows = append(rows, row)
		}
	}
	return NewTable(columns, rows)
}

func sameColumns(want []string, t *Table) error {
	var missing, extra []string
	for _, c := range want {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	for _, c := range t.columns {
		if !slices.Contains(want, c) {
			extra = append(extra, c)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing [%s] unexpected [%s]",
		ErrSchemaMismatch, strings.Join(missing, ", "), strings.Join(extra, ", "))
}

func label(names []string, k int) string {
	if k < len(names) {
		return names[k]
	}
	return fmt.Sprintf("table %d", k)
}
