package domain

import (
	"fmt"
	"strings"
)

// DefaultSentinels are the textual tokens treated as missing.
var DefaultSentinels = []string{"nil", "null"}

// IsSentinel reports whether s, trimmed, case-insensitively equals one of the
// sentinel tokens.
func IsSentinel(s string, sentinels []string) bool {
	s = strings.TrimSpace(s)
	for _, tok := range sentinels {
		if strings.EqualFold(s, tok) {
			return true
		}
	}
	return false
}

// DropGeometry removes the projected coordinate columns that are present.
func DropGeometry(t *Table) []string {
	return t.DropColumns(GeometryColumns...)
}

// ReplaceSentinels turns every sentinel text cell into Missing and returns the
// number of cells replaced.
func ReplaceSentinels(t *Table, sentinels []string) int {
	return t.Map(func(v Value) Value {
		if v.kind == KindText && IsSentinel(v.text, sentinels) {
			return Missing()
		}
		return v
	})
}

// DropIncomplete removes rows whose cell in column is missing and returns the
// number of rows removed.
func DropIncomplete(t *Table, column string) (int, error) {
	j, ok := t.index[column]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}
	return t.Filter(func(row []Value) bool { return !row[j].IsMissing() }), nil
}

// RequireColumns returns ErrMissingColumn naming every absent column.
func RequireColumns(t *Table, columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}
