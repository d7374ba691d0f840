package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Format(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"missing", Missing(), ""},
		{"zero value", Value{}, ""},
		{"text verbatim", Text(" D01 "), " D01 "},
		{"integral float", Number(45), "45.0"},
		{"fractional float", Number(15.25), "15.25"},
		{"negative", Number(-2.5), "-2.5"},
		{"timestamp", Timestamp(time.Date(2015, 2, 1, 8, 0, 0, 0, time.UTC)), "2015-02-01 08:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.Format())
		})
	}
}

func TestValue_NaNIsMissing(t *testing.T) {
	assert.True(t, Number(math.NaN()).IsMissing())
}

func TestValue_Float(t *testing.T) {
	f, err := Text(" 3.75 ").Float()
	require.NoError(t, err)
	assert.InDelta(t, 3.75, f, 1e-9)

	_, err = Missing().Float()
	require.ErrorIs(t, err, ErrMissingValue)

	_, err = Text("abc").Float()
	require.Error(t, err)
}

func TestTable_SetColumnAndFilter(t *testing.T) {
	tbl := mustTable(t, []string{"a"}, []string{"1"}, []string{"2"}, []string{"3"})

	require.NoError(t, tbl.SetColumn("b", []Value{Number(1), Missing(), Number(3)}))
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())

	removed := tbl.Filter(func(row []Value) bool { return !row[1].IsMissing() })
	assert.Equal(t, 1, removed)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "1.0"}, {"3", "3.0"}}, tbl.Records())

	require.Error(t, tbl.SetColumn("c", []Value{Missing()}), "length mismatch")
}

func TestNewTable_RaggedRow(t *testing.T) {
	_, err := NewTable([]string{"a", "b"}, [][]Value{{Text("x")}})
	require.Error(t, err)
}
