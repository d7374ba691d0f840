package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the text form of timestamps in the consolidated output.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrMissingValue is returned when a typed accessor is called on a missing cell.
var ErrMissingValue = errors.New("missing value")

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindTime
)

// Value is one table cell. The zero Value is missing.
type Value struct {
	kind Kind
	text string
	num  float64
	ts   time.Time
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// Text wraps a raw source string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number wraps a computed float. NaN is stored as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Timestamp wraps a parsed time.
func Timestamp(t time.Time) Value { return Value{kind: KindTime, ts: t} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric content of a Number cell, or parses a Text cell.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, err
		}
		return f, nil
	case KindTime:
		return 0, errors.New("timestamp is not numeric")
	default:
		return 0, ErrMissingValue
	}
}

// Time returns the timestamp held by a Time cell.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.ts, true
}

// String returns the raw text of a Text cell and the formatted form otherwise.
func (v Value) String() string {
	return v.Format()
}

// Format renders the cell for CSV output. Missing renders as an empty cell.
func (v Value) Format() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return FormatFloat(v.num)
	case KindTime:
		return v.ts.Format(TimestampLayout)
	default:
		return ""
	}
}

// FormatFloat renders f in its shortest decimal form, keeping a trailing ".0"
// on integral values so the dashboard reads the column as floating point.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || strings.ContainsAny(s, ".") {
		return s
	}
	return s + ".0"
}
