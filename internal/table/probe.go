package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayouts are the layouts tried when probing untyped text for datetimes.
var DateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006", "02/01/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"1/2/2006", "1/2/2006 15:04", "1/2/2006 15:04:05", "02-Jan-2006", "Jan 2, 2006",
}

// ProbeInt reports whether s is a base-10 integer, optionally signed.
func ProbeInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ProbeFloat reports whether s is a finite or infinite decimal number.
// "nan" is not accepted: missing data is represented by null cells.
func ProbeFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ProbeTime tries DateLayouts in order.
func ProbeTime(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	for _, l := range DateLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ProbeNumeric reports which numeric type every non-null cell of String column c
// can be parsed as. Integers in a column with missing cells probe as Float, as
// there is no integer null. ok is false if the column has no non-null cells or
// any cell fails to parse.
func (t *Table) ProbeNumeric(c int) (DType, bool) {
	allInt := true
	seen, nulls := 0, 0
	for _, r := range t.Rows {
		v := r.Values[c]
		if v.Null {
			nulls++
			continue
		}
		seen++
		if allInt {
			if _, ok := ProbeInt(v.Str); ok {
				continue
			}
			allInt = false
		}
		if _, ok := ProbeFloat(v.Str); !ok {
			return String, false
		}
	}
	if seen == 0 {
		return String, false
	}
	if allInt && nulls == 0 {
		return Int, true
	}
	return Float, true
}

// ProbeDatetime reports whether every non-null cell of String column c parses
// with one of DateLayouts.
func (t *Table) ProbeDatetime(c int) bool {
	seen := 0
	for _, r := range t.Rows {
		v := r.Values[c]
		if v.Null {
			continue
		}
		seen++
		if _, ok := ProbeTime(v.Str); !ok {
			return false
		}
	}
	return seen > 0
}

// ToNumeric converts String column c in place to the numeric type it probes as.
// It reports whether a conversion happened.
func (t *Table) ToNumeric(c int) bool {
	if t.Columns[c].Type != String {
		return false
	}
	dt, ok := t.ProbeNumeric(c)
	if !ok {
		return false
	}
	for i := range t.Rows {
		v := t.Rows[i].Values[c]
		if v.Null {
			continue
		}
		f, _ := ProbeFloat(v.Str)
		t.Rows[i].Values[c] = Number(f)
	}
	t.Columns[c].Type = dt
	return true
}

// ToDatetime converts String column c in place when every cell probes as a datetime.
func (t *Table) ToDatetime(c int) bool {
	if t.Columns[c].Type != String || !t.ProbeDatetime(c) {
		return false
	}
	for i := range t.Rows {
		v := t.Rows[i].Values[c]
		if v.Null {
			continue
		}
		ts, _ := ProbeTime(v.Str)
		t.Rows[i].Values[c] = Timestamp(ts)
	}
	t.Columns[c].Type = Datetime
	return true
}

// InferTypes converts number-looking String columns to Int or Float, the way a
// dataframe CSV reader does. Datetimes are left as text.
func (t *Table) InferTypes() {
	for c := range t.Columns {
		t.ToNumeric(c)
	}
}

// AsFloat reports the numeric value of a cell of a numeric column.
func AsFloat(v Value, d DType) (float64, bool) {
	if v.Null || !IsNumeric(d) {
		return 0, false
	}
	return v.Num, true
}

// SetFloat switches column c to Float. Int values are already stored as float64.
func (t *Table) SetFloat(c int) {
	if IsNumeric(t.Columns[c].Type) {
		t.Columns[c].Type = Float
	}
}
