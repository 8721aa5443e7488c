// Package impute drops or fills missing cells.
package impute

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/KaramelBytes/datatidy-cli/internal/stats"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// NumericMethod picks the statistic used to fill numeric columns.
type NumericMethod int

const (
	Mean NumericMethod = iota
	Median
	Mode
)

// NumericMethods lists every numeric method in output order.
var NumericMethods = []NumericMethod{Mean, Median, Mode}

func (m NumericMethod) String() string {
	switch m {
	case Mean:
		return "mean"
	case Median:
		return "median"
	case Mode:
		return "mode"
	}
	return fmt.Sprintf("NumericMethod(%d)", int(m))
}

// ParseNumericMethod accepts mean, median or mode.
func ParseNumericMethod(s string) (NumericMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return Mean, nil
	case "median":
		return Median, nil
	case "mode":
		return Mode, nil
	}
	return 0, fmt.Errorf("unknown numeric imputation method %q (use mean, median or mode)", s)
}

// AdjacentMethod fills a gap from neighbouring rows.
type AdjacentMethod int

const (
	Forward AdjacentMethod = iota
	Backward
	InterpolationLinear
	InterpolationTime
)

// AdjacentMethods lists every adjacent method in output order.
var AdjacentMethods = []AdjacentMethod{Forward, Backward, InterpolationLinear, InterpolationTime}

func (m AdjacentMethod) String() string {
	switch m {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case InterpolationLinear:
		return "interpolation_linear"
	case InterpolationTime:
		return "interpolation_time"
	}
	return fmt.Sprintf("AdjacentMethod(%d)", int(m))
}

// ParseAdjacentMethod accepts the names returned by AdjacentMethod.String
// plus the short forms ffill, bfill, linear and time.
func ParseAdjacentMethod(s string) (AdjacentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "ffill":
		return Forward, nil
	case "backward", "bfill":
		return Backward, nil
	case "interpolation_linear", "linear":
		return InterpolationLinear, nil
	case "interpolation_time", "time":
		return InterpolationTime, nil
	}
	return 0, fmt.Errorf("unknown adjacent imputation method %q", s)
}

var (
	ErrTimeColumnRequired = errors.New("time reference column is required for time interpolation")
	ErrTimeColumnUnknown  = errors.New("time reference column is not in the dataset")
)

func before(t *table.Table, log *slog.Logger) {
	var b strings.Builder
	for i, n := range t.NullCounts() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %d", t.Columns[i].Name, n)
	}
	log.Info(fmt.Sprintf("Dataset has %d rows before handling missing values.\nMissing values are:\n%s", t.Len(), b.String()))
}

func after(t *table.Table, log *slog.Logger) {
	log.Info(fmt.Sprintf("Dataset has %d rows after handling missing values.", t.Len()))
}

// Drop removes every row holding at least one null.
func Drop(t *table.Table, log *slog.Logger) *table.Table {
	log = logging.OrDiscard(log)
	before(t, log)
	drop := map[int]struct{}{}
	for _, r := range t.Rows {
		for _, v := range r.Values {
			if v.Null {
				drop[r.Index] = struct{}{}
				break
			}
		}
	}
	out := t.DropRows(drop)
	after(out, log)
	return out
}

// ByDatatype fills numeric columns with m and every other column with its
// most frequent value. A numeric column that had a null filled becomes Float.
func ByDatatype(t *table.Table, m NumericMethod, log *slog.Logger) *table.Table {
	log = logging.OrDiscard(log)
	before(t, log)
	out := t.Clone()
	for c, col := range out.Columns {
		var fill table.Value
		var ok bool
		if table.IsNumeric(col.Type) {
			fill, ok = numericFill(out, c, m)
		} else {
			fill, ok = modeValue(out, c)
		}
		if !ok {
			continue
		}
		filled := false
		for i := range out.Rows {
			if out.Rows[i].Values[c].Null {
				out.Rows[i].Values[c] = fill
				filled = true
			}
		}
		if filled {
			out.SetFloat(c)
		}
	}
	after(out, log)
	return out
}

func numericFill(t *table.Table, c int, m NumericMethod) (table.Value, bool) {
	xs := present(t, c)
	if len(xs) == 0 {
		return table.Value{}, false
	}
	switch m {
	case Mean:
		var sum float64
		for _, x := range xs {
			sum += x
		}
		return table.Number(sum / float64(len(xs))), true
	case Median:
		return table.Number(stats.Median(xs)), true
	case Mode:
		return modeValue(t, c)
	}
	return table.Value{}, false
}

// present returns the non-null numbers of column c.
func present(t *table.Table, c int) []float64 {
	var xs []float64
	for _, r := range t.Rows {
		if v := r.Values[c]; !v.Null {
			xs = append(xs, v.Num)
		}
	}
	return xs
}

// modeValue returns the most frequent non-null value; ties go to the smallest.
func modeValue(t *table.Table, c int) (table.Value, bool) {
	dt := t.Columns[c].Type
	counts := map[string]int{}
	first := map[string]table.Value{}
	for _, r := range t.Rows {
		v := r.Values[c]
		if v.Null {
			continue
		}
		k := v.Format(dt)
		counts[k]++
		if _, ok := first[k]; !ok {
			first[k] = v
		}
	}
	var best table.Value
	bestN := 0
	for k, n := range counts {
		v := first[k]
		if n > bestN || (n == bestN && less(v, best, dt)) {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}

func less(a, b table.Value, dt table.DType) bool {
	switch {
	case table.IsNumeric(dt):
		return a.Num < b.Num
	case dt == table.Datetime:
		return a.Time.Before(b.Time)
	}
	return a.Str < b.Str
}

// Adjacent fills gaps from neighbouring rows. Forward copies the previous
// value down, Backward copies the next value up. The interpolation methods
// fill numeric columns only; linear weights by row position and time weights
// by the timeColumn values. Interpolation leaves leading gaps and repeats the
// last valid value over trailing gaps. If timeColumn cannot be read as
// datetimes the error is logged and an empty table is returned.
func Adjacent(t *table.Table, m AdjacentMethod, timeColumn string, log *slog.Logger) (*table.Table, error) {
	log = logging.OrDiscard(log)
	before(t, log)
	out := t.Clone()
	switch m {
	case Forward:
		for c := range out.Columns {
			fillDown(out, c)
		}
	case Backward:
		for c := range out.Columns {
			fillUp(out, c)
		}
	case InterpolationLinear:
		for c := range out.Columns {
			out.ToNumeric(c)
		}
		for c, col := range out.Columns {
			if table.IsNumeric(col.Type) {
				interpolate(out, c, func(i int) float64 { return float64(i) })
			}
		}
	case InterpolationTime:
		name := strings.TrimSpace(timeColumn)
		if name == "" {
			return t, ErrTimeColumnRequired
		}
		tc := out.ColumnIndex(name)
		if tc < 0 {
			return t, fmt.Errorf("%w: %q", ErrTimeColumnUnknown, name)
		}
		if !timeReady(out, tc) {
			log.Error("Time reference column could not be parsed as datetime", "column", name)
			return t.Empty(), nil
		}
		for c, col := range out.Columns {
			if c != tc && table.IsNumeric(col.Type) {
				interpolate(out, c, func(i int) float64 {
					return float64(out.Rows[i].Values[tc].Time.UnixNano())
				})
			}
		}
	default:
		return t, fmt.Errorf("unsupported adjacent imputation method %v", m)
	}
	after(out, log)
	return out, nil
}

func fillDown(t *table.Table, c int) {
	var last *table.Value
	for i := range t.Rows {
		v := &t.Rows[i].Values[c]
		if v.Null {
			if last != nil {
				*v = *last
			}
			continue
		}
		last = v
	}
}

func fillUp(t *table.Table, c int) {
	var next *table.Value
	for i := len(t.Rows) - 1; i >= 0; i-- {
		v := &t.Rows[i].Values[c]
		if v.Null {
			if next != nil {
				*v = *next
			}
			continue
		}
		next = v
	}
}

// timeReady converts column c to Datetime when needed and reports whether
// every cell holds a datetime.
func timeReady(t *table.Table, c int) bool {
	if t.Columns[c].Type == table.String {
		t.ToDatetime(c)
	}
	if t.Columns[c].Type != table.Datetime {
		return false
	}
	for _, r := range t.Rows {
		if r.Values[c].Null {
			return false
		}
	}
	return true
}

// interpolate fills interior gaps of numeric column c linearly in x(i) and
// extends the last valid value over trailing gaps. Filled columns become Float.
func interpolate(t *table.Table, c int, x func(i int) float64) {
	prev := -1
	filled := false
	for i := range t.Rows {
		if t.Rows[i].Values[c].Null {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			x0, x1 := x(prev), x(i)
			y0, y1 := t.Rows[prev].Values[c].Num, t.Rows[i].Values[c].Num
			for k := prev + 1; k < i; k++ {
				y := y0
				if x1 != x0 {
					y = y0 + (y1-y0)*(x(k)-x0)/(x1-x0)
				}
				t.Rows[k].Values[c] = table.Number(y)
			}
			filled = true
		}
		prev = i
	}
	if prev >= 0 {
		for k := prev + 1; k < len(t.Rows); k++ {
			t.Rows[k].Values[c] = t.Rows[prev].Values[c]
			filled = true
		}
	}
	if filled {
		t.SetFloat(c)
	}
}
