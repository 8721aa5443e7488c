// Package scale rescales numeric columns and optionally L2-normalizes rows.
package scale

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/KaramelBytes/datatidy-cli/internal/stats"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Method is a per-column scaler.
type Method int

const (
	MinMax Method = iota
	ZScore
	Robust
)

// Methods lists every scaler.
var Methods = []Method{MinMax, ZScore, Robust}

func (m Method) String() string {
	switch m {
	case MinMax:
		return "MINMAX_SCALING"
	case ZScore:
		return "ZSCORE_STANDARDIZATION"
	case Robust:
		return "ROBUST_SCALING"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod accepts the names returned by Method.String, case-insensitively,
// and the short forms minmax, zscore and robust.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MINMAX_SCALING", "MINMAX":
		return MinMax, nil
	case "ZSCORE_STANDARDIZATION", "ZSCORE", "STANDARD":
		return ZScore, nil
	case "ROBUST_SCALING", "ROBUST":
		return Robust, nil
	}
	return 0, fmt.Errorf("unknown scaling method %q", s)
}

// Rule scales one column.
type Rule struct {
	Column string `yaml:"column" toml:"column"`
	Method string `yaml:"method" toml:"method"`
}

var (
	ErrRuleLengths   = errors.New("number of columns and scaling methods do not match")
	ErrInvalidColumn = errors.New("the columns subset contains non-numeric or unknown columns")
	ErrUnknownMethod = errors.New("at least one of the scaling methods is not valid; use MINMAX_SCALING, ZSCORE_STANDARDIZATION or ROBUST_SCALING")
)

// Rules zips parallel column and method lists.
func Rules(columns, methods []string) ([]Rule, error) {
	if len(columns) != len(methods) {
		return nil, ErrRuleLengths
	}
	out := make([]Rule, len(columns))
	for i := range columns {
		out[i] = Rule{Column: columns[i], Method: methods[i]}
	}
	return out, nil
}

// Apply scales each rule's column on a copy of t and, when l2 is set,
// normalizes every row over all numeric columns to unit Euclidean length.
// Invalid rules are logged and t is returned unchanged with the error.
func Apply(t *table.Table, rules []Rule, l2 bool, log *slog.Logger) (*table.Table, error) {
	log = logging.OrDiscard(log)
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Column
	}
	var cols []string
	if len(rules) > 0 {
		cols = table.ResolveColumns(log, names, t.NumericColumns(), "numeric column")
		if len(cols) == 0 {
			return t, ErrInvalidColumn
		}
	}
	methods := make([]Method, len(rules))
	for i, r := range rules {
		m, err := ParseMethod(r.Method)
		if err != nil {
			log.Error(ErrUnknownMethod.Error(), "method", r.Method)
			return t, ErrUnknownMethod
		}
		methods[i] = m
	}

	out := t.Clone()
	for i, name := range cols {
		Column(out, out.ColumnIndex(name), methods[i])
	}
	if l2 {
		Normalize(out)
	}
	return out, nil
}

// Column fits m on the non-null values of column c and transforms it in
// place. A zero spread leaves the scale at 1. The column becomes Float.
func Column(t *table.Table, c int, m Method) {
	var xs []float64
	for _, r := range t.Rows {
		if v := r.Values[c]; !v.Null {
			xs = append(xs, v.Num)
		}
	}
	t.SetFloat(c)
	if len(xs) == 0 {
		return
	}
	var center, spread float64
	switch m {
	case MinMax:
		lo, hi := xs[0], xs[0]
		for _, x := range xs {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		center, spread = lo, hi-lo
	case ZScore:
		center, spread = stats.MeanStd(xs, 0)
	case Robust:
		q1, q3 := stats.IQR(xs)
		center, spread = stats.Median(xs), q3-q1
	}
	if spread == 0 || math.IsNaN(spread) {
		spread = 1
	}
	for i := range t.Rows {
		v := &t.Rows[i].Values[c]
		if !v.Null {
			*v = table.Number((v.Num - center) / spread)
		}
	}
}

// Normalize divides each row's numeric cells by the row's L2 norm. Nulls
// count as zero and stay null; zero-norm rows are left as they are.
func Normalize(t *table.Table) {
	var num []int
	for c, col := range t.Columns {
		if table.IsNumeric(col.Type) {
			num = append(num, c)
		}
	}
	for _, c := range num {
		t.SetFloat(c)
	}
	for i := range t.Rows {
		vals := t.Rows[i].Values
		var sum float64
		for _, c := range num {
			if !vals[c].Null {
				sum += vals[c].Num * vals[c].Num
			}
		}
		norm := math.Sqrt(sum)
		if norm == 0 {
			continue
		}
		for _, c := range num {
			if !vals[c].Null {
				vals[c] = table.Number(vals[c].Num / norm)
			}
		}
	}
}
