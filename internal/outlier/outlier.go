// Package outlier detects and handles outliers in numeric columns.
package outlier

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/KaramelBytes/datatidy-cli/internal/stats"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// DetectMethod selects the detection rule.
type DetectMethod int

const (
	IQR DetectMethod = iota
	ZScore
	ModifiedZScore
)

// DetectMethods lists every detection rule in output order.
var DetectMethods = []DetectMethod{IQR, ZScore, ModifiedZScore}

func (m DetectMethod) String() string {
	switch m {
	case IQR:
		return "IQR"
	case ZScore:
		return "ZSCORE"
	case ModifiedZScore:
		return "MZSCORE"
	}
	return fmt.Sprintf("DetectMethod(%d)", int(m))
}

// ParseDetectMethod is case-insensitive.
func ParseDetectMethod(s string) (DetectMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "iqr":
		return IQR, nil
	case "zscore", "z":
		return ZScore, nil
	case "mzscore", "modified_zscore":
		return ModifiedZScore, nil
	}
	return 0, fmt.Errorf("unknown outlier detection method %q (use iqr, zscore or mzscore)", s)
}

// HandleMethod selects what happens to detected outliers.
type HandleMethod int

const (
	Drop HandleMethod = iota
	ReplaceWithMedian
	CapWithBoundaries
)

// HandleMethods lists every handling method in output order.
var HandleMethods = []HandleMethod{Drop, ReplaceWithMedian, CapWithBoundaries}

func (m HandleMethod) String() string {
	switch m {
	case Drop:
		return "drop"
	case ReplaceWithMedian:
		return "median"
	case CapWithBoundaries:
		return "cap"
	}
	return fmt.Sprintf("HandleMethod(%d)", int(m))
}

// ParseHandleMethod accepts drop, median or cap.
func ParseHandleMethod(s string) (HandleMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop":
		return Drop, nil
	case "median", "replace_with_median":
		return ReplaceWithMedian, nil
	case "cap", "cap_with_boundaries":
		return CapWithBoundaries, nil
	}
	return 0, fmt.Errorf("unknown outlier handling method %q (use drop, median or cap)", s)
}

// Bounds is the closed inlier interval of one column.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Detection holds, per observed column, the row indices of its outliers and
// the interval they fall outside of.
type Detection struct {
	Method  DetectMethod
	Columns []string
	Indices map[string][]int
	Bounds  map[string]Bounds
}

// Count is the number of distinct rows holding at least one outlier.
func (d Detection) Count() int { return len(d.rows()) }

func (d Detection) rows() map[int]struct{} {
	out := map[int]struct{}{}
	for _, idx := range d.Indices {
		for _, i := range idx {
			out[i] = struct{}{}
		}
	}
	return out
}

// Options tunes Detect. Zero values take the defaults.
type Options struct {
	// Columns restricts detection to these numeric columns; nil means all of them.
	Columns []string
	// IQRMultiplier defaults to 1.5.
	IQRMultiplier float64
	// ZThreshold defaults to 3.
	ZThreshold float64
	// MZThreshold defaults to 3.5.
	MZThreshold float64
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.IQRMultiplier <= 0 {
		o.IQRMultiplier = 1.5
	}
	if o.ZThreshold <= 0 {
		o.ZThreshold = 3
	}
	if o.MZThreshold <= 0 {
		o.MZThreshold = 3.5
	}
	return o
}

// Detect finds outliers in each observed column. A subset that names a
// non-numeric or unknown column is logged and yields an empty Detection.
func Detect(t *table.Table, m DetectMethod, opt Options) Detection {
	opt = opt.withDefaults()
	log := logging.OrDiscard(opt.Logger)
	det := Detection{Method: m, Indices: map[string][]int{}, Bounds: map[string]Bounds{}}
	cols := table.ResolveColumns(log, opt.Columns, t.NumericColumns(), "numeric column")
	for _, name := range cols {
		c := t.ColumnIndex(name)
		xs, idx := column(t, c)
		if len(xs) == 0 {
			continue
		}
		b, ok := bounds(xs, m, opt)
		if !ok {
			continue
		}
		det.Columns = append(det.Columns, name)
		det.Bounds[name] = b
		hits := []int{}
		for k, x := range xs {
			if x < b.Lower || x > b.Upper {
				hits = append(hits, idx[k])
			}
		}
		det.Indices[name] = hits
	}
	return det
}

// column returns the non-null values of column c with their row indices.
func column(t *table.Table, c int) ([]float64, []int) {
	var xs []float64
	var idx []int
	for _, r := range t.Rows {
		if v := r.Values[c]; !v.Null {
			xs = append(xs, v.Num)
			idx = append(idx, r.Index)
		}
	}
	return xs, idx
}

func bounds(xs []float64, m DetectMethod, opt Options) (Bounds, bool) {
	switch m {
	case IQR:
		q1, q3 := stats.IQR(xs)
		k := opt.IQRMultiplier * (q3 - q1)
		return Bounds{Lower: q1 - k, Upper: q3 + k}, true
	case ZScore:
		mean, std := stats.MeanStd(xs, 1)
		if math.IsNaN(std) {
			return Bounds{}, false
		}
		return Bounds{Lower: mean - opt.ZThreshold*std, Upper: mean + opt.ZThreshold*std}, true
	case ModifiedZScore:
		med, d := stats.MedianMAD(xs)
		if d == 0 {
			return Bounds{Lower: med, Upper: med}, false
		}
		// |0.6745 (x - median) / MAD| > threshold
		k := opt.MZThreshold * d / 0.6745
		return Bounds{Lower: med - k, Upper: med + k}, true
	}
	return Bounds{}, false
}

// Handle applies m to the outliers in det and returns a new table. If det
// found nothing, t is returned unchanged.
func Handle(t *table.Table, m HandleMethod, det Detection, log *slog.Logger) *table.Table {
	log = logging.OrDiscard(log)
	rows := det.rows()
	if len(rows) == 0 {
		return t
	}
	log.Info(fmt.Sprintf("Dataset has %d rows before handling outliers values.\nTop 10 of rows containing outliers are (Totally %d rows):\n%s",
		t.Len(), len(rows), t.SelectRows(rows).Head(10)))

	var out *table.Table
	switch m {
	case Drop:
		out = t.DropRows(rows)
	case ReplaceWithMedian:
		out = t.Clone()
		for _, name := range det.Columns {
			c := out.ColumnIndex(name)
			xs, _ := column(t, c)
			med := stats.Median(xs)
			hit := indexSet(det.Indices[name])
			if len(hit) == 0 {
				continue
			}
			for i := range out.Rows {
				if _, ok := hit[out.Rows[i].Index]; ok {
					out.Rows[i].Values[c] = table.Number(med)
				}
			}
			if med != math.Trunc(med) {
				out.SetFloat(c)
			}
		}
	case CapWithBoundaries:
		out = t.Clone()
		for _, name := range det.Columns {
			c := out.ColumnIndex(name)
			b := det.Bounds[name]
			for i := range out.Rows {
				v := out.Rows[i].Values[c]
				if v.Null {
					continue
				}
				out.Rows[i].Values[c] = table.Number(math.Min(math.Max(v.Num, b.Lower), b.Upper))
			}
			out.SetFloat(c)
		}
	default:
		log.Error("Unsupported outlier handling method", "method", m.String())
		return t
	}
	log.Info(fmt.Sprintf("Dataset has %d rows after handling outliers.", out.Len()))
	return out
}

func indexSet(idx []int) map[int]struct{} {
	out := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		out[i] = struct{}{}
	}
	return out
}

// Summary renders "column: indices [bounds]" lines for logging.
func (d Detection) Summary() string {
	var b strings.Builder
	for i, c := range d.Columns {
		if i > 0 {
			b.WriteString("\n")
		}
		bd := d.Bounds[c]
		fmt.Fprintf(&b, "%s: %v [%g, %g]", c, d.Indices[c], bd.Lower, bd.Upper)
	}
	return b.String()
}
