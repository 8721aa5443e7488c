// Package analysis profiles a loaded dataset and renders the result as Markdown.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/stats"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Options controls profiling.
type Options struct {
	// SampleRows determines how many leading rows to include in the report.
	SampleRows int
	// Outliers counts robust Z-score (MAD) outliers per numeric column.
	Outliers         bool
	OutlierThreshold float64
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// TopValues caps the categorical value list.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly profile of a tabular dataset.
type Report struct {
	Name     string          `json:"name,omitempty"`
	Rows     int             `json:"rows"`
	Cols     []ColumnSummary `json:"columns"`
	Samples  [][]string      `json:"samples,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
	Corr     *CorrMatrix     `json:"correlations,omitempty"`
}

// ColumnSummary captures the column type and statistics.
type ColumnSummary struct {
	Name    string `json:"name"`
	DType   string `json:"dtype"`
	Kind    string `json:"kind"` // numeric|datetime|categorical|text
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats; Std is the sample standard deviation.
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Earliest and latest datetime values, formatted.
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`

	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

// minOutlierValues is the smallest column for which MAD outliers are counted.
const minOutlierValues = 8

// Profile summarizes every column of t.
func Profile(t *table.Table, opt Options) *Report {
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	rep := &Report{Rows: t.Len()}
	var numCols []int
	for c, col := range t.Columns {
		s := ColumnSummary{Name: col.Name, DType: col.Type.String()}
		vals := t.ColumnValues(c)
		distinct := map[string]int{}
		var examples []string
		for _, v := range vals {
			if v.Null {
				s.Missing++
				continue
			}
			s.NonNull++
			key := v.Format(col.Type)
			if distinct[key] == 0 && len(examples) < 3 {
				examples = append(examples, key)
			}
			distinct[key]++
		}
		s.Unique = len(distinct)

		switch {
		case table.IsNumeric(col.Type):
			s.Kind = "numeric"
			numCols = append(numCols, c)
			xs := numbers(vals)
			var w stats.Welford
			for _, x := range xs {
				w.Add(x)
			}
			if w.N > 0 {
				s.Min, s.Max, s.Mean = w.Min, w.Max, w.Mean
			}
			if std := w.Std(1); !math.IsNaN(std) {
				s.Std = std
			}
			if opt.Outliers && len(xs) >= minOutlierValues {
				s.OutlierThreshold = opt.OutlierThreshold
				if s.OutlierThreshold <= 0 {
					s.OutlierThreshold = 3.5
				}
				s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(xs, s.OutlierThreshold)
			}
		case col.Type == table.Datetime:
			s.Kind = "datetime"
			first, last := -1, -1
			for i, v := range vals {
				if v.Null {
					continue
				}
				if first < 0 || v.Time.Before(vals[first].Time) {
					first = i
				}
				if last < 0 || v.Time.After(vals[last].Time) {
					last = i
				}
			}
			if first >= 0 {
				s.First = vals[first].Format(col.Type)
				s.Last = vals[last].Format(col.Type)
			}
		case isCategorical(s.Unique, s.NonNull):
			s.Kind = "categorical"
			s.TopValues = topValues(distinct, opt.TopValues)
		default:
			s.Kind = "text"
			s.ExampleTexts = examples
		}
		if s.NonNull == 0 && t.Len() > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q is entirely missing", col.Name))
		}
		rep.Cols = append(rep.Cols, s)
	}

	for i := 0; i < len(t.Rows) && i < opt.SampleRows; i++ {
		row := make([]string, len(t.Columns))
		for c, col := range t.Columns {
			row[c] = t.Rows[i].Values[c].Format(col.Type)
		}
		rep.Samples = append(rep.Samples, row)
	}

	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(t, numCols)
	}
	return rep
}

// isCategorical treats a string column as categorical when each value
// repeats at least twice on average.
func isCategorical(unique, nonNull int) bool {
	return unique > 0 && unique*2 <= nonNull
}

func numbers(vals []table.Value) []float64 {
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !v.Null {
			xs = append(xs, v.Num)
		}
	}
	return xs
}

func robustOutliers(xs []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := stats.MedianMAD(xs)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range xs {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

func topValues(counts map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// correlations uses pairwise-complete rows for every column pair.
func correlations(t *table.Table, numCols []int) *CorrMatrix {
	n := len(numCols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range numCols {
		m.Columns[i] = t.Columns[c].Name
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(t, numCols[a], numCols[b])
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}

func pearson(t *table.Table, ca, cb int) float64 {
	var cnt, sumX, sumY, sumXX, sumYY, sumXY float64
	for _, row := range t.Rows {
		x, y := row.Values[ca], row.Values[cb]
		if x.Null || y.Null {
			continue
		}
		cnt++
		sumX += x.Num
		sumY += y.Num
		sumXX += x.Num * x.Num
		sumYY += y.Num * y.Num
		sumXY += x.Num * y.Num
	}
	if cnt < 2 {
		return 0
	}
	denom := math.Sqrt((cnt*sumXX - sumX*sumX) * (cnt*sumYY - sumY*sumY))
	if denom == 0 {
		return 0
	}
	r := (cnt*sumXY - sumX*sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s/%s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.DType, c.NonNull, missPct, c.Unique))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "datetime":
			if c.First != "" {
				b.WriteString(fmt.Sprintf(": %s .. %s", c.First, c.Last))
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(": e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai := math.Abs(pairs[i].R)
			aj := math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
