// Package dedup removes exact and near-duplicate rows from a table.
package dedup

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Range is an inclusive acceptance interval for averaged similarity ratios.
type Range struct {
	Low, High float64
}

// DefaultRange accepts pairs scoring 90 or more.
var DefaultRange = Range{Low: 90, High: 100}

// Contains reports whether low <= r <= high. An inverted range contains nothing.
func (r Range) Contains(v float64) bool { return r.Low <= v && v <= r.High }

func (r Range) String() string { return fmt.Sprintf("(%g,%g)", r.Low, r.High) }

// ParseRange parses "low,high".
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("ratio range must be low,high: %q", s)
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Range{}, fmt.Errorf("ratio range low bound: %w", err)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Range{}, fmt.Errorf("ratio range high bound: %w", err)
	}
	return Range{Low: low, High: high}, nil
}

// Report describes one duplicate-removal pass.
type Report struct {
	Before int
	After  int
	// Shown holds every row index that belongs to a duplicate group.
	Shown []int
	// Dropped holds the indices removed; each group keeps its smallest index.
	Dropped []int
}

// Options configures DropFuzzy.
type Options struct {
	// Columns restricts comparison; nil compares every column.
	Columns []string
	// Range defaults to DefaultRange when left as the zero value.
	Range Range
	// Ratio defaults to Ratio.
	Ratio  RatioFunc
	Logger *slog.Logger
}

// DropExact keeps the first row of every distinct value combination over
// columns (all columns when nil), preserving row order.
func DropExact(t *table.Table, columns []string, log *slog.Logger) (*table.Table, Report) {
	log = logging.OrDiscard(log)
	rep := Report{Before: t.Len(), After: t.Len()}
	if t.Len() == 0 {
		return t.Clone(), rep
	}
	cols := positions(t, table.ResolveColumns(log, columns, t.Names(), "existing column"))
	if len(cols) == 0 {
		return t.Clone(), rep
	}

	groups := map[string][]int{}
	var order []string
	for _, r := range t.Rows {
		k := exactKey(t, r, cols)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r.Index)
	}
	drop := map[int]struct{}{}
	for _, k := range order {
		idx := groups[k]
		if len(idx) < 2 {
			continue
		}
		rep.Shown = append(rep.Shown, idx...)
		for _, i := range idx[1:] {
			drop[i] = struct{}{}
			rep.Dropped = append(rep.Dropped, i)
		}
	}
	sort.Ints(rep.Shown)
	sort.Ints(rep.Dropped)
	return finish(t, rep, drop, log)
}

func exactKey(t *table.Table, r table.Row, cols []int) string {
	var b strings.Builder
	for _, c := range cols {
		v := r.Values[c]
		if v.Null {
			b.WriteString("\x00")
		} else {
			b.WriteString("\x01")
			b.WriteString(v.Format(t.Columns[c].Type))
		}
		b.WriteString("\x1f")
	}
	return b.String()
}

// DropFuzzy removes near-duplicate rows. Every unordered row pair is scored by
// the mean per-column ratio of the lowercased, trimmed cell text; pairs inside
// opt.Range are grouped with Group and all but each group's smallest index
// are dropped.
func DropFuzzy(t *table.Table, opt Options) (*table.Table, Report) {
	log := logging.OrDiscard(opt.Logger)
	rep := Report{Before: t.Len(), After: t.Len()}
	if t.Len() == 0 {
		return t.Clone(), rep
	}
	cols := positions(t, table.ResolveColumns(log, opt.Columns, t.Names(), "existing column"))
	rng := opt.Range
	if rng == (Range{}) {
		rng = DefaultRange
	}
	clusters := Group(t, cols, rng, opt.Ratio)

	show := map[int]struct{}{}
	drop := map[int]struct{}{}
	for _, c := range clusters {
		keep := c.Representative()
		for _, i := range c.Members() {
			show[i] = struct{}{}
			if i != keep {
				drop[i] = struct{}{}
			}
		}
	}
	rep.Shown = sortedKeys(show)
	rep.Dropped = sortedKeys(drop)
	return finish(t, rep, drop, log)
}

// Group folds every accepted pair (i < j, lexicographic order over row
// positions) into a cluster list and returns it. Indices are the rows'
// load-time indices. An empty column set or an inverted range yields no clusters.
func Group(t *table.Table, cols []int, rng Range, ratio RatioFunc) []Cluster {
	if len(cols) == 0 || rng.Low > rng.High {
		return nil
	}
	if ratio == nil {
		ratio = Ratio
	}
	var clusters []Cluster
	n := t.Len()
	for i := 0; i < n-1; i++ {
		a := t.Rows[i]
		for j := i + 1; j < n; j++ {
			b := t.Rows[j]
			if rng.Contains(pairRatio(t, a, b, cols, ratio)) {
				clusters = accept(clusters, a.Index, b.Index)
			}
		}
	}
	return clusters
}

func pairRatio(t *table.Table, a, b table.Row, cols []int, ratio RatioFunc) float64 {
	var sum float64
	for _, c := range cols {
		dt := t.Columns[c].Type
		sum += ratio(normalize(a.Values[c].String(dt)), normalize(b.Values[c].String(dt)))
	}
	return sum / float64(len(cols))
}

func finish(t *table.Table, rep Report, drop map[int]struct{}, log *slog.Logger) (*table.Table, Report) {
	shown := map[int]struct{}{}
	for _, i := range rep.Shown {
		shown[i] = struct{}{}
	}
	log.Info(fmt.Sprintf("Dataset has %d rows before handling duplicate values.", rep.Before))
	if len(shown) > 0 {
		log.Info(fmt.Sprintf("Duplicate rows (totally %d rows, the first of each group is kept):\n%s",
			len(shown), t.SelectRows(shown).Head(10)))
	}
	out := t.DropRows(drop)
	rep.After = out.Len()
	log.Info(fmt.Sprintf("Dataset has %d rows after handling duplicate values.", rep.After))
	return out, rep
}

func positions(t *table.Table, names []string) []int {
	out := make([]int, 0, len(names))
	for _, n := range names {
		if c := t.ColumnIndex(n); c >= 0 {
			out = append(out, c)
		}
	}
	return out
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
