// Package encode appends numeric encodings of categorical columns.
package encode

import (
	"crypto/md5"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Method selects the encoding.
type Method int

const (
	Label Method = iota
	OneHot
	Hashing
)

// Methods lists every encoding in output order.
var Methods = []Method{Label, OneHot, Hashing}

func (m Method) String() string {
	switch m {
	case Label:
		return "label"
	case OneHot:
		return "onehot"
	case Hashing:
		return "hashing"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod accepts the names returned by Method.String.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "label":
		return Label, nil
	case "onehot", "one-hot":
		return OneHot, nil
	case "hashing", "hash":
		return Hashing, nil
	}
	return 0, fmt.Errorf("unknown encoding method %q (use label, onehot or hashing)", s)
}

// DefaultMinHashCategories is the category count below which hashing is reported as unreasonable.
const DefaultMinHashCategories = 10

// Options configures Encode.
type Options struct {
	// Columns restricts encoding to these non-numeric columns; nil means all of them.
	Columns []string
	// MinHashCategories defaults to DefaultMinHashCategories.
	MinHashCategories int
	Logger            *slog.Logger
}

// Encode returns a copy of t with encoded columns appended after the
// originals. If the subset names a numeric or unknown column, the error is
// logged and t is returned unchanged.
func Encode(t *table.Table, m Method, opt Options) *table.Table {
	log := logging.OrDiscard(opt.Logger)
	cols := table.ResolveColumns(log, opt.Columns, t.CategoricalColumns(), "non-numeric column")
	if len(cols) == 0 {
		return t
	}
	out := t.Clone()
	for _, name := range cols {
		c := t.ColumnIndex(name)
		keys := categoryKeys(t, c)
		var err error
		switch m {
		case Label:
			err = label(out, name, keys)
		case OneHot:
			err = oneHot(out, name, keys)
		case Hashing:
			minCats := opt.MinHashCategories
			if minCats <= 0 {
				minCats = DefaultMinHashCategories
			}
			err = hashing(out, name, keys, minCats, log)
		default:
			err = fmt.Errorf("unsupported encoding method %v", m)
		}
		if err != nil {
			log.Error("Encoding failed", "column", name, "method", m.String(), "err", err)
			return t
		}
	}
	return out
}

// categoryKeys returns each row's category text; nulls read as "nan".
func categoryKeys(t *table.Table, c int) []string {
	dt := t.Columns[c].Type
	out := make([]string, t.Len())
	for i, r := range t.Rows {
		out[i] = r.Values[c].String(dt)
	}
	return out
}

func distinct(keys []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func label(t *table.Table, name string, keys []string) error {
	cats := distinct(keys)
	sort.Strings(cats)
	code := make(map[string]int, len(cats))
	for i, k := range cats {
		code[k] = i
	}
	vals := make([]table.Value, len(keys))
	for i, k := range keys {
		vals[i] = table.Number(float64(code[k]))
	}
	return t.AddColumn(table.Column{Name: name + "_encoded", Type: table.Int}, vals)
}

// oneHot appends one Float indicator per category in sorted order, with the
// null category last.
func oneHot(t *table.Table, name string, keys []string) error {
	src := t.ColumnIndex(name)
	isNull := func(i int) bool { return t.Rows[i].Values[src].Null }

	seen := map[string]struct{}{}
	var cats []string
	hasNull := false
	for i, k := range keys {
		if isNull(i) {
			hasNull = true
			continue
		}
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			cats = append(cats, k)
		}
	}
	sort.Strings(cats)

	add := func(cat string, match func(i int) bool) error {
		vals := make([]table.Value, len(keys))
		for i := range keys {
			if match(i) {
				vals[i] = table.Number(1)
			} else {
				vals[i] = table.Number(0)
			}
		}
		return t.AddColumn(table.Column{Name: name + "_" + cat, Type: table.Float}, vals)
	}
	for _, cat := range cats {
		if err := add(cat, func(i int) bool { return !isNull(i) && keys[i] == cat }); err != nil {
			return err
		}
	}
	if hasNull {
		return add("nan", isNull)
	}
	return nil
}

// hashing spreads categories over n = ceil(log2(distinct)) indicator columns
// by md5(value) mod n.
func hashing(t *table.Table, name string, keys []string, minCats int, log *slog.Logger) error {
	unique := len(distinct(keys))
	if unique < minCats {
		log.Warn(fmt.Sprintf("Hashing for category number less than %d is not reasonable (column='%s', category number=%d), and the results would not be promising!",
			minCats, name, unique))
	}
	n := 1
	if unique > 2 {
		n = int(math.Ceil(math.Log2(float64(unique))))
	}
	buckets := make([]int, len(keys))
	for i, k := range keys {
		buckets[i] = Bucket(k, n)
	}
	for b := 0; b < n; b++ {
		vals := make([]table.Value, len(keys))
		for i := range keys {
			if buckets[i] == b {
				vals[i] = table.Number(1)
			} else {
				vals[i] = table.Number(0)
			}
		}
		if err := t.AddColumn(table.Column{Name: fmt.Sprintf("%s_col_%d", name, b), Type: table.Int}, vals); err != nil {
			return err
		}
	}
	return nil
}

// Bucket returns md5(s), read as a big-endian integer, modulo n.
func Bucket(s string, n int) int {
	sum := md5.Sum([]byte(s))
	v := new(big.Int).SetBytes(sum[:])
	return int(v.Mod(v, big.NewInt(int64(n))).Int64())
}
