package table

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// DType is the storage type of a column.
type DType int

const (
	String DType = iota
	Int
	Float
	Datetime
)

func (d DType) String() string {
	switch d {
	case String:
		return "object"
	case Int:
		return "int64"
	case Float:
		return "float64"
	case Datetime:
		return "datetime64"
	}
	return "unknown"
}

// IsNumeric reports whether values of d are held in Value.Num.
func IsNumeric(d DType) bool { return d == Int || d == Float }

// Column describes one table column.
type Column struct {
	Name string
	Type DType
}

// Value is a single cell. Which field is meaningful depends on the column type:
// Str for String, Num for Int and Float, Time for Datetime.
type Value struct {
	Null bool
	Str  string
	Num  float64
	Time time.Time
}

// Missing is the null cell.
var Missing = Value{Null: true}

// Text returns a String cell.
func Text(s string) Value { return Value{Str: s} }

// Number returns a numeric cell.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing
	}
	return Value{Num: f}
}

// Timestamp returns a Datetime cell.
func Timestamp(t time.Time) Value { return Value{Time: t} }

// Format renders v for CSV output. Nulls render empty.
func (v Value) Format(d DType) string {
	if v.Null {
		return ""
	}
	switch d {
	case Int:
		return strconv.FormatInt(int64(v.Num), 10)
	case Float:
		return formatFloat(v.Num)
	case Datetime:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 && v.Time.Nanosecond() == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format("2006-01-02 15:04:05")
	}
	return v.Str
}

// formatFloat prints f the way a dataframe prints a float64 scalar: shortest
// round-trip digits, always a decimal point, exponent form below 1e-4 or from
// 1e16 on.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// String coerces v to text the way a dataframe prints a scalar; nulls become "nan".
func (v Value) String(d DType) string {
	if v.Null {
		return "nan"
	}
	return v.Format(d)
}

// Row is one record plus the index it was assigned at load time.
type Row struct {
	Index  int
	Values []Value
}

// Table is an in-memory, row-major dataset.
type Table struct {
	Columns []Column
	Rows    []Row
}

// New returns an empty table with the given String columns.
func New(names ...string) *Table {
	t := &Table{Columns: make([]Column, len(names))}
	for i, n := range names {
		t.Columns[i] = Column{Name: n, Type: String}
	}
	return t
}

// FromRecords builds an all-String table. Empty cells become nulls and short
// records are padded.
func FromRecords(header []string, records [][]string) *Table {
	t := New(header...)
	for _, rec := range records {
		t.AppendRecord(rec)
	}
	return t
}

// AppendRecord appends a row of raw text cells.
func (t *Table) AppendRecord(rec []string) {
	vals := make([]Value, len(t.Columns))
	for i := range vals {
		if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
			vals[i] = Missing
			continue
		}
		vals[i] = Text(rec[i])
	}
	t.Rows = append(t.Rows, Row{Index: len(t.Rows), Values: vals})
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row position r for the named column.
func (t *Table) Cell(r int, name string) (Value, bool) {
	c := t.ColumnIndex(name)
	if c < 0 || r < 0 || r >= len(t.Rows) {
		return Value{}, false
	}
	return t.Rows[r].Values[c], true
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{Columns: append([]Column(nil), t.Columns...), Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = Row{Index: r.Index, Values: append([]Value(nil), r.Values...)}
	}
	return out
}

// Empty returns a copy of t's columns with no rows.
func (t *Table) Empty() *Table {
	return &Table{Columns: append([]Column(nil), t.Columns...)}
}

// DropRows returns a copy without the rows whose load-time index is in drop.
// Retained rows keep their relative order.
func (t *Table) DropRows(drop map[int]struct{}) *Table {
	out := t.Empty()
	for _, r := range t.Rows {
		if _, ok := drop[r.Index]; ok {
			continue
		}
		out.Rows = append(out.Rows, Row{Index: r.Index, Values: append([]Value(nil), r.Values...)})
	}
	return out
}

// SelectRows returns a copy holding only the rows whose index is in keep, in table order.
func (t *Table) SelectRows(keep map[int]struct{}) *Table {
	out := t.Empty()
	for _, r := range t.Rows {
		if _, ok := keep[r.Index]; ok {
			out.Rows = append(out.Rows, Row{Index: r.Index, Values: append([]Value(nil), r.Values...)})
		}
	}
	return out
}

// AddColumn appends a column; vals must have one entry per row.
func (t *Table) AddColumn(col Column, vals []Value) error {
	if len(vals) != len(t.Rows) {
		return fmt.Errorf("add column %q: got %d values for %d rows", col.Name, len(vals), len(t.Rows))
	}
	t.Columns = append(t.Columns, col)
	for i := range t.Rows {
		t.Rows[i].Values = append(t.Rows[i].Values, vals[i])
	}
	return nil
}

// ColumnValues returns the values of column position c.
func (t *Table) ColumnValues(c int) []Value {
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[c]
	}
	return out
}

// NullCounts returns the number of nulls per column, in column order.
func (t *Table) NullCounts() []int {
	out := make([]int, len(t.Columns))
	for _, r := range t.Rows {
		for c, v := range r.Values {
			if v.Null {
				out[c]++
			}
		}
	}
	return out
}

// NumericColumns lists Int and Float columns.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if IsNumeric(c.Type) {
			out = append(out, c.Name)
		}
	}
	return out
}

// CategoricalColumns lists every non-numeric column.
func (t *Table) CategoricalColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if !IsNumeric(c.Type) {
			out = append(out, c.Name)
		}
	}
	return out
}

// ResolveColumns validates a user-supplied subset against allowed. Names are
// trimmed. A nil or empty subset resolves to allowed. If any name is not in
// allowed the error is logged and the result is empty.
func ResolveColumns(log *slog.Logger, subset, allowed []string, what string) []string {
	if len(subset) == 0 {
		return allowed
	}
	ok := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		ok[a] = struct{}{}
	}
	out := make([]string, 0, len(subset))
	for _, s := range subset {
		name := strings.TrimSpace(s)
		if _, found := ok[name]; !found {
			if log != nil {
				log.Error("The columns subset is not valid", "column", name, "expected", what)
			}
			return nil
		}
		out = append(out, name)
	}
	return out
}

// Dtypes renders "name: dtype" lines for logging.
func (t *Table) Dtypes() string {
	var b strings.Builder
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", c.Name, c.Type)
	}
	return b.String()
}

// Head renders the first n rows as an aligned text block for log output.
func (t *Table) Head(n int) string {
	rows := t.Rows
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return t.render(rows)
}

// Render renders every row.
func (t *Table) Render() string { return t.render(t.Rows) }

func (t *Table) render(rows []Row) string {
	cells := make([][]string, 0, len(rows)+1)
	head := []string{""}
	head = append(head, t.Names()...)
	cells = append(cells, head)
	for _, r := range rows {
		line := []string{strconv.Itoa(r.Index)}
		for c, v := range r.Values {
			line = append(line, v.String(t.Columns[c].Type))
		}
		cells = append(cells, line)
	}
	widths := make([]int, len(head))
	for _, line := range cells {
		for i, s := range line {
			if w := len([]rune(s)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	var b strings.Builder
	for li, line := range cells {
		if li > 0 {
			b.WriteString("\n")
		}
		for i, s := range line {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(s))))
			b.WriteString(s)
		}
	}
	return b.String()
}
