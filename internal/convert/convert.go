// Package convert changes column datatypes, either by inference or by
// user-supplied rules.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

// Target is the datatype a rule converts a column to.
type Target int

const (
	Int Target = iota
	Float
	Datetime
)

func (t Target) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Datetime:
		return "datetime"
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// ParseTarget accepts "int", "float" or "datetime".
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "datetime":
		return Datetime, nil
	}
	return 0, fmt.Errorf("unknown datatype %q (use int, float or datetime)", s)
}

// Rule converts one column. Format is a strftime pattern and is required
// for, and only accepted with, the datetime target.
type Rule struct {
	Column   string `yaml:"column" toml:"column"`
	Datatype string `yaml:"datatype" toml:"datatype"`
	Format   string `yaml:"format" toml:"format"`
}

var (
	ErrRuleLengths    = errors.New("column, datatype and format lists must have the same length")
	ErrUnknownColumn  = errors.New("at least one of the columns provided in the scenario is not valid")
	ErrUnknownTarget  = errors.New("at least one of the datatypes provided in the scenario is not valid; use int, float or datetime")
	ErrFormatMisuse   = errors.New("only datetime conversion accepts a format")
	ErrFormatRequired = errors.New("datetime conversion needs a format")
)

// Rules zips parallel column, datatype and format lists.
func Rules(columns, datatypes, formats []string) ([]Rule, error) {
	if len(columns) != len(datatypes) || len(columns) != len(formats) {
		return nil, ErrRuleLengths
	}
	out := make([]Rule, len(columns))
	for i := range columns {
		out[i] = Rule{Column: columns[i], Datatype: datatypes[i], Format: formats[i]}
	}
	return out, nil
}

// Auto converts number-looking text columns to Int or Float and, failing
// that, datetime-looking text columns to Datetime. Other columns are kept.
func Auto(t *table.Table, log *slog.Logger) *table.Table {
	log = logging.OrDiscard(log)
	out := t.Clone()
	log.Info("Datatypes before automatic conversion:\n" + out.Dtypes())
	for c := range out.Columns {
		if out.ToNumeric(c) {
			continue
		}
		out.ToDatetime(c)
	}
	log.Info("Datatypes after automatic conversion:\n" + out.Dtypes())
	return out
}

type plan struct {
	col    int
	target Target
	layout string
}

// Apply runs rules in order on a copy of t. Any rejected rule or failed cell
// conversion is logged and returned together with t itself, unchanged.
func Apply(t *table.Table, rules []Rule, log *slog.Logger) (*table.Table, error) {
	log = logging.OrDiscard(log)
	log.Info("Datatypes before user-defined conversion:\n" + t.Dtypes())

	plans, err := validate(t, rules)
	if err != nil {
		log.Error(err.Error())
		return t, err
	}
	out := t.Clone()
	for _, p := range plans {
		if err := convertColumn(out, p); err != nil {
			err = fmt.Errorf("conversion failed for column %q: %w", out.Columns[p.col].Name, err)
			log.Error(err.Error())
			return t, err
		}
	}
	log.Info("Datatypes after user-defined conversion:\n" + out.Dtypes())
	return out, nil
}

func validate(t *table.Table, rules []Rule) ([]plan, error) {
	plans := make([]plan, len(rules))
	for i, r := range rules {
		c := t.ColumnIndex(strings.TrimSpace(r.Column))
		if c < 0 {
			return nil, ErrUnknownColumn
		}
		plans[i].col = c
	}
	for i, r := range rules {
		tg, err := ParseTarget(r.Datatype)
		if err != nil {
			return nil, ErrUnknownTarget
		}
		plans[i].target = tg
	}
	for i, r := range rules {
		if strings.TrimSpace(r.Format) != "" && plans[i].target != Datetime {
			return nil, ErrFormatMisuse
		}
	}
	for i, r := range rules {
		f := strings.TrimSpace(r.Format)
		if plans[i].target != Datetime {
			continue
		}
		if f == "" {
			return nil, ErrFormatRequired
		}
		l, err := Layout(f)
		if err != nil {
			return nil, err
		}
		plans[i].layout = l
	}
	return plans, nil
}

func convertColumn(t *table.Table, p plan) error {
	col := &t.Columns[p.col]
	switch p.target {
	case Int:
		if col.Type == table.Int {
			return nil
		}
		vals := make([]table.Value, t.Len())
		for i, r := range t.Rows {
			n, err := toInt(r.Values[p.col], col.Type)
			if err != nil {
				return fmt.Errorf("row %d: %w", r.Index, err)
			}
			vals[i] = table.Number(float64(n))
		}
		setColumn(t, p.col, vals)
		col.Type = table.Int
	case Float:
		if col.Type == table.Float {
			return nil
		}
		vals := make([]table.Value, t.Len())
		for i, r := range t.Rows {
			v := r.Values[p.col]
			if v.Null {
				vals[i] = table.Missing
				continue
			}
			switch col.Type {
			case table.Int:
				vals[i] = v
			case table.String:
				f, ok := table.ProbeFloat(v.Str)
				if !ok {
					return fmt.Errorf("row %d: could not convert %q to float", r.Index, v.Str)
				}
				vals[i] = table.Number(f)
			default:
				return fmt.Errorf("cannot convert %s to float", col.Type)
			}
		}
		setColumn(t, p.col, vals)
		col.Type = table.Float
	case Datetime:
		if col.Type != table.String {
			return nil
		}
		vals := make([]table.Value, t.Len())
		for i, r := range t.Rows {
			v := r.Values[p.col]
			if v.Null {
				vals[i] = table.Missing
				continue
			}
			ts, err := time.Parse(p.layout, strings.TrimSpace(v.Str))
			if err != nil {
				return fmt.Errorf("row %d: %w", r.Index, err)
			}
			vals[i] = table.Timestamp(ts)
		}
		setColumn(t, p.col, vals)
		col.Type = table.Datetime
	}
	return nil
}

func toInt(v table.Value, d table.DType) (int64, error) {
	if v.Null {
		return 0, errors.New("cannot convert a missing value to integer")
	}
	switch d {
	case table.Float:
		if math.IsInf(v.Num, 0) {
			return 0, errors.New("cannot convert an infinite value to integer")
		}
		return int64(v.Num), nil
	case table.Datetime:
		return 0, errors.New("cannot convert a datetime to integer")
	}
	n, ok := table.ProbeInt(v.Str)
	if !ok {
		return 0, fmt.Errorf("invalid literal for int: %q", v.Str)
	}
	return n, nil
}

func setColumn(t *table.Table, c int, vals []table.Value) {
	for i := range t.Rows {
		t.Rows[i].Values[c] = vals[i]
	}
}
