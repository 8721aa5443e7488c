package convert

import (
	"testing"
	"time"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func column(t *testing.T, tb *table.Table, name string) table.Column {
	t.Helper()
	c := tb.ColumnIndex(name)
	require.GreaterOrEqual(t, c, 0, "column %q", name)
	return tb.Columns[c]
}

func TestAuto(t *testing.T) {
	in := table.FromRecords([]string{"Name", "Age", "Score", "Test Date"}, [][]string{
		{"Alice", "25", "89.5", "2024-04-10"},
		{"Bob", "30", "92.3", "2024-04-12"},
	})
	out := Auto(in, nil)
	assert.Equal(t, table.String, column(t, out, "Name").Type)
	assert.Equal(t, table.Int, column(t, out, "Age").Type)
	assert.Equal(t, table.Float, column(t, out, "Score").Type)
	assert.Equal(t, table.Datetime, column(t, out, "Test Date").Type)

	// input untouched
	assert.Equal(t, table.String, column(t, in, "Age").Type)

	d, _ := out.Cell(1, "Test Date")
	assert.Equal(t, time.Date(2024, 4, 12, 0, 0, 0, 0, time.UTC), d.Time)
}

func TestApply(t *testing.T) {
	in := table.FromRecords([]string{"High School Percentage", "Test Date"}, [][]string{
		{"80", "04/10/2024"},
		{"90", "04/12/2024"},
	})
	rules, err := Rules([]string{"High School Percentage", " Test Date "}, []string{"float", "datetime"}, []string{"", " %m/%d/%Y"})
	require.NoError(t, err)

	out, err := Apply(in, rules, nil)
	require.NoError(t, err)
	assert.Equal(t, table.Float, column(t, out, "High School Percentage").Type)
	assert.Equal(t, table.Datetime, column(t, out, "Test Date").Type)

	v, _ := out.Cell(0, "High School Percentage")
	assert.Equal(t, "80.0", v.Format(table.Float))
	d, _ := out.Cell(0, "Test Date")
	assert.Equal(t, "2024-04-10", d.Format(table.Datetime))
}

func TestApply_IntFromFloatTruncates(t *testing.T) {
	in := table.FromRecords([]string{"x"}, [][]string{{"1.9"}, {"-2.5"}})
	in.InferTypes()
	out, err := Apply(in, []Rule{{Column: "x", Datatype: "int"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, table.Int, out.Columns[0].Type)
	assert.Equal(t, 1.0, out.Rows[0].Values[0].Num)
	assert.Equal(t, -2.0, out.Rows[1].Values[0].Num)
}

func TestApply_Rejections(t *testing.T) {
	in := table.FromRecords([]string{"Some Column", "When"}, [][]string{{"80", "2024-01-01"}, {"90", ""}})
	cases := []struct {
		name string
		rule Rule
		want error
	}{
		{"unknown column", Rule{Column: "Not Exist", Datatype: "int"}, ErrUnknownColumn},
		{"unknown type", Rule{Column: "Some Column", Datatype: "strange_type"}, ErrUnknownTarget},
		{"format on int", Rule{Column: "Some Column", Datatype: "int", Format: "%Y"}, ErrFormatMisuse},
		{"datetime without format", Rule{Column: "When", Datatype: "datetime"}, ErrFormatRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Apply(in, []Rule{tc.rule}, nil)
			assert.ErrorIs(t, err, tc.want)
			assert.Same(t, in, out)
		})
	}
}

func TestApply_FailureIsAtomic(t *testing.T) {
	in := table.FromRecords([]string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}})
	out, err := Apply(in, []Rule{
		{Column: "a", Datatype: "int"},
		{Column: "b", Datatype: "float"},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "b"`)
	assert.Same(t, in, out)
	assert.Equal(t, table.String, in.Columns[0].Type)
}

func TestApply_IntRejectsMissing(t *testing.T) {
	in := table.FromRecords([]string{"a"}, [][]string{{"1"}, {""}})
	_, err := Apply(in, []Rule{{Column: "a", Datatype: "int"}}, nil)
	assert.Error(t, err)
}

func TestApply_DatetimeSkipsNumeric(t *testing.T) {
	in := table.FromRecords([]string{"a"}, [][]string{{"1"}, {"2"}})
	in.InferTypes()
	out, err := Apply(in, []Rule{{Column: "a", Datatype: "datetime", Format: "%Y"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, table.Int, out.Columns[0].Type)
}

func TestRules_UnequalLengths(t *testing.T) {
	_, err := Rules([]string{"col1"}, []string{"dtype1", "dtype2"}, []string{""})
	assert.ErrorIs(t, err, ErrRuleLengths)
}

func TestLayout(t *testing.T) {
	cases := map[string]string{
		"%m/%d/%Y":          "01/02/2006",
		"%Y-%m-%d %H:%M:%S": "2006-01-02 15:04:05",
		"%d %b %y":          "02 Jan 06",
		"100%%":             "100%",
	}
	for in, want := range cases {
		got, err := Layout(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := Layout("%Q")
	assert.Error(t, err)
	_, err = Layout("%Y%")
	assert.Error(t, err)
}

func TestParseTarget(t *testing.T) {
	for _, tg := range []Target{Int, Float, Datetime} {
		got, err := ParseTarget(tg.String())
		require.NoError(t, err)
		assert.Equal(t, tg, got)
	}
	_, err := ParseTarget("str")
	assert.Error(t, err)
}
