package table

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const people = "\uFEFFName , Age,Salary,Joined\nAlice,30,1200.5,2023-01-02\nBob,,900,2023-02-03\nCara,41,,\n"

func TestReadCSV_HeaderAndNulls(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader(people), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age", "Salary", "Joined"}, tb.Names())
	require.Equal(t, 3, tb.Len())
	assert.True(t, tb.Rows[1].Values[1].Null)
	assert.Equal(t, []int{0, 1, 1, 1}, tb.NullCounts())
	for i, r := range tb.Rows {
		assert.Equal(t, i, r.Index)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader(""), 0)
	require.NoError(t, err)
	assert.Zero(t, tb.Len())
	assert.Empty(t, tb.Columns)
}

func TestReadCSV_ShortRecordsArePadded(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader("a;b;c\n1;2\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tb.Names())
	assert.True(t, tb.Rows[0].Values[2].Null)
}

func TestInferTypes(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader(people), 0)
	require.NoError(t, err)
	tb.InferTypes()
	assert.Equal(t, String, tb.Columns[0].Type)
	assert.Equal(t, Float, tb.Columns[1].Type, "integers with a gap become float")
	assert.Equal(t, Float, tb.Columns[2].Type)
	assert.Equal(t, String, tb.Columns[3].Type, "datetimes stay text")
	assert.Equal(t, []string{"Age", "Salary"}, tb.NumericColumns())
	assert.Equal(t, []string{"Name", "Joined"}, tb.CategoricalColumns())

	require.True(t, tb.ToDatetime(3))
	assert.Equal(t, time.Date(2023, 2, 3, 0, 0, 0, 0, time.UTC), tb.Rows[1].Values[3].Time)
	assert.False(t, tb.ToDatetime(0))
}

func TestProbeNumeric_IntWithGapIsFloat(t *testing.T) {
	tb := FromRecords([]string{"a", "b"}, [][]string{{"30", "1"}, {"", "2"}})
	dt, ok := tb.ProbeNumeric(0)
	assert.True(t, ok)
	assert.Equal(t, Float, dt)
	tb.InferTypes()
	assert.Equal(t, Int, tb.Columns[1].Type)
	assert.Equal(t, "30.0", tb.Rows[0].Values[0].String(tb.Columns[0].Type))
}

func TestProbeNumeric_AllNull(t *testing.T) {
	tb := FromRecords([]string{"x"}, [][]string{{""}, {" "}})
	_, ok := tb.ProbeNumeric(0)
	assert.False(t, ok)
	assert.False(t, tb.ToNumeric(0))
}

func TestValueFormat(t *testing.T) {
	assert.Equal(t, "", Missing.Format(Int))
	assert.Equal(t, "nan", Missing.String(Float))
	assert.Equal(t, "3", Number(3).Format(Int))
	assert.Equal(t, "3.0", Number(3).Format(Float))
	assert.Equal(t, "2.5", Number(2.5).Format(Float))
	assert.Equal(t, "1e-05", Number(0.00001).Format(Float))
	assert.Equal(t, "0.0001", Number(0.0001).Format(Float))
	assert.Equal(t, "1e+20", Number(1e20).Format(Float))
	assert.Equal(t, "1.5e+16", Number(1.5e16).Format(Float))
	assert.Equal(t, "1000000000000000.0", Number(1e15).Format(Float))
	assert.Equal(t, "-0.0", Number(math.Copysign(0, -1)).Format(Float))
	assert.Equal(t, "inf", Number(math.Inf(1)).Format(Float))
	assert.Equal(t, "2023-01-02", Timestamp(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)).Format(Datetime))
	assert.Equal(t, "2023-01-02 03:04:05", Timestamp(time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)).Format(Datetime))
	assert.True(t, Number(math.NaN()).Null)
}

func TestDropAndSelectRowsKeepIndices(t *testing.T) {
	tb := FromRecords([]string{"v"}, [][]string{{"a"}, {"b"}, {"c"}, {"d"}})
	out := tb.DropRows(map[int]struct{}{1: {}, 2: {}})
	require.Equal(t, 2, out.Len())
	assert.Equal(t, 0, out.Rows[0].Index)
	assert.Equal(t, 3, out.Rows[1].Index)
	assert.Equal(t, 4, tb.Len())

	sel := tb.SelectRows(map[int]struct{}{2: {}})
	require.Equal(t, 1, sel.Len())
	assert.Equal(t, "c", sel.Rows[0].Values[0].Str)

	cp := tb.Clone()
	cp.Rows[0].Values[0] = Text("z")
	assert.Equal(t, "a", tb.Rows[0].Values[0].Str)
}

func TestAddColumn(t *testing.T) {
	tb := FromRecords([]string{"v"}, [][]string{{"a"}, {"b"}})
	require.NoError(t, tb.AddColumn(Column{Name: "n", Type: Int}, []Value{Number(1), Number(2)}))
	assert.Equal(t, []string{"v", "n"}, tb.Names())
	assert.Error(t, tb.AddColumn(Column{Name: "bad"}, []Value{Missing}))
}

func TestResolveColumns(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := logging.New(logging.Options{Stderr: &buf})
	require.NoError(t, err)
	allowed := []string{"a", "b"}

	assert.Equal(t, allowed, ResolveColumns(log, nil, allowed, "column"))
	assert.Equal(t, []string{"b"}, ResolveColumns(log, []string{" b "}, allowed, "column"))
	assert.Empty(t, ResolveColumns(log, []string{"a", "z"}, allowed, "column"))
	assert.Contains(t, buf.String(), "The columns subset is not valid")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader(people), 0)
	require.NoError(t, err)
	tb.InferTypes()
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, tb.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "Name,Age,Salary,Joined", lines[0])
	assert.Equal(t, "Bob,,900.0,2023-02-03", lines[2])

	back, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, tb.Render(), back.Render())
}

func TestLoad_TSVByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.tsv")
	require.NoError(t, os.WriteFile(path, []byte("a\tb\n1\t2\n"), 0o644))
	tb, err := Load(path, LoadOptions{Raw: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tb.Names())
	assert.Equal(t, String, tb.Columns[0].Type)
}

func TestHead(t *testing.T) {
	tb := FromRecords([]string{"k", "v"}, [][]string{{"a", "1"}, {"b", ""}, {"c", "3"}})
	tb.InferTypes()
	want := "   k    v\n0  a    1\n1  b  nan"
	assert.Equal(t, want, tb.Head(2))
	assert.Equal(t, "k: object\nv: int64", tb.Dtypes())
}
