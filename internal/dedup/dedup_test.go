package dedup

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func people() *table.Table {
	return table.FromRecords([]string{"Name", "City"}, [][]string{
		{"Alice Smith", "Berlin"},
		{"Alic Smith", "Berlin"},
		{"Bob Jones", "Munich"},
		{"Charlie Brown", "Hamburg"},
		{"Charli Browne", "Hamburg"},
	})
}

func indices(t *table.Table) []int {
	out := make([]int, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, r.Index)
	}
	return out
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, Ratio("berlin", "berlin"))
	assert.Equal(t, 100.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.InDelta(t, 95.238, Ratio("alice smith", "alic smith"), 0.01)
	assert.InDelta(t, 92.308, Ratio("charlie brown", "charli browne"), 0.01)
	assert.InDelta(t, 0.0, Ratio("abc", "xyz"), 0.0001)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice", normalize("  ALICE \t"))
}

func TestDropFuzzy_DefaultRange(t *testing.T) {
	out, rep := DropFuzzy(people(), Options{Range: DefaultRange})
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []int{0, 2, 3}, indices(out))
	assert.Equal(t, []int{0, 1, 3, 4}, rep.Shown)
	assert.Equal(t, []int{1, 4}, rep.Dropped)
	assert.Equal(t, 5, rep.Before)
	assert.Equal(t, 3, rep.After)
}

func TestDropFuzzy_ZeroRangeUsesDefault(t *testing.T) {
	out, rep := DropFuzzy(people(), Options{})
	assert.Equal(t, []int{0, 2, 3}, indices(out))
	assert.Equal(t, []int{1, 4}, rep.Dropped)
}

func TestDropFuzzy_IntegerColumnWithGapComparesAsFloat(t *testing.T) {
	in := table.FromRecords([]string{"Name", "Age"}, [][]string{
		{"Alice", "30"},
		{"Alice", "31"},
		{"Bob", ""},
	})
	in.InferTypes()
	require.Equal(t, table.Float, in.Columns[1].Type)

	// "30.0" vs "31.0" scores 75, so the Alice rows average 87.5
	out, rep := DropFuzzy(in, Options{Range: Range{Low: 87, High: 100}})
	assert.Equal(t, []int{0, 2}, indices(out))
	assert.Equal(t, []int{1}, rep.Dropped)
}

func TestDropFuzzy_CitySubsetNarrowRange(t *testing.T) {
	in := people()
	out, rep := DropFuzzy(in, Options{Columns: []string{"City"}, Range: Range{Low: 95, High: 99}})
	assert.Equal(t, indices(in), indices(out))
	assert.Empty(t, rep.Dropped)
}

func TestDropFuzzy_PerfectMatchOnly(t *testing.T) {
	in := people()
	out, _ := DropFuzzy(in, Options{Range: Range{Low: 100, High: 100}})
	assert.Equal(t, indices(in), indices(out))
}

func TestDropFuzzy_EmptyTable(t *testing.T) {
	empty := table.New("Name", "City")
	for _, opt := range []Options{
		{Range: DefaultRange},
		{Columns: []string{"missing"}, Range: DefaultRange},
		{Range: Range{Low: 100, High: 0}},
	} {
		out, rep := DropFuzzy(empty, opt)
		assert.Equal(t, 0, out.Len())
		assert.Equal(t, []string{"Name", "City"}, out.Names())
		assert.Empty(t, rep.Shown)
	}
	out, _ := DropExact(empty, []string{"missing"}, nil)
	assert.Equal(t, 0, out.Len())
}

func TestDropFuzzy_InvertedRangeIsNoop(t *testing.T) {
	in := people()
	out, rep := DropFuzzy(in, Options{Range: Range{Low: 99, High: 10}})
	assert.Equal(t, indices(in), indices(out))
	assert.Empty(t, rep.Shown)
}

func TestDropFuzzy_InvalidSubsetLogsAndKeepsTable(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	in := people()
	out, _ := DropFuzzy(in, Options{Columns: []string{"Name", "Country"}, Range: DefaultRange, Logger: log})
	assert.Equal(t, indices(in), indices(out))
	assert.Contains(t, buf.String(), "The columns subset is not valid")
	assert.Contains(t, buf.String(), "Country")
}

func TestDropFuzzy_SubsetNamesAreTrimmed(t *testing.T) {
	out, _ := DropFuzzy(people(), Options{Columns: []string{" Name "}, Range: DefaultRange})
	assert.Equal(t, []int{0, 2, 3}, indices(out))
}

func TestDropFuzzy_RangeMonotonic(t *testing.T) {
	prev := -1
	for _, low := range []float64{100, 97, 95, 90, 70, 40, 0} {
		_, rep := DropFuzzy(people(), Options{Range: Range{Low: low, High: 100}})
		assert.GreaterOrEqual(t, len(rep.Dropped), prev, "low=%v", low)
		prev = len(rep.Dropped)
	}
	assert.Equal(t, 4, prev)
}

func TestDropFuzzy_RepresentativeAndOrder(t *testing.T) {
	in := people()
	clusters := Group(in, []int{0, 1}, DefaultRange, nil)
	out, _ := DropFuzzy(in, Options{Range: DefaultRange})
	kept := map[int]bool{}
	for _, i := range indices(out) {
		kept[i] = true
	}
	for _, c := range clusters {
		for _, m := range c.Members() {
			assert.Equal(t, m == c.Representative(), kept[m], "member %d", m)
		}
	}
	got := indices(out)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i])
	}
}

func TestDropFuzzy_KeepsLoadIndicesAfterEarlierRemoval(t *testing.T) {
	in := people().DropRows(map[int]struct{}{0: {}})
	out, _ := DropFuzzy(in, Options{Range: DefaultRange})
	assert.Equal(t, []int{1, 2, 3}, indices(out))
}

// pairs accepts exactly the listed value pairs.
func pairs(accepted ...string) RatioFunc {
	ok := map[string]bool{}
	for _, p := range accepted {
		ok[p] = true
	}
	return func(a, b string) float64 {
		if a == b || ok[a+"|"+b] || ok[b+"|"+a] {
			return 100
		}
		return 0
	}
}

func TestGroup_BridgingPairDoesNotMerge(t *testing.T) {
	in := table.FromRecords([]string{"k"}, [][]string{{"a"}, {"b"}, {"c"}, {"d"}})
	ratio := pairs("a|d", "b|c", "b|d")

	clusters := Group(in, []int{0}, DefaultRange, ratio)
	require.Len(t, clusters, 2)
	assert.Equal(t, []int{0, 1, 3}, clusters[0].Members())
	assert.Equal(t, []int{1, 2}, clusters[1].Members())

	out, rep := DropFuzzy(in, Options{Range: DefaultRange, Ratio: ratio})
	assert.Equal(t, []int{0}, indices(out))
	assert.Equal(t, []int{1, 2, 3}, rep.Dropped)
}

func TestGroup_NoColumns(t *testing.T) {
	assert.Nil(t, Group(people(), nil, DefaultRange, nil))
}

func TestGroup_NullsCompareAsNan(t *testing.T) {
	in := table.FromRecords([]string{"a", "b"}, [][]string{{"x", ""}, {"x", ""}, {"x", "nan"}})
	clusters := Group(in, []int{0, 1}, Range{Low: 100, High: 100}, nil)
	require.Len(t, clusters, 1)
	assert.Equal(t, []int{0, 1, 2}, clusters[0].Members())
}

func TestDropFuzzy_PerfectRangeMatchesExact(t *testing.T) {
	in := table.FromRecords([]string{"a", "b"}, [][]string{
		{"x", "1"}, {"y", "2"}, {"x", "1"}, {"y", "3"}, {"y", "2"},
	})
	fuzzy, _ := DropFuzzy(in, Options{Range: Range{Low: 100, High: 100}})
	exact, _ := DropExact(in, nil, nil)
	assert.Equal(t, indices(exact), indices(fuzzy))
	assert.Equal(t, []int{0, 1, 3}, indices(exact))
}

func TestDropExact(t *testing.T) {
	src := "First Name,Last Name,Age\nJohn,Doe,30\nJane,Doe,25\nJohn,Doe,30\nJohn,Doe,31\nJim,Beam,40\n"
	in, err := table.ReadCSV(strings.NewReader(src), ',')
	require.NoError(t, err)
	in.InferTypes()

	all, rep := DropExact(in, nil, nil)
	assert.Equal(t, 4, all.Len())
	assert.Equal(t, []int{0, 2}, rep.Shown)
	assert.Equal(t, []int{2}, rep.Dropped)

	sub, rep := DropExact(in, []string{"First Name", "Last Name"}, nil)
	assert.Equal(t, []int{0, 1, 4}, indices(sub))
	assert.Equal(t, []int{2, 3}, rep.Dropped)
	assert.Equal(t, []int{0, 2, 3}, rep.Shown)
}

func TestDropExact_InvalidSubset(t *testing.T) {
	in := people()
	out, rep := DropExact(in, []string{"Country"}, nil)
	assert.Equal(t, in.Len(), out.Len())
	assert.Empty(t, rep.Dropped)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("85, 99.5")
	require.NoError(t, err)
	assert.Equal(t, Range{Low: 85, High: 99.5}, r)
	assert.True(t, r.Contains(85))
	assert.True(t, r.Contains(99.5))
	assert.False(t, r.Contains(99.6))

	for _, bad := range []string{"", "90", "a,100", "90,b", "1,2,3"} {
		_, err := ParseRange(bad)
		assert.Error(t, err, bad)
	}
}
