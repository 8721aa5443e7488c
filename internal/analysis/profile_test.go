package analysis

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/datatidy-cli/internal/table"
)

func fixture() *table.Table {
	xs := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}
	cities := []string{"Rome", "Paris", "Rome", "Oslo", "Rome", "Paris", "", "Oslo", "Rome", "Paris"}
	rows := make([][]string, len(xs))
	for i, x := range xs {
		rows[i] = []string{strconv.Itoa(x), strconv.Itoa(2 * x), cities[i], "2023-01-" + pad(i+1), "", "note " + strconv.Itoa(i)}
	}
	t := table.FromRecords([]string{"x", "y", "city", "day", "blank", "memo"}, rows)
	t.InferTypes()
	t.ToDatetime(3)
	return t
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func TestProfileAndMarkdown(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 2
	opt.Correlations = true
	rep := Profile(fixture(), opt)
	rep.Name = "sample.csv"

	if rep.Rows != 10 || len(rep.Cols) != 6 {
		t.Fatalf("rows=%d cols=%d", rep.Rows, len(rep.Cols))
	}
	x := rep.Cols[0]
	if x.Kind != "numeric" || x.DType != "int64" {
		t.Fatalf("x kind=%s dtype=%s", x.Kind, x.DType)
	}
	if x.Min != 1 || x.Max != 100 || !almostEqual(x.Mean, 14.5, 1e-9) {
		t.Fatalf("x min/max/mean = %v/%v/%v", x.Min, x.Max, x.Mean)
	}
	if !almostEqual(x.Std, sampleStd([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}), 1e-9) {
		t.Fatalf("x std = %v", x.Std)
	}
	if x.OutliersCount != 1 || !almostEqual(x.OutliersMaxAbsZ, 0.6745*94.5/2.5, 1e-9) {
		t.Fatalf("outliers = %d (max %v)", x.OutliersCount, x.OutliersMaxAbsZ)
	}

	city := rep.Cols[2]
	if city.Kind != "categorical" || city.Missing != 1 || city.Unique != 3 {
		t.Fatalf("city = %+v", city)
	}
	if city.TopValues[0] != (CategoryCount{Value: "Rome", Count: 4}) || city.TopValues[1].Value != "Paris" {
		t.Fatalf("top values = %+v", city.TopValues)
	}

	day := rep.Cols[3]
	if day.Kind != "datetime" || day.First != "2023-01-01" || day.Last != "2023-01-10" {
		t.Fatalf("day = %+v", day)
	}
	if rep.Cols[4].NonNull != 0 || len(rep.Warnings) != 1 {
		t.Fatalf("blank column warnings = %v", rep.Warnings)
	}
	if rep.Cols[5].Kind != "text" || len(rep.Cols[5].ExampleTexts) != 3 {
		t.Fatalf("memo = %+v", rep.Cols[5])
	}

	if rep.Corr == nil || !almostEqual(rep.Corr.Values[0][1], 1, 1e-9) {
		t.Fatalf("corr = %+v", rep.Corr)
	}
	if len(rep.Samples) != 2 || rep.Samples[1][0] != "2" {
		t.Fatalf("samples = %v", rep.Samples)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "File: sample.csv", "Rows: 10", "Columns: 6",
		"[SCHEMA]", "- x: numeric/int64", "outliers: 1 above |z|>3.5",
		"- city: categorical/object", "Rome(4)", "2023-01-01 .. 2023-01-10",
		"[CORRELATIONS]", "- x ~ y: r=1.000",
		"[HEAD ROWS]", "| x | y | city | day | blank | memo |",
		"[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestProfileSmallColumnSkipsOutliers(t *testing.T) {
	tb := table.FromRecords([]string{"v"}, [][]string{{"1"}, {"2"}, {"1000"}})
	tb.InferTypes()
	rep := Profile(tb, DefaultOptions())
	if rep.Cols[0].OutlierThreshold != 0 || rep.Cols[0].OutliersCount != 0 {
		t.Fatalf("outliers counted on a short column: %+v", rep.Cols[0])
	}
	if strings.Contains(rep.Markdown(), "[CORRELATIONS]") {
		t.Fatal("correlations rendered without being requested")
	}
}

func TestProfileEmptyTable(t *testing.T) {
	rep := Profile(table.New("a", "b"), DefaultOptions())
	if rep.Rows != 0 || len(rep.Cols) != 2 || len(rep.Warnings) != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestSafeVal(t *testing.T) {
	if got := safeVal("a|b\nc"); got != "a/b c" {
		t.Fatalf("safeVal = %q", got)
	}
	if got := safeName("  "); got != "(unnamed)" {
		t.Fatalf("safeName = %q", got)
	}
}

func sampleStd(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	m := sum / float64(len(vals))
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
