package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBatch_SameBasenameGetsOwnTree(t *testing.T) {
	home := t.TempDir()

	// Two datasets with the same basename in different directories
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	for _, d := range []string{d1, d2} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	csv := "col1,col2\nA,1\nA,1\nB,2\n"
	p1 := filepath.Join(d1, "metrics.csv")
	p2 := filepath.Join(d2, "metrics.csv")
	if err := os.WriteFile(p1, []byte(csv), 0o644); err != nil {
		t.Fatalf("write p1: %v", err)
	}
	if err := os.WriteFile(p2, []byte(strings.Replace(csv, "B,2", "C,3\nD,4", 1)), 0o644); err != nil {
		t.Fatalf("write p2: %v", err)
	}

	out := runCmd(t, "batch", filepath.Join(home, "d*", "metrics.csv"), "--steps", "dedupe", "--jobs", "2")
	if !strings.Contains(out, "[2/2] Processing metrics.csv") {
		t.Fatalf("missing progress line in output:\n%s", out)
	}

	first := outputs(t, filepath.Join(home, "metrics", dirDuplicates))
	second := outputs(t, filepath.Join(home, "metrics-2", dirDuplicates))
	if got := first["dataset_cleaned_drop.csv"].Rows; got != 2 {
		t.Fatalf("first file: expected 2 rows after exact dedupe, got %d", got)
	}
	if got := second["dataset_cleaned_drop.csv"].Rows; got != 3 {
		t.Fatalf("second file: expected 3 rows after exact dedupe, got %d", got)
	}
}

func TestBatch_QuietSuppressesProgress(t *testing.T) {
	root := t.TempDir()
	path := writeDataset(t, root, "dataset.csv", peopleCSV)
	out := runCmd(t, "batch", path, "--steps", "encode", "--quiet")
	if strings.Contains(out, "Processing") {
		t.Fatalf("expected no progress output, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "dataset", dirEncode, "dataset_hashing.csv")); err != nil {
		t.Fatalf("missing hashing output: %v", err)
	}
}

func TestBatch_ScaleWithoutRulesIsSkipped(t *testing.T) {
	root := t.TempDir()
	path := writeDataset(t, root, "dataset.csv", peopleCSV)
	out := runCmd(t, "batch", path, "--steps", "scale")
	if !strings.Contains(out, "scale: dataset.csv skipped") {
		t.Fatalf("expected skip warning, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "dataset", dirScale)); !os.IsNotExist(err) {
		t.Fatalf("scale output dir should not exist: %v", err)
	}
}

func TestBatch_Scenario(t *testing.T) {
	root := t.TempDir()
	path := writeDataset(t, root, "dataset.csv", peopleCSV)
	sc := filepath.Join(root, "plan.toml")
	body := `l2 = false

[[scale]]
column = "Age"
method = "ROBUST_SCALING"

[dedupe]
columns = ["City"]
`
	if err := os.WriteFile(sc, []byte(body), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	runCmd(t, "batch", path, "--steps", "dedupe,scale", "--scenario", sc)

	dd := outputs(t, filepath.Join(root, "dataset", dirDuplicates))
	if got := dd["dataset_cleaned_drop.csv"].Rows; got != 3 {
		t.Fatalf("expected City-only dedupe to keep 3 rows, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(root, "dataset", dirScale, "dataset_scaled.csv")); err != nil {
		t.Fatalf("missing scaled output: %v", err)
	}
}

func TestFileStem(t *testing.T) {
	cases := []struct{ in, want string }{
		{"data/Sales 2024.csv", "sales-2024"},
		{"x/metrics.tsv", "metrics"},
		{"report_v1.2.xlsx", "report-v1-2"},
		{"ümlaut.csv", "mlaut"},
		{"$$$.csv", "dataset"},
	}
	for _, c := range cases {
		if got := fileStem(c.in); got != c.want {
			t.Errorf("fileStem(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
