package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/KaramelBytes/datatidy-cli/internal/convert"
	"github.com/KaramelBytes/datatidy-cli/internal/dedup"
	"github.com/KaramelBytes/datatidy-cli/internal/scenario"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
)

var (
	bSteps      []string
	bJobs       int
	bScenario   string
	bTimeColumn string
	bQuiet      bool
)

// batchSteps lists the utilities batch can run, in execution order.
var batchSteps = []string{"dedupe", "convert", "encode", "impute", "outliers", "scale"}

// batchPlan holds the per-step settings shared by every file.
type batchPlan struct {
	steps      []string
	dedupe     dedupeOptions
	convert    []convert.Rule
	scale      scaleOptions
	timeColumn string
}

var batchCmd = &cobra.Command{
	Use:   "batch <files...>",
	Short: "Run several utilities over many CSV/TSV/XLSX files concurrently",
	Long: `Runs the selected --steps over every matched file with at most --jobs files in flight.
Each file gets its own output tree, <output root>/<file stem>/<utility dir>, so files from
the same directory do not overwrite each other. The first failure cancels files that
have not started yet.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := utils.ExpandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		plan, err := newBatchPlan(cmd)
		if err != nil {
			return err
		}
		jobs := bJobs
		if !cmd.Flags().Changed("jobs") {
			jobs = currentConfig().Jobs
		}
		if jobs <= 0 {
			jobs = 1
		}
		out := cmd.OutOrStdout()
		if bQuiet {
			out = io.Discard
		}
		return runBatch(cmd.Context(), &console{w: out}, files, plan, jobs)
	},
}

func newBatchPlan(cmd *cobra.Command) (batchPlan, error) {
	plan := batchPlan{dedupe: defaultDedupeOptions(), timeColumn: bTimeColumn}
	known := map[string]bool{}
	for _, s := range batchSteps {
		known[s] = true
	}
	steps := splitList(bSteps)
	if len(steps) == 0 {
		steps = batchSteps[:5]
	}
	for _, s := range steps {
		s = strings.ToLower(s)
		if !known[s] {
			return plan, fmt.Errorf("unknown step %q (use %s)", s, strings.Join(batchSteps, ", "))
		}
		plan.steps = append(plan.steps, s)
	}
	if bScenario != "" {
		s, err := scenario.Load(bScenario)
		if err != nil {
			return plan, err
		}
		plan.convert = s.Convert
		plan.scale = scaleOptions{rules: s.Scale, l2: s.L2}
		if d := s.Dedupe; d != nil {
			plan.dedupe.columns = d.Columns
			if d.RatioLow != 0 || d.RatioHigh != 0 {
				plan.dedupe.rng = dedup.Range{Low: d.RatioLow, High: d.RatioHigh}
			}
		}
	}
	return plan, nil
}

func runBatch(ctx context.Context, w *console, files []string, plan batchPlan, jobs int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	roots := batchRoots(files)
	sem := semaphore.NewWeighted(int64(jobs))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	total := len(files)
	for i, path := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)
			w.ok("[%d/%d] Processing %s...", i+1, total, filepath.Base(path))
			if err := runPlan(w, path, roots[path], plan); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", path, err)
				}
				mu.Unlock()
				cancel()
			}
		}(i, path)
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// batchRoots gives every file its own output root, <parent>/<stem>. Stems that
// resolve to the same directory get a -2, -3, ... suffix in input order.
func batchRoots(files []string) map[string]string {
	roots := make(map[string]string, len(files))
	taken := map[string]int{}
	for _, path := range files {
		parent := currentConfig().OutputRoot
		if parent == "" {
			parent = filepath.Join(filepath.Dir(path), "..")
		}
		root := filepath.Join(parent, fileStem(path))
		taken[root]++
		if n := taken[root]; n > 1 {
			root = fmt.Sprintf("%s-%d", root, n)
		}
		roots[path] = root
	}
	return roots
}

func runPlan(w *console, path, root string, plan batchPlan) error {
	spec := func(utility, dir string) jobSpec {
		return jobSpec{utility: utility, dirName: dir, input: path, root: root}
	}
	for _, step := range plan.steps {
		var err error
		switch step {
		case "dedupe":
			err = runDedupe(w, spec(step, dirDuplicates), plan.dedupe)
		case "convert":
			err = runConvert(w, spec(step, dirConvert), plan.convert)
		case "encode":
			err = runEncode(w, spec(step, dirEncode), defaultEncodeOptions())
		case "impute":
			err = runImpute(w, spec(step, dirMissing), plan.timeColumn)
		case "outliers":
			err = runOutliers(w, spec(step, dirOutliers), defaultOutlierOptions())
		case "scale":
			if len(plan.scale.rules) == 0 && !plan.scale.l2 {
				w.warn("scale: %s skipped; %v", filepath.Base(path), errNothingToScale)
				continue
			}
			err = runScale(w, spec(step, dirScale), plan.scale)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}

// fileStem turns "data/Sales 2024.csv" into "sales-2024".
func fileStem(path string) string {
	base := filepath.Base(path)
	s := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' || r == '.' {
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "dataset"
	}
	return out
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringSliceVar(&bSteps, "steps", nil, "utilities to run: dedupe,convert,encode,impute,outliers,scale (default all but scale)")
	batchCmd.Flags().IntVar(&bJobs, "jobs", 4, "maximum files processed concurrently (default from config)")
	batchCmd.Flags().StringVar(&bScenario, "scenario", "", "YAML or TOML file with convert/scale/dedupe rules")
	batchCmd.Flags().StringVar(&bTimeColumn, "time-column", "", "impute: datetime column for time interpolation")
	batchCmd.Flags().BoolVar(&bQuiet, "quiet", false, "suppress progress and non-essential output")
}
