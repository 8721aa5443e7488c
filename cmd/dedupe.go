package cmd

import (
	"github.com/KaramelBytes/datatidy-cli/internal/dedup"
	"github.com/spf13/cobra"
)

var (
	ddColumns    []string
	ddRatioRange string
)

type dedupeOptions struct {
	columns []string
	rng     dedup.Range
}

func defaultDedupeOptions() dedupeOptions {
	c := currentConfig()
	return dedupeOptions{rng: dedup.Range{Low: c.RatioLow, High: c.RatioHigh}}
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <dataset>",
	Short: "Remove exact and fuzzy duplicate rows",
	Long: `Writes dataset_cleaned_drop.csv (first occurrence of every exact duplicate kept) and
dataset_cleaned_fuzzy.csv (rows whose mean similarity ratio falls inside --ratio-range
are grouped and only each group's first row is kept).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := defaultDedupeOptions()
		opt.columns = splitList(ddColumns)
		if cmd.Flags().Changed("ratio-range") {
			rng, err := dedup.ParseRange(ddRatioRange)
			if err != nil {
				return err
			}
			opt.rng = rng
		}
		w := &console{w: cmd.OutOrStdout()}
		return runDedupe(w, jobSpec{utility: "dedupe", dirName: dirDuplicates, input: args[0]}, opt)
	},
}

func runDedupe(w *console, spec jobSpec, opt dedupeOptions) error {
	j, err := startJob(w, spec)
	if err != nil || j == nil {
		return err
	}
	exact, rep := dedup.DropExact(j.data, opt.columns, j.log)
	if err := j.save("dataset_cleaned_drop.csv", exact); err != nil {
		return err
	}
	j.log.Debug("exact duplicates", "dropped", rep.Dropped)

	fuzzy, rep := dedup.DropFuzzy(j.data, dedup.Options{Columns: opt.columns, Range: opt.rng, Logger: j.log})
	if err := j.save("dataset_cleaned_fuzzy.csv", fuzzy); err != nil {
		return err
	}
	j.log.Debug("fuzzy duplicates", "range", opt.rng.String(), "dropped", rep.Dropped)
	return j.finish()
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
	dedupeCmd.Flags().StringSliceVar(&ddColumns, "columns", nil, "comma-separated columns to compare (default all columns)")
	dedupeCmd.Flags().StringVar(&ddRatioRange, "ratio-range", "90,100", "inclusive similarity range low,high for fuzzy duplicates (default from config)")
}
