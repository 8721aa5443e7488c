package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datatidy-cli/internal/outlier"
	"github.com/spf13/cobra"
)

var (
	olColumns    []string
	olDetect     []string
	olHandle     []string
	olIQR        float64
	olZScore     float64
	olMZScore    float64
	olPrintFound bool
)

type outlierOptions struct {
	detect []outlier.DetectMethod
	handle []outlier.HandleMethod
	detail outlier.Options
}

func defaultOutlierOptions() outlierOptions {
	c := currentConfig()
	return outlierOptions{
		detect: outlier.DetectMethods,
		handle: outlier.HandleMethods,
		detail: outlier.Options{IQRMultiplier: c.IQRMultiplier, ZThreshold: c.ZScoreThreshold, MZThreshold: c.MZScoreThreshold},
	}
}

var outliersCmd = &cobra.Command{
	Use:   "outliers <dataset>",
	Short: "Detect outliers by IQR, Z-score and modified Z-score and drop, replace or cap them",
	Long: `Writes dataset_cleaned_<DETECT>_<handle>.csv for every selected detection and handling
method, e.g. dataset_cleaned_IQR_drop.csv or dataset_cleaned_MZSCORE_cap.csv. A combination
that finds no outliers writes the dataset unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := defaultOutlierOptions()
		opt.detail.Columns = splitList(olColumns)
		if len(olDetect) > 0 {
			opt.detect = nil
			for _, s := range olDetect {
				m, err := outlier.ParseDetectMethod(s)
				if err != nil {
					return err
				}
				opt.detect = append(opt.detect, m)
			}
		}
		if len(olHandle) > 0 {
			opt.handle = nil
			for _, s := range olHandle {
				m, err := outlier.ParseHandleMethod(s)
				if err != nil {
					return err
				}
				opt.handle = append(opt.handle, m)
			}
		}
		f := cmd.Flags()
		if f.Changed("iqr-multiplier") {
			opt.detail.IQRMultiplier = olIQR
		}
		if f.Changed("zscore-threshold") {
			opt.detail.ZThreshold = olZScore
		}
		if f.Changed("mzscore-threshold") {
			opt.detail.MZThreshold = olMZScore
		}
		w := &console{w: cmd.OutOrStdout()}
		return runOutliers(w, jobSpec{utility: "outliers", dirName: dirOutliers, input: args[0]}, opt)
	},
}

func runOutliers(w *console, spec jobSpec, opt outlierOptions) error {
	j, err := startJob(w, spec)
	if err != nil || j == nil {
		return err
	}
	opt.detail.Logger = j.log
	for _, dm := range opt.detect {
		det := outlier.Detect(j.data, dm, opt.detail)
		j.log.Info(fmt.Sprintf("Outliers by %s:\n%s", dm, det.Summary()))
		if olPrintFound {
			j.out.ok("%s: %d rows with outliers", dm, det.Count())
		}
		for _, hm := range opt.handle {
			out := outlier.Handle(j.data, hm, det, j.log)
			if err := j.save(fmt.Sprintf("dataset_cleaned_%s_%s.csv", dm, hm), out); err != nil {
				return err
			}
		}
	}
	return j.finish()
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	f := outliersCmd.Flags()
	f.StringSliceVar(&olColumns, "columns", nil, "comma-separated numeric columns to inspect (default all numeric columns)")
	f.StringSliceVar(&olDetect, "detect", nil, "detection methods: iqr,zscore,mzscore (default all)")
	f.StringSliceVar(&olHandle, "handle", nil, "handling methods: drop,median,cap (default all)")
	f.Float64Var(&olIQR, "iqr-multiplier", 1.5, "IQR fence multiplier (default from config)")
	f.Float64Var(&olZScore, "zscore-threshold", 3, "|z| threshold (default from config)")
	f.Float64Var(&olMZScore, "mzscore-threshold", 3.5, "modified |z| threshold (default from config)")
	f.BoolVar(&olPrintFound, "summary", false, "print the number of outlier rows per detection method")
}
