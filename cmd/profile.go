package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/analysis"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	prOutputPath string
	prFormat     string
	prSampleRows int
	prCorr       bool
	prOutliers   bool
	prOutlierThr float64
	prTopValues  int
	prInferDates bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <dataset>",
	Short: "Profile a CSV/TSV/XLSX dataset and produce a concise summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt := analysis.DefaultOptions()
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = prSampleRows
		} else {
			opt.SampleRows = currentConfig().SampleRows
		}
		opt.Correlations = prCorr
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = prOutliers
		}
		if prOutlierThr > 0 {
			opt.OutlierThreshold = prOutlierThr
		}
		if prTopValues > 0 {
			opt.TopValues = prTopValues
		}

		lopt, err := loadOptions()
		if err != nil {
			return err
		}
		t, err := table.Load(path, lopt)
		if err != nil {
			return err
		}
		if prInferDates {
			for c := range t.Columns {
				t.ToDatetime(c)
			}
		}
		rep := analysis.Profile(t, opt)
		rep.Name = filepath.Base(path)

		var body []byte
		switch strings.ToLower(strings.TrimSpace(prFormat)) {
		case "", "md", "markdown":
			body = []byte(rep.Markdown())
		case "json":
			body, err = utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported --format: %s (use md|json)", prFormat)
		}

		// Decide where to write: --output path or stdout
		if prOutputPath != "" {
			if err := os.WriteFile(prOutputPath, body, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			w := &console{w: cmd.OutOrStdout()}
			w.ok("Wrote profile to %s", prOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&prOutputPath, "output", "o", "", "optional path to write the profile")
	profileCmd.Flags().StringVar(&prFormat, "format", "md", "output format: md | json")
	profileCmd.Flags().IntVar(&prSampleRows, "sample-rows", 5, "number of leading rows to include (default from config)")
	profileCmd.Flags().BoolVar(&prCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	profileCmd.Flags().BoolVar(&prOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&prOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	profileCmd.Flags().IntVar(&prTopValues, "top-values", 8, "number of top categorical values to list")
	profileCmd.Flags().BoolVar(&prInferDates, "infer-dates", true, "treat date-looking text columns as datetimes")
}
