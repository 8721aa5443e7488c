package cmd

import (
	"github.com/KaramelBytes/datatidy-cli/internal/impute"
	"github.com/spf13/cobra"
)

var imTimeColumn string

var imputeCmd = &cobra.Command{
	Use:   "impute <dataset>",
	Short: "Handle missing values by dropping, statistical and adjacent imputation",
	Long: `Writes one file per strategy into cleaned_data_handle_missing_values:

  dataset_cleaned_drop.csv                  rows with any missing value removed
  dataset_cleaned_{mean,median,mode}.csv    numeric gaps filled by the statistic, others by the mode
  dataset_cleaned_{forward,backward}.csv    gaps filled from the previous/next row
  dataset_cleaned_interpolation_linear.csv  numeric gaps interpolated by row position
  dataset_cleaned_interpolation_time.csv    numeric gaps interpolated by --time-column (only with that flag)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := &console{w: cmd.OutOrStdout()}
		return runImpute(w, jobSpec{utility: "impute", dirName: dirMissing, input: args[0]}, imTimeColumn)
	},
}

func runImpute(w *console, spec jobSpec, timeColumn string) error {
	j, err := startJob(w, spec)
	if err != nil || j == nil {
		return err
	}
	if err := j.save("dataset_cleaned_drop.csv", impute.Drop(j.data, j.log)); err != nil {
		return err
	}
	for _, m := range impute.NumericMethods {
		if err := j.save("dataset_cleaned_"+m.String()+".csv", impute.ByDatatype(j.data, m, j.log)); err != nil {
			return err
		}
	}
	for _, m := range impute.AdjacentMethods {
		if m == impute.InterpolationTime && timeColumn == "" {
			continue
		}
		out, err := impute.Adjacent(j.data, m, timeColumn, j.log)
		if err != nil {
			j.warn(m.String(), err)
			continue
		}
		if err := j.save("dataset_cleaned_"+m.String()+".csv", out); err != nil {
			return err
		}
	}
	return j.finish()
}

func init() {
	rootCmd.AddCommand(imputeCmd)
	imputeCmd.Flags().StringVar(&imTimeColumn, "time-column", "", "datetime column used as the index for time interpolation")
}
