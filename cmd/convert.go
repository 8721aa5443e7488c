package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datatidy-cli/internal/convert"
	"github.com/KaramelBytes/datatidy-cli/internal/scenario"
	"github.com/spf13/cobra"
)

var (
	cvColumns   []string
	cvDatatypes []string
	cvFormats   []string
	cvScenario  string
)

var convertCmd = &cobra.Command{
	Use:   "convert <dataset>",
	Short: "Convert column datatypes automatically and by user-defined rules",
	Long: `Writes dataset_converted_auto.csv (number-looking text becomes int/float, date-looking
text becomes datetime) and, when rules are given, dataset_converted_ud.csv.

Rules come from parallel --columns/--datatypes/--formats lists or from a --scenario
file. Datatypes are int, float or datetime; datetime needs a strftime format such as
"%Y-%m-%d".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := convertRules()
		if err != nil {
			return err
		}
		w := &console{w: cmd.OutOrStdout()}
		return runConvert(w, jobSpec{utility: "convert", dirName: dirConvert, input: args[0]}, rules)
	},
}

func convertRules() ([]convert.Rule, error) {
	if cvScenario != "" {
		if len(cvColumns) > 0 {
			return nil, fmt.Errorf("use either --scenario or --columns/--datatypes, not both")
		}
		s, err := scenario.Load(cvScenario)
		if err != nil {
			return nil, err
		}
		return s.Convert, nil
	}
	formats := cvFormats
	if formats == nil {
		formats = make([]string, len(cvColumns))
	}
	return convert.Rules(cvColumns, cvDatatypes, formats)
}

func runConvert(w *console, spec jobSpec, rules []convert.Rule) error {
	j, err := startJob(w, spec)
	if err != nil || j == nil {
		return err
	}
	if err := j.save("dataset_converted_auto.csv", convert.Auto(j.data, j.log)); err != nil {
		return err
	}
	if len(rules) > 0 {
		// A rejected rule set leaves the dataset unconverted; it is still written.
		out, err := convert.Apply(j.data, rules, j.log)
		if err != nil {
			j.warn("user-defined conversion", err)
		}
		if err := j.save("dataset_converted_ud.csv", out); err != nil {
			return err
		}
	}
	return j.finish()
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringSliceVar(&cvColumns, "columns", nil, "comma-separated columns to convert")
	convertCmd.Flags().StringSliceVar(&cvDatatypes, "datatypes", nil, "comma-separated target datatypes (int|float|datetime), one per column")
	convertCmd.Flags().StringSliceVar(&cvFormats, "formats", nil, "comma-separated strftime formats, one per column (empty for non-datetime)")
	convertCmd.Flags().StringVar(&cvScenario, "scenario", "", "YAML or TOML file with convert rules")
}
