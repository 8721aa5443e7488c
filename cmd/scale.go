package cmd

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/datatidy-cli/internal/scale"
	"github.com/KaramelBytes/datatidy-cli/internal/scenario"
	"github.com/spf13/cobra"
)

var (
	scColumns  []string
	scMethods  []string
	scScenario string
	scL2       bool
)

type scaleOptions struct {
	rules []scale.Rule
	l2    bool
}

var errNothingToScale = errors.New("nothing to scale: pass --columns/--methods, --scenario or --l2")

var scaleCmd = &cobra.Command{
	Use:   "scale <dataset>",
	Short: "Rescale numeric columns (min-max, z-score, robust) and optionally L2-normalize rows",
	Long: `Writes output_scale_feature/dataset_scaled.csv. Methods are MINMAX_SCALING,
ZSCORE_STANDARDIZATION or ROBUST_SCALING (short forms minmax, zscore and robust are accepted),
one per column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := scaleOptions{l2: scL2}
		if scScenario != "" {
			if len(scColumns) > 0 {
				return fmt.Errorf("use either --scenario or --columns/--methods, not both")
			}
			s, err := scenario.Load(scScenario)
			if err != nil {
				return err
			}
			opt.rules = s.Scale
			opt.l2 = opt.l2 || s.L2
		} else {
			rules, err := scale.Rules(scColumns, scMethods)
			if err != nil {
				return err
			}
			opt.rules = rules
		}
		if len(opt.rules) == 0 && !opt.l2 {
			return errNothingToScale
		}
		w := &console{w: cmd.OutOrStdout()}
		return runScale(w, jobSpec{utility: "scale", dirName: dirScale, input: args[0]}, opt)
	},
}

func runScale(w *console, spec jobSpec, opt scaleOptions) error {
	j, err := startJob(w, spec)
	if err != nil || j == nil {
		return err
	}
	out, err := scale.Apply(j.data, opt.rules, opt.l2, j.log)
	if err != nil {
		j.warn("scaling", err)
	}
	if err := j.save("dataset_scaled.csv", out); err != nil {
		return err
	}
	return j.finish()
}

func init() {
	rootCmd.AddCommand(scaleCmd)
	scaleCmd.Flags().StringSliceVar(&scColumns, "columns", nil, "comma-separated numeric columns to scale")
	scaleCmd.Flags().StringSliceVar(&scMethods, "methods", nil, "comma-separated scaling methods, one per column")
	scaleCmd.Flags().StringVar(&scScenario, "scenario", "", "YAML or TOML file with scale rules")
	scaleCmd.Flags().BoolVar(&scL2, "l2", false, "normalize every row to unit L2 norm over numeric columns")
}
