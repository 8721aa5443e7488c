package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/datatidy-cli/internal/config"
	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataTidy configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		w := cmd.OutOrStdout()
		if cfg.OutputRoot != "" {
			fmt.Fprintf(w, "output_root: %s\n", cfg.OutputRoot)
		} else {
			fmt.Fprintln(w, "output_root: (dataset dir)/..")
		}
		fmt.Fprintf(w, "log_file: %s\n", cfg.LogFile)
		fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
		if cfg.Delimiter != "" {
			fmt.Fprintf(w, "delimiter: %q\n", cfg.Delimiter)
		}
		fmt.Fprintf(w, "sample_rows: %d\n", cfg.SampleRows)
		fmt.Fprintf(w, "jobs: %d\n", cfg.Jobs)
		fmt.Fprintf(w, "no_color: %t\n", cfg.NoColor)
		fmt.Fprintf(w, "ratio_low: %g\n", cfg.RatioLow)
		fmt.Fprintf(w, "ratio_high: %g\n", cfg.RatioHigh)
		fmt.Fprintf(w, "iqr_multiplier: %g\n", cfg.IQRMultiplier)
		fmt.Fprintf(w, "zscore_threshold: %g\n", cfg.ZScoreThreshold)
		fmt.Fprintf(w, "mzscore_threshold: %g\n", cfg.MZScoreThreshold)
		fmt.Fprintf(w, "hashing_min_categories: %d\n", cfg.HashingMinCategories)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "output_root":
			cfg.OutputRoot = val
		case "log_file":
			cfg.LogFile = val
		case "log_level":
			switch val {
			case "debug", "info", "warn", "warning", "error":
				cfg.LogLevel = strings.ToLower(logging.ParseLevel(val).String())
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		case "delimiter":
			switch val {
			case ",", ";", "tab", "\t", "":
				cfg.Delimiter = val
			default:
				return fmt.Errorf("invalid delimiter: %q (use ',', ';' or 'tab')", val)
			}
		case "sample_rows", "jobs", "hashing_min_categories":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 || (key != "sample_rows" && i == 0) {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			switch key {
			case "sample_rows":
				cfg.SampleRows = i
			case "jobs":
				cfg.Jobs = i
			default:
				cfg.HashingMinCategories = i
			}
		case "no_color":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for no_color: %w", err)
			}
			cfg.NoColor = b
		case "ratio_low", "ratio_high":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 || f > 100 {
				return fmt.Errorf("invalid ratio for %s: %v (use 0..100)", key, val)
			}
			if key == "ratio_low" {
				cfg.RatioLow = f
			} else {
				cfg.RatioHigh = f
			}
		case "iqr_multiplier", "zscore_threshold", "mzscore_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid positive float for %s: %v", key, val)
			}
			switch key {
			case "iqr_multiplier":
				cfg.IQRMultiplier = f
			case "zscore_threshold":
				cfg.ZScoreThreshold = f
			default:
				cfg.MZScoreThreshold = f
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
