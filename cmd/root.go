package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/datatidy-cli/internal/config"
	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile        string
	debug          bool
	flagLogFile    string
	flagOutputRoot string
	flagNoColor    bool
	flagDelimiter  string
	flagSheetName  string
	flagSheetIndex int

	// Loaded configuration
	cfg *cfgpkg.Global

	// logger receives every utility's operation log; closeLog releases its file.
	logger   *slog.Logger
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "datatidy",
	Short: "DataTidy CLI: clean, convert and profile tabular datasets",
	Long: `DataTidy is a CLI tool that cleans CSV/TSV/XLSX datasets: it removes exact and fuzzy
duplicates, converts datatypes, encodes categories, fills missing values, handles
outliers and rescales features. Each utility writes its results into its own output
directory next to the dataset.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.datatidy/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagLogFile, "log-file", "", "operations log file (overrides config; default all_operations.log)")
	pf.StringVar(&flagOutputRoot, "output-root", "", "parent directory for utility outputs (default <dataset dir>/..)")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable coloured console output")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default by extension)")
	pf.StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to read")
	pf.IntVar(&flagSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if f.Changed("output-root") {
		cfg.OutputRoot = flagOutputRoot
	}
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("no-color") {
		cfg.NoColor = flagNoColor
	}
	color.NoColor = color.NoColor || cfg.NoColor

	_ = closeLog()
	l, closeFn, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Debug: debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; logging to stderr only\n", err)
		l, closeFn, _ = logging.New(logging.Options{Level: cfg.LogLevel, Debug: debug})
	}
	logger, closeLog = l, closeFn
}
