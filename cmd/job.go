package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	cfgpkg "github.com/KaramelBytes/datatidy-cli/internal/config"
	"github.com/KaramelBytes/datatidy-cli/internal/logging"
	"github.com/KaramelBytes/datatidy-cli/internal/run"
	"github.com/KaramelBytes/datatidy-cli/internal/table"
	"github.com/KaramelBytes/datatidy-cli/internal/utils"
	"github.com/fatih/color"
)

// Output directories, one per utility.
const (
	dirDuplicates = "cleaned_data_handle_duplicate_values"
	dirConvert    = "output_convert_datatype"
	dirEncode     = "output_encode_categorical"
	dirMissing    = "cleaned_data_handle_missing_values"
	dirOutliers   = "cleaned_data_handle_outliers"
	dirScale      = "output_scale_feature"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
)

// console serializes status lines from concurrent batch workers.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) ok(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	okColor.Fprintf(c.w, "✓ "+format+"\n", a...)
}

func (c *console) warn(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	warnColor.Fprintf(c.w, "⚠ "+format+"\n", a...)
}

// job is one utility run over one dataset.
type job struct {
	utility  string
	input    string
	dir      string
	data     *table.Table
	manifest *run.Manifest
	out      *console
	log      *slog.Logger
}

// jobSpec says where a job reads from and writes to.
type jobSpec struct {
	utility string
	dirName string
	input   string
	// root overrides the output parent; empty means config or <dataset dir>/..
	root string
}

func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}

func loadOptions() (table.LoadOptions, error) {
	opt := table.LoadOptions{SheetName: flagSheetName, SheetIndex: flagSheetIndex}
	switch d := currentConfig().Delimiter; d {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", d)
	}
	return opt, nil
}

// outputDir resolves <root>/<dirName>, where root defaults to the config's
// output_root and then to the dataset's parent directory.
func outputDir(input, dirName, root string) string {
	if root == "" {
		root = currentConfig().OutputRoot
	}
	if root == "" {
		root = filepath.Join(filepath.Dir(input), "..")
	}
	return filepath.Join(root, dirName)
}

// startJob loads the dataset and recreates the output directory. It returns
// a nil job when the dataset has no rows.
func startJob(w *console, spec jobSpec) (*job, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	data, err := table.Load(spec.input, opt)
	if err != nil {
		return nil, err
	}
	log := logging.OrDiscard(logger).With("utility", spec.utility, "dataset", filepath.Base(spec.input))
	if data.Len() == 0 {
		log.Error("The dataset is empty or could not be read", "path", spec.input)
		w.warn("%s: %s has no rows; nothing to do", spec.utility, spec.input)
		return nil, nil
	}
	log.Info(fmt.Sprintf("Loaded %d rows and %d columns. First rows:\n%s", data.Len(), len(data.Columns), data.Head(5)))
	dir := outputDir(spec.input, spec.dirName, spec.root)
	if err := utils.ResetDir(dir); err != nil {
		return nil, err
	}
	return &job{
		utility:  spec.utility,
		input:    spec.input,
		dir:      dir,
		data:     data,
		manifest: run.NewManifest(spec.utility, spec.input, dir, data.Len()),
		out:      w,
		log:      log,
	}, nil
}

// save writes t as name inside the output directory unless it has no rows.
func (j *job) save(name string, t *table.Table) error {
	if t == nil || t.Len() == 0 {
		j.manifest.AddOutput(name, 0, false)
		j.out.warn("%s: %s is empty and was not written", j.utility, name)
		return nil
	}
	if err := t.Save(filepath.Join(j.dir, name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	j.manifest.AddOutput(name, t.Len(), true)
	j.out.ok("Wrote %s (%d rows)", filepath.Join(j.dir, name), t.Len())
	return nil
}

// warn records a rejected operation; the run carries on with the next one.
func (j *job) warn(what string, err error) {
	msg := fmt.Sprintf("%s: %v", what, err)
	j.manifest.Warn(msg)
	j.out.warn("%s: %s", j.utility, msg)
}

func (j *job) finish() error {
	if err := j.manifest.Save(); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	j.log.Debug("run finished", "id", j.manifest.ID, "outputs", strings.Join(j.manifest.Written(), ","))
	return nil
}

// splitList trims the items of a comma-separated flag value and drops
// empty ones; "None" means no subset.
func splitList(items []string) []string {
	var out []string
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		out = append(out, it)
	}
	if len(out) == 1 && out[0] == "None" {
		return nil
	}
	return out
}
