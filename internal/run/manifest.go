// Package run records what a utility run read and wrote.
package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/datatidy-cli/internal/utils"
	"github.com/google/uuid"
)

const manifestFileName = "manifest.json"

// Manifest describes one utility run persisted next to its outputs.
type Manifest struct {
	ID        string    `json:"id"`
	Utility   string    `json:"utility"`
	Input     string    `json:"input"`
	RowsIn    int       `json:"rows_in"`
	Outputs   []Output  `json:"outputs"`
	Warnings  []string  `json:"warnings,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// Not serialized: the output directory holding manifest.json
	dir string
}

// Output is one file written by a run.
type Output struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	// Skipped is set when the result was empty and no file was written.
	Skipped bool `json:"skipped,omitempty"`
}

// NewManifest starts an in-memory manifest. Call Save() to persist.
func NewManifest(utility, input, dir string, rowsIn int) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		Utility:   utility,
		Input:     input,
		RowsIn:    rowsIn,
		StartedAt: time.Now(),
		dir:       dir,
	}
}

// Dir returns the directory the manifest is saved into.
func (m *Manifest) Dir() string { return m.dir }

// AddOutput records a result file.
func (m *Manifest) AddOutput(name string, rows int, written bool) {
	m.Outputs = append(m.Outputs, Output{Name: name, Rows: rows, Skipped: !written})
}

// Warn records a non-fatal problem.
func (m *Manifest) Warn(msg string) {
	m.Warnings = append(m.Warnings, msg)
}

// Written lists the names of outputs that were actually written.
func (m *Manifest) Written() []string {
	var out []string
	for _, o := range m.Outputs {
		if !o.Skipped {
			out = append(out, o.Name)
		}
	}
	return out
}

// Save writes manifest.json using atomic write.
func (m *Manifest) Save() error {
	if m.dir == "" {
		return errors.New("manifest directory not set")
	}
	if err := utils.EnsureDir(m.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	m.EndedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(m.dir, manifestFileName), data)
}

// Load reads manifest.json from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = dir
	return &m, nil
}
