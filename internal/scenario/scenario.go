// Package scenario loads per-dataset rule files for the convert and scale utilities.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datatidy-cli/internal/convert"
	"github.com/KaramelBytes/datatidy-cli/internal/scale"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Scenario is a set of column rules read from YAML or TOML.
type Scenario struct {
	Convert []convert.Rule `yaml:"convert" toml:"convert"`
	Scale   []scale.Rule   `yaml:"scale" toml:"scale"`
	L2      bool           `yaml:"l2" toml:"l2"`
	// Dedupe optionally narrows the fuzzy duplicate pass.
	Dedupe *Dedupe `yaml:"dedupe,omitempty" toml:"dedupe,omitempty"`
}

// Dedupe holds the comparison columns and the acceptance range.
type Dedupe struct {
	Columns   []string `yaml:"columns" toml:"columns"`
	RatioLow  float64  `yaml:"ratio_low" toml:"ratio_low"`
	RatioHigh float64  `yaml:"ratio_high" toml:"ratio_high"`
}

// Load reads a .yaml, .yml or .toml scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario '%s': %w", path, err)
	}
	var s Scenario
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse YAML scenario: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse TOML scenario: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format %q (use .yaml, .yml or .toml)", ext)
	}
	return &s, nil
}
