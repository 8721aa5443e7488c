package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// OutputRoot replaces "<dataset dir>/.." as the parent of utility output dirs.
	OutputRoot string `mapstructure:"output_root" yaml:"output_root"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	SampleRows int    `mapstructure:"sample_rows" yaml:"sample_rows"`
	Jobs       int    `mapstructure:"jobs" yaml:"jobs"`
	NoColor    bool   `mapstructure:"no_color" yaml:"no_color"`

	// Fuzzy duplicate acceptance range
	RatioLow  float64 `mapstructure:"ratio_low" yaml:"ratio_low"`
	RatioHigh float64 `mapstructure:"ratio_high" yaml:"ratio_high"`

	// Outlier thresholds
	IQRMultiplier    float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	ZScoreThreshold  float64 `mapstructure:"zscore_threshold" yaml:"zscore_threshold"`
	MZScoreThreshold float64 `mapstructure:"mzscore_threshold" yaml:"mzscore_threshold"`

	// Hashing encoder warns below this many categories
	HashingMinCategories int `mapstructure:"hashing_min_categories" yaml:"hashing_min_categories"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Global {
	return &Global{
		LogFile:              "all_operations.log",
		LogLevel:             "info",
		SampleRows:           5,
		Jobs:                 4,
		RatioLow:             90,
		RatioHigh:            100,
		IQRMultiplier:        1.5,
		ZScoreThreshold:      3,
		MZScoreThreshold:     3.5,
		HashingMinCategories: 10,
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datatidy"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datatidy/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded into the environment first when present.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DATATIDY")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("output_root", d.OutputRoot)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("sample_rows", d.SampleRows)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("no_color", d.NoColor)
	v.SetDefault("ratio_low", d.RatioLow)
	v.SetDefault("ratio_high", d.RatioHigh)
	v.SetDefault("iqr_multiplier", d.IQRMultiplier)
	v.SetDefault("zscore_threshold", d.ZScoreThreshold)
	v.SetDefault("mzscore_threshold", d.MZScoreThreshold)
	v.SetDefault("hashing_min_categories", d.HashingMinCategories)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
