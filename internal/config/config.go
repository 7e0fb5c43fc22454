// Package config loads archtree configuration from YAML, environment
// variables, and CLI flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables honored as overrides between the config file and
// CLI flags.
const (
	// EnvOutputPath overrides the archive output path.
	EnvOutputPath = "ARCHTREE_OUTPUT"
	// EnvSevenZipPath overrides the 7-Zip executable location.
	EnvSevenZipPath = "SEVEN_ZIP_PATH"
)

// HistoryConfig configures the run-history store.
type HistoryConfig struct {
	// Enabled turns run-history recording on.
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database file.
	DBPath string `yaml:"db_path"`
}

// Config holds the tool's settings.
type Config struct {
	// OutputPath is where the archive is created or updated.
	OutputPath string `yaml:"output_path"`

	// SevenZipPath locates the 7-Zip executable; empty means PATH lookup.
	SevenZipPath string `yaml:"seven_zip_path"`

	// ShowProgress enables per-file progress output during expansion.
	ShowProgress bool `yaml:"show_progress"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// MaxRetryPasses bounds the verify/retry loop; 0 disables retries.
	MaxRetryPasses int `yaml:"max_retry_passes"`

	// Encoding selects the listing decode mode (auto, utf8, legacy).
	Encoding string `yaml:"encoding"`

	// History configures the run-history store.
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		OutputPath:     defaultOutputPath(),
		SevenZipPath:   "",
		ShowProgress:   true,
		LogLevel:       "info",
		MaxRetryPasses: 1,
		Encoding:       "auto",
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(".archtree", "history.db"),
		},
	}
}

// defaultOutputPath places the archive on the user's Desktop when a home
// directory is known, otherwise in the working directory.
func defaultOutputPath() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "Desktop", "backup.7z")
	}
	return "backup.7z"
}

// LoadConfig loads configuration from the given file path, merging over
// defaults and then applying environment overrides. A missing file is not an
// error; a malformed file is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge non-zero file values over defaults. ShowProgress and
	// History.Enabled default to true, so presence detection uses the raw
	// document rather than the zero value.
	if fileCfg.OutputPath != "" {
		cfg.OutputPath = fileCfg.OutputPath
	}
	if fileCfg.SevenZipPath != "" {
		cfg.SevenZipPath = fileCfg.SevenZipPath
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.MaxRetryPasses != 0 {
		cfg.MaxRetryPasses = fileCfg.MaxRetryPasses
	}
	if fileCfg.Encoding != "" {
		cfg.Encoding = fileCfg.Encoding
	}
	if fileCfg.History.DBPath != "" {
		cfg.History.DBPath = fileCfg.History.DBPath
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err == nil {
		if _, present := raw["show_progress"]; present {
			cfg.ShowProgress = fileCfg.ShowProgress
		}
		if section, ok := raw["history"].(map[string]interface{}); ok {
			if _, present := section["enabled"]; present {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadConfigFromDir loads .archtree/config.yaml from the given directory.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".archtree", "config.yaml"))
}

// applyEnv applies environment-variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvOutputPath); v != "" {
		c.OutputPath = v
	}
	if v := os.Getenv(EnvSevenZipPath); v != "" {
		c.SevenZipPath = v
	}
}

// MergeWithFlags merges CLI flag values into the configuration. Non-nil
// values override; flags always win over file and environment.
func (c *Config) MergeWithFlags(outputPath, sevenZipPath *string, quiet *bool, maxRetryPasses *int) {
	if outputPath != nil && *outputPath != "" {
		c.OutputPath = *outputPath
	}
	if sevenZipPath != nil && *sevenZipPath != "" {
		c.SevenZipPath = *sevenZipPath
	}
	if quiet != nil && *quiet {
		c.ShowProgress = false
	}
	if maxRetryPasses != nil {
		c.MaxRetryPasses = *maxRetryPasses
	}
}

// Validate checks configuration values, returning an error on the first
// invalid one.
func (c *Config) Validate() error {
	if c.OutputPath == "" {
		return fmt.Errorf("output_path cannot be empty")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.MaxRetryPasses < 0 {
		return fmt.Errorf("max_retry_passes must be >= 0, got %d", c.MaxRetryPasses)
	}

	switch c.Encoding {
	case "auto", "utf8", "legacy":
	default:
		return fmt.Errorf("invalid encoding %q, must be one of: auto, utf8, legacy", c.Encoding)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}
