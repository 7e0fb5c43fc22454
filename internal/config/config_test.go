package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultConfig verifies default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !strings.HasSuffix(cfg.OutputPath, "backup.7z") {
		t.Errorf("OutputPath = %q, want backup.7z suffix", cfg.OutputPath)
	}
	if cfg.SevenZipPath != "" {
		t.Errorf("SevenZipPath = %q, want empty (PATH lookup)", cfg.SevenZipPath)
	}
	if !cfg.ShowProgress {
		t.Error("ShowProgress = false, want true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.MaxRetryPasses != 1 {
		t.Errorf("MaxRetryPasses = %d, want 1", cfg.MaxRetryPasses)
	}
	if cfg.Encoding != "auto" {
		t.Errorf("Encoding = %q, want %q", cfg.Encoding, "auto")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file.
func TestLoadConfigValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `output_path: /backups/nightly.7z
seven_zip_path: /opt/7zz
show_progress: false
log_level: debug
max_retry_passes: 3
encoding: legacy
history:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.OutputPath != "/backups/nightly.7z" {
		t.Errorf("OutputPath = %q, want /backups/nightly.7z", cfg.OutputPath)
	}
	if cfg.SevenZipPath != "/opt/7zz" {
		t.Errorf("SevenZipPath = %q, want /opt/7zz", cfg.SevenZipPath)
	}
	if cfg.ShowProgress {
		t.Error("ShowProgress = true, want false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MaxRetryPasses != 3 {
		t.Errorf("MaxRetryPasses = %d, want 3", cfg.MaxRetryPasses)
	}
	if cfg.Encoding != "legacy" {
		t.Errorf("Encoding = %q, want legacy", cfg.Encoding)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults for a missing file.
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info (default)", cfg.LogLevel)
	}
}

// TestLoadConfigInvalidYAML tests error handling for malformed YAML.
func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := "output_path: [this is not\nvalid"
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("LoadConfig() expected error for invalid YAML, got nil")
	}
}

// TestLoadConfigPartialValues tests that partial config merges with defaults.
func TestLoadConfigPartialValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := "log_level: warn\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if !cfg.ShowProgress {
		t.Error("ShowProgress should keep default true when absent")
	}
	if cfg.MaxRetryPasses != 1 {
		t.Errorf("MaxRetryPasses = %d, want default 1", cfg.MaxRetryPasses)
	}
}

// TestLoadConfigEnvOverrides tests environment variables beating the file.
func TestLoadConfigEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("output_path: /from/file.7z\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv(EnvOutputPath, "/from/env.7z")
	t.Setenv(EnvSevenZipPath, "/env/7z")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.OutputPath != "/from/env.7z" {
		t.Errorf("OutputPath = %q, want env override", cfg.OutputPath)
	}
	if cfg.SevenZipPath != "/env/7z" {
		t.Errorf("SevenZipPath = %q, want env override", cfg.SevenZipPath)
	}
}

// TestMergeWithFlags tests CLI flags taking precedence.
func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	output := "/flag/out.7z"
	quiet := true
	retries := 2
	cfg.MergeWithFlags(&output, nil, &quiet, &retries)

	if cfg.OutputPath != "/flag/out.7z" {
		t.Errorf("OutputPath = %q, want flag value", cfg.OutputPath)
	}
	if cfg.ShowProgress {
		t.Error("ShowProgress = true after quiet flag, want false")
	}
	if cfg.MaxRetryPasses != 2 {
		t.Errorf("MaxRetryPasses = %d, want 2", cfg.MaxRetryPasses)
	}
}

// TestValidate tests configuration validation rules.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"empty output", func(c *Config) { c.OutputPath = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"negative retries", func(c *Config) { c.MaxRetryPasses = -1 }, true},
		{"bad encoding", func(c *Config) { c.Encoding = "ebcdic" }, true},
		{"history without path", func(c *Config) { c.History.DBPath = "" }, true},
		{"history disabled without path", func(c *Config) {
			c.History.Enabled = false
			c.History.DBPath = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
