package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/archtree/internal/config"
	"github.com/harrison/archtree/internal/display"
	"github.com/harrison/archtree/internal/listing"
	"github.com/harrison/archtree/internal/logger"
)

// loadMergedConfig loads the config file, overlays CLI flags, and validates
// the result. Only flags the user actually set override the file.
func loadMergedConfig(cmd *cobra.Command, encoding listing.EncodingMode) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Build flag pointers for merge (only values the user changed)
	var outputPtr, sevenZipPtr *string
	var quietPtr *bool
	var retriesPtr *int

	if cmd.Flags().Changed("output") {
		v, _ := cmd.Flags().GetString("output")
		outputPtr = &v
	}
	if cmd.Flags().Changed("7zip-path") {
		v, _ := cmd.Flags().GetString("7zip-path")
		sevenZipPtr = &v
	}
	if cmd.Flags().Changed("quiet") {
		v, _ := cmd.Flags().GetBool("quiet")
		quietPtr = &v
	}
	if cmd.Flags().Changed("max-retry-passes") {
		v, _ := cmd.Flags().GetInt("max-retry-passes")
		retriesPtr = &v
	}

	cfg.MergeWithFlags(outputPtr, sevenZipPtr, quietPtr, retriesPtr)

	if cmd.Flags().Changed("encoding") {
		cfg.Encoding = encoding.String()
	}
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseEncoding converts a config string to a listing decode mode.
func parseEncoding(s string) (listing.EncodingMode, error) {
	switch s {
	case "auto", "":
		return listing.EncodingAuto, nil
	case "utf8", "utf-8":
		return listing.EncodingUTF8, nil
	case "legacy":
		return listing.EncodingLegacy, nil
	}
	return listing.EncodingAuto, fmt.Errorf("unknown encoding %q (want auto, utf8, or legacy)", s)
}

// newLogger builds the run logger. Quiet runs still see warnings and errors.
func newLogger(cmd *cobra.Command, cfg *config.Config, quiet bool) logger.Logger {
	level := cfg.LogLevel
	if quiet {
		level = "warn"
	}
	return logger.NewConsoleLogger(cmd.ErrOrStderr(), level)
}

// missingStrategy selects how missing files are rendered.
func missingStrategy(cmd *cobra.Command) display.MissingStrategy {
	if detailed, _ := cmd.Flags().GetBool("detailed-missing"); detailed {
		return display.StrategyDetailed
	}
	return display.StrategyConsolidated
}
