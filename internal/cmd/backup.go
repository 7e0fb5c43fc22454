package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/harrison/archtree/internal/config"
	"github.com/harrison/archtree/internal/display"
	"github.com/harrison/archtree/internal/exclusion"
	"github.com/harrison/archtree/internal/expand"
	"github.com/harrison/archtree/internal/filelock"
	"github.com/harrison/archtree/internal/fileutil"
	"github.com/harrison/archtree/internal/history"
	"github.com/harrison/archtree/internal/input"
	"github.com/harrison/archtree/internal/listing"
	"github.com/harrison/archtree/internal/logger"
	"github.com/harrison/archtree/internal/sevenzip"
	"github.com/harrison/archtree/internal/verify"
)

// encodingIds maps listing decode modes to their flag spellings.
var encodingIds = map[listing.EncodingMode][]string{
	listing.EncodingAuto:   {"auto"},
	listing.EncodingUTF8:   {"utf8", "utf-8"},
	listing.EncodingLegacy: {"legacy"},
}

// NewBackupCommand creates the backup command
func NewBackupCommand() *cobra.Command {
	encoding := listing.EncodingAuto

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the listed paths and verify the result",
		Long: `Read paths from an input file (or stdin), expand directories,
archive everything with 7-Zip, then verify the archive listing against
the expected file set. Missing files are re-added and re-verified up
to the configured retry bound.

Input format: one path per line. Lines starting with "!" are exclusion
patterns; * matches any run of characters, ? matches a single one.
Matching is case-insensitive and separator-agnostic.

Configuration is loaded from .archtree/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Archive paths listed in backup.txt
  archtree backup -f backup.txt -o /backups/home.7z

  # Read paths from stdin
  find ~/docs -maxdepth 1 | archtree backup -o docs.7z

  # Skip verification entirely
  archtree backup -f backup.txt --no-verify

  # Two retry passes, per-file missing report
  archtree backup -f backup.txt --max-retry-passes 2 --detailed-missing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return backupCommand(cmd, encoding)
		},
	}

	// Add flags
	cmd.Flags().StringP("file", "f", "", "Input file with paths and exclusions (default: stdin)")
	cmd.Flags().StringP("output", "o", "", "Archive path (default: from config)")
	cmd.Flags().String("7zip-path", "", "Path to the 7-Zip executable")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress per-file progress output")
	cmd.Flags().Int("max-retry-passes", -1, "Retry passes after initial verification (-1 = use config)")
	cmd.Flags().Bool("no-verify", false, "Skip post-archive verification")
	cmd.Flags().Bool("detailed-missing", false, "List every missing file instead of consolidating directories")
	cmd.Flags().String("log-level", "", "Log verbosity (trace, debug, info, warn, error)")
	cmd.Flags().String("config", "", "Path to config file (default: .archtree/config.yaml)")
	cmd.Flags().Var(
		enumflag.New(&encoding, "encoding", encodingIds, enumflag.EnumCaseInsensitive),
		"encoding",
		"Archive listing decode mode; one of 'auto', 'utf8', 'legacy'")

	return cmd
}

// backupCommand implements the backup command logic
func backupCommand(cmd *cobra.Command, encoding listing.EncodingMode) error {
	cfg, err := loadMergedConfig(cmd, encoding)
	if err != nil {
		return err
	}

	mode, err := parseEncoding(cfg.Encoding)
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	noVerify, _ := cmd.Flags().GetBool("no-verify")

	log := newLogger(cmd, cfg, quiet)
	reporter := display.NewReporter(cmd.OutOrStdout(), missingStrategy(cmd))

	entries, stats, err := expandInput(cmd, cfg)
	if err != nil {
		return err
	}
	reporter.ExpansionSummary(stats)
	if len(entries) == 0 {
		return fmt.Errorf("no files to archive after expansion")
	}

	ctx := cmd.Context()
	tool := sevenzip.NewWithPath(cfg.SevenZipPath)
	if !tool.IsAvailable(ctx) {
		return fmt.Errorf("7-Zip executable not found (looked for %q); install 7-Zip or set %s", tool.ExecutablePath, config.EnvSevenZipPath)
	}

	lock := filelock.ForArchive(cfg.OutputPath)
	if err := lock.Acquire(ctx); err != nil {
		return fmt.Errorf("another run is writing to %s: %w", cfg.OutputPath, err)
	}
	defer lock.Release()

	startedAt := time.Now()
	if err := writeArchive(ctx, tool, entries, cfg.OutputPath, log); err != nil {
		return err
	}

	if noVerify {
		log.LogInfo(fmt.Sprintf("Archived %d files to %s (verification skipped)", len(entries), cfg.OutputPath))
		return nil
	}

	orchestrator := verify.NewOrchestrator(tool, fileutil.NewFileSystemValidator(), log, cfg.MaxRetryPasses, mode)
	outcome, err := orchestrator.Run(ctx, cfg.OutputPath, entries)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	reporter.Outcome(outcome)

	recordRun(ctx, cfg, cfg.OutputPath, startedAt, outcome, log)

	if outcome.State != verify.StateConverged {
		final := outcome.Final()
		return fmt.Errorf("archive incomplete: %d/%d files present after %d pass(es)",
			final.PresentCount, final.TotalExpected(), len(outcome.Passes))
	}
	return nil
}

// writeArchive creates the archive, or updates it in place when it already
// exists.
func writeArchive(ctx context.Context, tool *sevenzip.Tool, entries []expand.ExpectedEntry, outputPath string, log logger.Logger) error {
	paths := expand.Paths(entries)

	if _, err := os.Stat(outputPath); err == nil {
		log.LogInfo(fmt.Sprintf("Updating existing archive %s with %d files", outputPath, len(paths)))
		if err := tool.AddToArchive(ctx, paths, outputPath); err != nil {
			return fmt.Errorf("update archive: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	log.LogInfo(fmt.Sprintf("Creating archive %s with %d files", outputPath, len(paths)))
	if err := tool.CreateArchive(ctx, paths, outputPath); err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	return nil
}

// expandInput reads the input list, compiles exclusions, and expands roots
// into the expected file set.
func expandInput(cmd *cobra.Command, cfg *config.Config) ([]expand.ExpectedEntry, *expand.Stats, error) {
	reader, err := inputReader(cmd)
	if err != nil {
		return nil, nil, err
	}
	lines, err := reader.ReadLines()
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}

	roots, rawPatterns := input.Split(lines)
	if len(roots) == 0 {
		return nil, nil, fmt.Errorf("input contains no paths")
	}
	patterns, err := exclusion.Compile(rawPatterns)
	if err != nil {
		return nil, nil, err
	}

	var observer expand.Observer
	if cfg.ShowProgress {
		observer = display.NewProgressPrinter(cmd.OutOrStdout()).Observe
	}
	expander := expand.NewExpander(fileutil.NewFileSystemValidator(), patterns, observer)
	return expander.Expand(roots)
}

// inputReader returns the configured line source: the --file flag or stdin.
func inputReader(cmd *cobra.Command) (input.Reader, error) {
	inputFile, _ := cmd.Flags().GetString("file")
	if inputFile == "" {
		return input.NewStdinReader(), nil
	}
	if _, err := os.Stat(inputFile); err != nil {
		return nil, fmt.Errorf("input file %s: %w", inputFile, err)
	}
	return input.NewFileReader(inputFile), nil
}

// recordRun persists the outcome to the run-history store. Recording is best
// effort; a broken history database never fails the backup itself.
func recordRun(ctx context.Context, cfg *config.Config, archivePath string, startedAt time.Time, outcome *verify.Outcome, log logger.Logger) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		log.LogWarn(fmt.Sprintf("run history unavailable: %v", err))
		return
	}
	defer store.Close()

	run := history.NewRun(archivePath, startedAt, time.Now(), outcome)
	if err := store.RecordRun(ctx, run); err != nil {
		log.LogWarn(fmt.Sprintf("failed to record run: %v", err))
	}
}
