package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/harrison/archtree/internal/display"
	"github.com/harrison/archtree/internal/filelock"
	"github.com/harrison/archtree/internal/listing"
	"github.com/harrison/archtree/internal/sevenzip"
	"github.com/harrison/archtree/internal/verify"
)

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	encoding := listing.EncodingAuto

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an existing archive against the expected file set",
		Long: `Expand the input paths exactly as backup would, then compare the
expected set against the archive's listing without writing anything.

With --freshness, files present in the archive are additionally
compared by modification time; files newer on disk than in the
archive are reported as outdated. --update-outdated re-adds those
files to the archive.

Examples:
  archtree verify -f backup.txt -o /backups/home.7z
  archtree verify -f backup.txt -o home.7z --freshness
  archtree verify -f backup.txt -o home.7z --freshness --update-outdated`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return verifyCommand(cmd, encoding)
		},
	}

	// Add flags
	cmd.Flags().StringP("file", "f", "", "Input file with paths and exclusions (default: stdin)")
	cmd.Flags().StringP("output", "o", "", "Archive path to verify (default: from config)")
	cmd.Flags().String("7zip-path", "", "Path to the 7-Zip executable")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress per-file progress output")
	cmd.Flags().Bool("detailed-missing", false, "List every missing file instead of consolidating directories")
	cmd.Flags().Bool("freshness", false, "Compare modification times of archived files against the filesystem")
	cmd.Flags().Bool("update-outdated", false, "Re-add outdated files to the archive (implies --freshness)")
	cmd.Flags().String("log-level", "", "Log verbosity (trace, debug, info, warn, error)")
	cmd.Flags().String("config", "", "Path to config file (default: .archtree/config.yaml)")
	cmd.Flags().Var(
		enumflag.New(&encoding, "encoding", encodingIds, enumflag.EnumCaseInsensitive),
		"encoding",
		"Archive listing decode mode; one of 'auto', 'utf8', 'legacy'")

	return cmd
}

// verifyCommand implements the verify command logic
func verifyCommand(cmd *cobra.Command, encoding listing.EncodingMode) error {
	cfg, err := loadMergedConfig(cmd, encoding)
	if err != nil {
		return err
	}
	mode, err := parseEncoding(cfg.Encoding)
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	checkFreshness, _ := cmd.Flags().GetBool("freshness")
	updateOutdated, _ := cmd.Flags().GetBool("update-outdated")
	if updateOutdated {
		checkFreshness = true
	}

	log := newLogger(cmd, cfg, quiet)
	reporter := display.NewReporter(cmd.OutOrStdout(), missingStrategy(cmd))

	if _, err := os.Stat(cfg.OutputPath); err != nil {
		return fmt.Errorf("archive %s: %w", cfg.OutputPath, err)
	}

	entries, stats, err := expandInput(cmd, cfg)
	if err != nil {
		return err
	}
	reporter.ExpansionSummary(stats)

	ctx := cmd.Context()
	tool := sevenzip.NewWithPath(cfg.SevenZipPath)
	if !tool.IsAvailable(ctx) {
		return fmt.Errorf("7-Zip executable not found (looked for %q)", tool.ExecutablePath)
	}

	startedAt := time.Now()
	actual, lossy, err := tool.ListEntries(ctx, cfg.OutputPath, mode)
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	if lossy {
		log.LogWarn("archive listing required lossy text decoding")
	}

	result := verify.Reconcile(entries, actual)
	reporter.VerificationSummary(result)

	outcome := &verify.Outcome{
		State:        verify.StateIncomplete,
		Passes:       []*verify.VerificationResult{result},
		LossyListing: lossy,
	}
	if result.IsComplete() {
		outcome.State = verify.StateConverged
	}
	recordRun(ctx, cfg, cfg.OutputPath, startedAt, outcome, log)

	if checkFreshness {
		freshness := verify.CheckFreshness(entries, actual, verify.FilesystemMtime)
		reporter.Freshness(freshness)

		if updateOutdated && len(freshness.Outdated) > 0 {
			if err := refreshOutdated(cmd, cfg.OutputPath, tool, freshness); err != nil {
				return err
			}
		}
	}

	if !result.IsComplete() {
		return fmt.Errorf("archive incomplete: %d/%d files present",
			result.PresentCount, result.TotalExpected())
	}
	return nil
}

// refreshOutdated re-adds files whose filesystem copy is newer than the
// archived one.
func refreshOutdated(cmd *cobra.Command, archivePath string, tool *sevenzip.Tool, freshness *verify.FreshnessResult) error {
	ctx := cmd.Context()

	lock := filelock.ForArchive(archivePath)
	if err := lock.Acquire(ctx); err != nil {
		return fmt.Errorf("another run is writing to %s: %w", archivePath, err)
	}
	defer lock.Release()

	var paths []string
	for _, of := range freshness.Outdated {
		paths = append(paths, of.Entry.Path)
	}
	if err := tool.AddToArchive(ctx, paths, archivePath); err != nil {
		return fmt.Errorf("update outdated files: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Re-added %d outdated file(s) to %s\n", len(paths), archivePath)
	return nil
}
