package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/archtree/internal/history"
	"github.com/harrison/archtree/internal/listing"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded backup runs",
		Long: `List recent backup and verification runs from the local run
database, most recent first.

Examples:
  archtree history
  archtree history --limit 25
  archtree history --archive /backups/home.7z`,
		Args: cobra.NoArgs,
		RunE: historyCommand,
	}

	// Add flags
	cmd.Flags().Int("limit", 10, "Maximum number of runs to show")
	cmd.Flags().String("archive", "", "Only show runs for this archive path")
	cmd.Flags().String("db", "", "Path to the history database (default: from config)")
	cmd.Flags().String("config", "", "Path to config file (default: .archtree/config.yaml)")

	return cmd
}

// historyCommand implements the history command logic
func historyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(cmd, listing.EncodingAuto)
	if err != nil {
		return err
	}

	dbPath := cfg.History.DBPath
	if cmd.Flags().Changed("db") {
		dbPath, _ = cmd.Flags().GetString("db")
	}
	if dbPath == "" {
		return fmt.Errorf("no history database configured")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	archiveFilter, _ := cmd.Flags().GetString("archive")

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(cmd.Context(), archiveFilter, limit)
	if err != nil {
		return err
	}

	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

// printRuns renders one line per run, most recent first.
func printRuns(w io.Writer, runs []*history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}

	for _, run := range runs {
		fmt.Fprintf(w, "%s  %-9s  %d/%d files  %s  %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.State,
			run.Present,
			run.TotalExpected,
			trajectoryString(run.Trajectory),
			run.ArchivePath)
		if run.Unresolvable > 0 {
			fmt.Fprintf(w, "    %d file(s) were no longer on disk\n", run.Unresolvable)
		}
	}
}

// trajectoryString renders per-pass present counts, e.g. "[147 -> 150]".
func trajectoryString(trajectory []int) string {
	if len(trajectory) == 0 {
		return "[-]"
	}
	parts := make([]string, len(trajectory))
	for i, n := range trajectory {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, " -> ") + "]"
}
