// Package display renders expansion progress, verification reports, and
// warnings to the console.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/archtree/internal/expand"
	"github.com/harrison/archtree/internal/verify"
)

// MissingStrategy selects how missing files are rendered. The set is closed:
// every renderer switches over it exhaustively.
type MissingStrategy int

const (
	// StrategyConsolidated collapses all-missing directories into one line.
	StrategyConsolidated MissingStrategy = iota
	// StrategyDetailed lists every missing file individually.
	StrategyDetailed
)

// Reporter writes human-facing output for a run.
type Reporter struct {
	writer   io.Writer
	useColor bool
	strategy MissingStrategy
}

// NewReporter creates a Reporter writing to w. Color is enabled only when w
// is a terminal.
func NewReporter(w io.Writer, strategy MissingStrategy) *Reporter {
	return &Reporter{
		writer:   w,
		useColor: writerIsTerminal(w),
		strategy: strategy,
	}
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Reporter) sprint(c color.Attribute, text string) string {
	if !r.useColor {
		return text
	}
	return color.New(c).Sprint(text)
}

// ExpansionSummary prints the processing statistics after path expansion.
func (r *Reporter) ExpansionSummary(stats *expand.Stats) {
	fmt.Fprintf(r.writer, "Processing summary:\n")
	fmt.Fprintf(r.writer, "  %s %d files\n", r.sprint(color.FgGreen, "added:"), stats.Included)
	if stats.Excluded > 0 {
		fmt.Fprintf(r.writer, "  %s %d paths\n", r.sprint(color.FgYellow, "excluded:"), stats.Excluded)
	}
	if stats.Invalid > 0 {
		fmt.Fprintf(r.writer, "  %s %d paths\n", r.sprint(color.FgRed, "invalid:"), stats.Invalid)
	}
	for _, warning := range stats.Warnings {
		fmt.Fprintf(r.writer, "  %s %s\n", r.sprint(color.FgYellow, "warning:"), warning)
	}
}

// VerificationSummary prints the per-pass result line.
func (r *Reporter) VerificationSummary(result *verify.VerificationResult) {
	line := fmt.Sprintf("Archived %d/%d files (%.1f%%)",
		result.PresentCount, result.TotalExpected(), result.SuccessRate())
	if result.IsComplete() {
		fmt.Fprintf(r.writer, "%s\n", r.sprint(color.FgGreen, line))
		return
	}

	fmt.Fprintf(r.writer, "%s\n", r.sprint(color.FgYellow, line))
	fmt.Fprintf(r.writer, "Missing files: %d\n", len(result.Missing))
	r.missingFiles(result)
}

// missingFiles renders the missing set using the configured strategy.
func (r *Reporter) missingFiles(result *verify.VerificationResult) {
	switch r.strategy {
	case StrategyDetailed:
		for _, miss := range result.Missing {
			fmt.Fprintf(r.writer, "    - %s\n", miss.Path)
		}
	case StrategyConsolidated:
		for _, cm := range verify.Consolidate(result) {
			switch cm.Kind {
			case verify.ConsolidatedDirectory:
				fmt.Fprintf(r.writer, "    - %s%s* (%d files)\n", cm.Path, "/", cm.MissingCount)
			case verify.ConsolidatedFile:
				fmt.Fprintf(r.writer, "    - %s\n", cm.Path)
			}
		}
	}
}

// Trajectory prints the pass-by-pass trail of a retry run, e.g.
// "147/150 -> 150/150".
func (r *Reporter) Trajectory(outcome *verify.Outcome) {
	if len(outcome.Passes) < 2 {
		return
	}

	fmt.Fprintf(r.writer, "Verification trajectory: ")
	for i, pass := range outcome.Passes {
		if i > 0 {
			fmt.Fprint(r.writer, " -> ")
		}
		fmt.Fprintf(r.writer, "%d/%d", pass.PresentCount, pass.TotalExpected())
	}
	fmt.Fprintln(r.writer)
}

// Outcome prints the terminal state of a verify/retry run, including
// permanently unresolvable files.
func (r *Reporter) Outcome(outcome *verify.Outcome) {
	r.Trajectory(outcome)

	final := outcome.Final()
	if final != nil {
		r.VerificationSummary(final)
	}

	switch outcome.State {
	case verify.StateConverged:
		fmt.Fprintf(r.writer, "%s\n", r.sprint(color.FgGreen, "All files successfully archived."))
	case verify.StateGaveUp:
		fmt.Fprintf(r.writer, "%s\n", r.sprint(color.FgYellow, "Archive is incomplete; giving up after retry bound."))
	}

	if len(outcome.Unresolvable) > 0 {
		fmt.Fprintf(r.writer, "Files no longer on disk (not retried):\n")
		for _, entry := range outcome.Unresolvable {
			fmt.Fprintf(r.writer, "    - %s\n", entry.Path)
		}
	}

	if outcome.LossyListing {
		fmt.Fprintf(r.writer, "%s\n", r.sprint(color.FgYellow,
			"Note: archive listing required lossy text decoding; some paths may display substituted characters."))
	}
}

// Freshness prints the outdated-files report.
func (r *Reporter) Freshness(result *verify.FreshnessResult) {
	fmt.Fprintf(r.writer, "Freshness check: %d/%d files up to date\n",
		len(result.UpToDate), result.TotalChecked)

	if len(result.Outdated) > 0 {
		fmt.Fprintf(r.writer, "%s\n", r.sprint(color.FgYellow, "Outdated files in archive:"))
		for _, of := range result.Outdated {
			fmt.Fprintf(r.writer, "    - %s (archive: %s, filesystem: %s)\n",
				of.Entry.Path,
				of.ArchiveModified.Format("2006-01-02 15:04:05"),
				of.FilesystemModified.Format("2006-01-02 15:04:05"))
		}
	}

	if len(result.Unverifiable) > 0 {
		fmt.Fprintf(r.writer, "Files that could not be checked:\n")
		for _, entry := range result.Unverifiable {
			fmt.Fprintf(r.writer, "    - %s\n", entry.Path)
		}
	}
}
