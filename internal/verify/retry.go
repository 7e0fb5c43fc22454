package verify

import (
	"context"
	"fmt"

	"github.com/harrison/archtree/internal/expand"
	"github.com/harrison/archtree/internal/fileutil"
	"github.com/harrison/archtree/internal/listing"
)

// State is the orchestrator's position in the verify/retry state machine.
type State int

const (
	// StateVerifying means a reconciliation pass is running.
	StateVerifying State = iota
	// StateRetrying means missing files are being re-added to the archive.
	StateRetrying
	// StateConverged is terminal: every expected file is present.
	StateConverged
	// StateGaveUp is terminal: the pass bound was exhausted with files still
	// missing. Partial success, not failure.
	StateGaveUp
	// StateIncomplete is terminal: a verification-only check found missing
	// files and no retry was attempted.
	StateIncomplete
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateVerifying:
		return "verifying"
	case StateRetrying:
		return "retrying"
	case StateConverged:
		return "converged"
	case StateIncomplete:
		return "incomplete"
	default:
		return "gave-up"
	}
}

// Archiver is the external archive tool as seen by the orchestrator.
// Implementations are subprocess-backed in production and in-memory fakes in
// tests.
type Archiver interface {
	// AddToArchive adds the given files to an existing archive.
	AddToArchive(ctx context.Context, paths []string, archivePath string) error
	// ListEntries lists the archive's contents. The bool reports whether
	// lossy decoding was needed.
	ListEntries(ctx context.Context, archivePath string, mode listing.EncodingMode) ([]listing.Entry, bool, error)
}

// Logger receives progress messages from the orchestrator.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

// Outcome is the result of a full orchestrator run: the terminal state, the
// trajectory of per-pass results, and entries that vanished from disk and
// were therefore never retried.
type Outcome struct {
	State State
	// Passes holds one VerificationResult per Verifying pass, oldest first.
	Passes []*VerificationResult
	// Unresolvable holds missing entries whose re-validation reported
	// non-existence; they cannot be archived by retrying.
	Unresolvable []expand.ExpectedEntry
	// LossyListing is true when any listing pass required permissive
	// decoding.
	LossyListing bool
}

// Final returns the last verification pass. Never nil after a successful Run.
func (o *Outcome) Final() *VerificationResult {
	if len(o.Passes) == 0 {
		return nil
	}
	return o.Passes[len(o.Passes)-1]
}

// Orchestrator drives repeated verify → add-missing → re-verify cycles until
// the archive converges or the pass bound is reached.
type Orchestrator struct {
	archiver     Archiver
	validator    fileutil.Validator
	logger       Logger
	maxRetries   int
	encodingMode listing.EncodingMode
}

// NewOrchestrator creates an Orchestrator. maxRetries is the number of
// Retrying passes allowed after the initial verification; 0 means verify
// once and never retry. logger may be nil.
func NewOrchestrator(archiver Archiver, validator fileutil.Validator, logger Logger, maxRetries int, mode listing.EncodingMode) *Orchestrator {
	return &Orchestrator{
		archiver:     archiver,
		validator:    validator,
		logger:       logger,
		maxRetries:   maxRetries,
		encodingMode: mode,
	}
}

// Run executes the state machine against archivePath for the given expected
// set. It terminates after at most maxRetries retry passes: retrying
// unconditionally until success would never return against a permanently
// broken path.
func (o *Orchestrator) Run(ctx context.Context, archivePath string, expected []expand.ExpectedEntry) (*Outcome, error) {
	outcome := &Outcome{State: StateVerifying}
	unresolvable := make(map[string]struct{})

	for pass := 0; ; pass++ {
		result, err := o.verifyPass(ctx, archivePath, expected, outcome)
		if err != nil {
			return nil, err
		}
		outcome.Passes = append(outcome.Passes, result)

		if result.IsComplete() {
			outcome.State = StateConverged
			o.logInfo(fmt.Sprintf("Archive verified: %d/%d files present", result.PresentCount, result.TotalExpected()))
			return outcome, nil
		}

		o.logInfo(fmt.Sprintf("Verification pass %d: %d/%d files present, %d missing",
			pass+1, result.PresentCount, result.TotalExpected(), len(result.Missing)))

		if pass >= o.maxRetries {
			outcome.State = StateGaveUp
			o.logWarn(fmt.Sprintf("Giving up after %d passes with %d files still missing",
				pass+1, len(result.Missing)))
			return outcome, nil
		}

		outcome.State = StateRetrying
		retrySet := o.revalidate(result.Missing, outcome, unresolvable)
		if len(retrySet) == 0 {
			outcome.State = StateGaveUp
			o.logWarn("No missing files left to retry")
			return outcome, nil
		}

		o.logInfo(fmt.Sprintf("Retrying %d missing files", len(retrySet)))
		if err := o.archiver.AddToArchive(ctx, expand.Paths(retrySet), archivePath); err != nil {
			return nil, fmt.Errorf("failed to add missing files to archive: %w", err)
		}

		outcome.State = StateVerifying
	}
}

// verifyPass lists the archive and reconciles it against the expected set.
func (o *Orchestrator) verifyPass(ctx context.Context, archivePath string, expected []expand.ExpectedEntry, outcome *Outcome) (*VerificationResult, error) {
	entries, lossy, err := o.archiver.ListEntries(ctx, archivePath, o.encodingMode)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive contents: %w", err)
	}
	if lossy {
		outcome.LossyListing = true
		o.logDebug("Archive listing required lossy text decoding")
	}

	return Reconcile(expected, entries), nil
}

// revalidate drops missing entries that no longer exist on disk. They are
// reported as permanently unresolvable instead of being retried forever.
// A vanished entry stays missing on every subsequent pass, so seen tracks
// the ones already recorded to keep Unresolvable duplicate-free.
func (o *Orchestrator) revalidate(missing []expand.ExpectedEntry, outcome *Outcome, seen map[string]struct{}) []expand.ExpectedEntry {
	retrySet := make([]expand.ExpectedEntry, 0, len(missing))
	for _, entry := range missing {
		if o.validator.Exists(entry.Path) {
			retrySet = append(retrySet, entry)
			continue
		}
		if _, ok := seen[entry.Norm]; ok {
			continue
		}
		seen[entry.Norm] = struct{}{}
		outcome.Unresolvable = append(outcome.Unresolvable, entry)
		o.logWarn(fmt.Sprintf("Missing file no longer exists on disk, not retrying: %s", entry.Path))
	}
	return retrySet
}

func (o *Orchestrator) logDebug(message string) {
	if o.logger != nil {
		o.logger.LogDebug(message)
	}
}

func (o *Orchestrator) logInfo(message string) {
	if o.logger != nil {
		o.logger.LogInfo(message)
	}
}

func (o *Orchestrator) logWarn(message string) {
	if o.logger != nil {
		o.logger.LogWarn(message)
	}
}
