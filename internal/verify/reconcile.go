// Package verify compares the expected file set against parsed archive
// entries, consolidates missing files for display, and drives the
// verify/retry loop.
package verify

import (
	"github.com/harrison/archtree/internal/expand"
	"github.com/harrison/archtree/internal/fileutil"
	"github.com/harrison/archtree/internal/listing"
)

// MatchStrategy identifies how a Present verdict was produced. The set is
// closed and small; switch statements over it should be exhaustive.
type MatchStrategy int

const (
	// MatchNone means no match was found; the entry is missing.
	MatchNone MatchStrategy = iota
	// MatchExactPath means the normalized full paths were equal.
	MatchExactPath
	// MatchFilename means exactly one archive entry shared the filename.
	// Attempted only when no exact match exists.
	MatchFilename
)

// String returns a diagnostic name for the strategy.
func (s MatchStrategy) String() string {
	switch s {
	case MatchExactPath:
		return "exact"
	case MatchFilename:
		return "filename-fallback"
	default:
		return "none"
	}
}

// Verdict is the per-entry outcome of reconciliation.
type Verdict struct {
	Entry    expand.ExpectedEntry
	Present  bool
	Strategy MatchStrategy
}

// VerificationResult aggregates one reconciliation pass. It is computed
// fresh per pass and never mutated; a retry produces a new result.
type VerificationResult struct {
	Expected []expand.ExpectedEntry
	Verdicts []Verdict
	// Missing holds the missing entries in original expected order.
	Missing      []expand.ExpectedEntry
	PresentCount int
}

// TotalExpected returns the size of the expected set.
func (r *VerificationResult) TotalExpected() int {
	return len(r.Expected)
}

// IsComplete reports whether every expected entry is present.
func (r *VerificationResult) IsComplete() bool {
	return len(r.Missing) == 0
}

// SuccessRate returns the percentage of expected files present. An empty
// expected set is trivially 100% successful.
func (r *VerificationResult) SuccessRate() float64 {
	if len(r.Expected) == 0 {
		return 100.0
	}
	return float64(r.PresentCount) / float64(len(r.Expected)) * 100.0
}

// Reconcile compares expected entries against parsed archive entries.
//
// Matching is layered: an exact normalized-path match wins; otherwise a
// filename fallback is attempted, but only when exactly one archive entry
// carries that filename. Two entries sharing a filename in different
// directories make the fallback ambiguous, and guessing would risk declaring
// the wrong file archived, so ambiguity yields Missing. The ambiguity check
// looks at the archive side only: several expected entries sharing a filename
// can each match a single archived copy through the fallback.
//
// Directory entries in actual never match. Missing entries keep the original
// expected order, so identical inputs produce identical output.
func Reconcile(expected []expand.ExpectedEntry, actual []listing.Entry) *VerificationResult {
	byPath := make(map[string]bool)
	byFilename := make(map[string]int)

	for _, entry := range actual {
		if entry.IsDirectory {
			continue
		}
		byPath[fileutil.Normalize(entry.Path)] = true
		byFilename[fileutil.FilenameKey(entry.Path)]++
	}

	result := &VerificationResult{
		Expected: expected,
		Verdicts: make([]Verdict, 0, len(expected)),
	}

	for _, exp := range expected {
		verdict := Verdict{Entry: exp, Strategy: MatchNone}

		switch {
		case byPath[exp.Norm]:
			verdict.Present = true
			verdict.Strategy = MatchExactPath
		case byFilename[fileutil.FilenameKey(exp.Path)] == 1:
			verdict.Present = true
			verdict.Strategy = MatchFilename
		}

		if verdict.Present {
			result.PresentCount++
		} else {
			result.Missing = append(result.Missing, exp)
		}
		result.Verdicts = append(result.Verdicts, verdict)
	}

	return result
}
