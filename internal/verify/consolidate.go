package verify

import (
	"github.com/harrison/archtree/internal/fileutil"
)

// ConsolidatedKind distinguishes individual missing files from whole-directory
// summaries.
type ConsolidatedKind int

const (
	// ConsolidatedFile is a single missing file.
	ConsolidatedFile ConsolidatedKind = iota
	// ConsolidatedDirectory summarizes a directory whose expected files are
	// all missing.
	ConsolidatedDirectory
)

// ConsolidatedMissing is one line of the missing-files report: either a file
// path or a directory summary with the count of missing members.
type ConsolidatedMissing struct {
	Kind ConsolidatedKind
	Path string
	// MissingCount is the number of missing members for directory summaries,
	// 1 for files.
	MissingCount int
}

// Consolidate groups the result's missing entries by immediate parent
// directory and collapses a directory into a single summary when every
// expected file directly under it is missing. Partially missing directories
// keep their files listed individually, and there is no recursive roll-up
// into ancestors: hiding a partial failure behind a parent summary would
// overstate the loss.
//
// The transformation is read-only presentation grouping; verdicts are never
// changed. Output order follows the original expected order of the first
// missing member of each group.
func Consolidate(result *VerificationResult) []ConsolidatedMissing {
	if len(result.Missing) == 0 {
		return nil
	}

	expectedPerDir := make(map[string]int)
	for _, exp := range result.Expected {
		expectedPerDir[fileutil.Normalize(fileutil.ParentDir(exp.Path))]++
	}

	missingPerDir := make(map[string]int)
	for _, miss := range result.Missing {
		missingPerDir[fileutil.Normalize(fileutil.ParentDir(miss.Path))]++
	}

	var consolidated []ConsolidatedMissing
	emittedDirs := make(map[string]bool)

	for _, miss := range result.Missing {
		parent := fileutil.ParentDir(miss.Path)
		key := fileutil.Normalize(parent)

		total := expectedPerDir[key]
		if total > 0 && missingPerDir[key] == total {
			if !emittedDirs[key] {
				emittedDirs[key] = true
				consolidated = append(consolidated, ConsolidatedMissing{
					Kind:         ConsolidatedDirectory,
					Path:         parent,
					MissingCount: total,
				})
			}
			continue
		}

		consolidated = append(consolidated, ConsolidatedMissing{
			Kind:         ConsolidatedFile,
			Path:         miss.Path,
			MissingCount: 1,
		})
	}

	return consolidated
}
