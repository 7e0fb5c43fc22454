package verify

import (
	"os"
	"time"

	"github.com/harrison/archtree/internal/expand"
	"github.com/harrison/archtree/internal/fileutil"
	"github.com/harrison/archtree/internal/listing"
)

// freshnessTolerance absorbs precision differences between archive and
// filesystem timestamps.
const freshnessTolerance = 2 * time.Second

// OutdatedFile is a file present in the archive whose filesystem copy is
// newer than the archived copy.
type OutdatedFile struct {
	Entry              expand.ExpectedEntry
	ArchiveModified    time.Time
	FilesystemModified time.Time
}

// FreshnessResult reports, for files present in the archive, whether the
// archived copies are still current. Missing files are the reconciler's
// concern and are not repeated here.
type FreshnessResult struct {
	Outdated []OutdatedFile
	UpToDate []expand.ExpectedEntry
	// Unverifiable holds entries whose timestamps could not be compared
	// (archive omitted the field, or the filesystem stat failed).
	Unverifiable []expand.ExpectedEntry
	TotalChecked int
}

// MtimeFunc returns a path's modification time. Injectable for tests.
type MtimeFunc func(path string) (time.Time, error)

// FilesystemMtime is the production MtimeFunc.
func FilesystemMtime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// CheckFreshness compares archived modification times against the
// filesystem for every expected entry present in actual. A file counts as
// outdated only when the filesystem copy is newer by more than the
// tolerance.
func CheckFreshness(expected []expand.ExpectedEntry, actual []listing.Entry, mtime MtimeFunc) *FreshnessResult {
	if mtime == nil {
		mtime = FilesystemMtime
	}

	byPath := make(map[string]listing.Entry)
	for _, entry := range actual {
		if !entry.IsDirectory {
			byPath[fileutil.Normalize(entry.Path)] = entry
		}
	}

	result := &FreshnessResult{}

	for _, exp := range expected {
		archived, ok := byPath[exp.Norm]
		if !ok {
			continue
		}
		result.TotalChecked++

		if !archived.HasModified {
			result.Unverifiable = append(result.Unverifiable, exp)
			continue
		}

		fsModified, err := mtime(exp.Path)
		if err != nil {
			result.Unverifiable = append(result.Unverifiable, exp)
			continue
		}

		if fsModified.After(archived.Modified.Add(freshnessTolerance)) {
			result.Outdated = append(result.Outdated, OutdatedFile{
				Entry:              exp,
				ArchiveModified:    archived.Modified,
				FilesystemModified: fsModified,
			})
		} else {
			result.UpToDate = append(result.UpToDate, exp)
		}
	}

	return result
}
