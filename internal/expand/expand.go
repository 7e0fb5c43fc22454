// Package expand walks caller-supplied root paths into the flat set of files
// expected to be archived.
//
// Exclusion patterns are applied before filesystem traversal: a directory
// matched by a pattern is never descended into, and a file matched by a
// pattern is skipped even when its parent directory was not excluded.
package expand

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/harrison/archtree/internal/exclusion"
	"github.com/harrison/archtree/internal/fileutil"
)

// ExpectedEntry is one file the caller wants present in the archive.
// Path is absolute; Norm is its normalized form and the deduplication key.
type ExpectedEntry struct {
	Path string
	Norm string
	Size int64
}

// Stats tracks per-run expansion counts and collected per-item warnings.
// Invalid paths are recoverable: they are counted and reported, never fatal.
type Stats struct {
	Included int
	Excluded int
	Invalid  int
	Warnings []string
}

// Status classifies the outcome of processing a single path, for progress
// reporting.
type Status int

const (
	// StatusAdded means the file was emitted as an ExpectedEntry.
	StatusAdded Status = iota
	// StatusExcluded means the path matched an exclusion pattern.
	StatusExcluded
	// StatusInvalid means the path does not exist or is inaccessible.
	StatusInvalid
)

// Observer receives a callback per processed path. A nil Observer is valid.
type Observer func(path string, status Status)

// Expander expands root paths into expected entries, applying compiled
// exclusions and delegating existence checks to the validator.
type Expander struct {
	validator fileutil.Validator
	patterns  []exclusion.CompiledPattern
	observer  Observer
}

// NewExpander creates an Expander. validator must not be nil; observer may be.
func NewExpander(validator fileutil.Validator, patterns []exclusion.CompiledPattern, observer Observer) *Expander {
	return &Expander{
		validator: validator,
		patterns:  patterns,
		observer:  observer,
	}
}

// Expand processes each root path in order and returns the deduplicated
// expected file set plus statistics. Relative roots are resolved to absolute
// paths here, not later: verification compares against archiver output that
// preserves full paths, so deferring resolution would make archive layouts
// depend on the working directory of each run.
//
// Directories never appear in the result; they are expanded into their file
// members. Duplicate files reached through different roots survive once,
// keyed by normalized path.
func (e *Expander) Expand(roots []string) ([]ExpectedEntry, *Stats, error) {
	stats := &Stats{}
	seen := make(map[string]bool)
	var entries []ExpectedEntry

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve path %q: %w", root, err)
		}

		// Exclusion is checked before any filesystem access so excluded
		// directories are never traversed.
		if exclusion.MatchesAny(e.patterns, absRoot) {
			stats.Excluded++
			e.notify(absRoot, StatusExcluded)
			continue
		}

		if !e.validator.Exists(absRoot) {
			stats.Invalid++
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("path does not exist: %s", absRoot))
			e.notify(absRoot, StatusInvalid)
			continue
		}

		info, err := os.Stat(absRoot)
		if err != nil {
			stats.Invalid++
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("cannot access %s: %v", absRoot, err))
			e.notify(absRoot, StatusInvalid)
			continue
		}

		if info.IsDir() {
			entries = e.expandDirectory(absRoot, entries, seen, stats)
		} else {
			entries = e.emit(absRoot, info.Size(), entries, seen, stats)
		}
	}

	return entries, stats, nil
}

// expandDirectory walks dir recursively, applying exclusions to every
// descendant. Excluded subdirectories are cut from the walk entirely.
func (e *Expander) expandDirectory(dir string, entries []ExpectedEntry, seen map[string]bool, stats *Stats) []ExpectedEntry {
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			stats.Invalid++
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("cannot read %s: %v", path, err))
			return nil // keep walking the rest
		}

		if path == dir {
			return nil
		}

		if exclusion.MatchesAny(e.patterns, path) {
			stats.Excluded++
			e.notify(path, StatusExcluded)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		entries = e.emit(path, size, entries, seen, stats)
		return nil
	})
	if walkErr != nil {
		stats.Invalid++
		stats.Warnings = append(stats.Warnings, fmt.Sprintf("failed to walk %s: %v", dir, walkErr))
	}

	return entries
}

// emit appends path as an ExpectedEntry unless its normalized form was
// already produced by an earlier root.
func (e *Expander) emit(path string, size int64, entries []ExpectedEntry, seen map[string]bool, stats *Stats) []ExpectedEntry {
	norm := fileutil.Normalize(path)
	if seen[norm] {
		return entries
	}
	seen[norm] = true

	stats.Included++
	e.notify(path, StatusAdded)
	return append(entries, ExpectedEntry{Path: path, Norm: norm, Size: size})
}

func (e *Expander) notify(path string, status Status) {
	if e.observer != nil {
		e.observer(path, status)
	}
}

// Paths returns the original (non-normalized) paths of entries, in order.
// Convenience for handing the expected set to the external archiver.
func Paths(entries []ExpectedEntry) []string {
	paths := make([]string, len(entries))
	for i, entry := range entries {
		paths[i] = entry.Path
	}
	return paths
}
