// Package fileutil provides path canonicalization helpers and filesystem
// checks shared by expansion, exclusion matching, and verification.
//
// All comparisons between caller-supplied paths and archiver-emitted paths
// go through Normalize so that separator style and letter case never decide
// whether two strings name the same location.
package fileutil

import (
	"os"
	"strings"
)

// Separator is the canonical path separator used in normalized paths.
const Separator = "/"

// Normalize canonicalizes a path string for cross-platform, case-insensitive
// comparison. All backslashes become forward slashes, the whole string is
// lower-cased, and a trailing separator is stripped. Two paths name the same
// location iff their normalized forms are equal.
//
// Normalize is a pure function and idempotent: Normalize(Normalize(p)) ==
// Normalize(p) for every p.
func Normalize(path string) string {
	normalized := strings.ToLower(strings.ReplaceAll(path, "\\", Separator))

	// Strip a single trailing separator, but never reduce "/" to "".
	if len(normalized) > 1 && strings.HasSuffix(normalized, Separator) {
		normalized = normalized[:len(normalized)-1]
	}

	return normalized
}

// FilenameKey returns the normalized filename component of path, used as the
// lookup key for filename-fallback matching. Returns "" for paths that end
// in a separator.
func FilenameKey(path string) string {
	normalized := Normalize(path)
	if idx := strings.LastIndex(normalized, Separator); idx >= 0 {
		return normalized[idx+1:]
	}
	return normalized
}

// ParentDir returns the parent directory of path with the original casing
// preserved but separators canonicalized. Returns "" when path has no parent
// component.
func ParentDir(path string) string {
	canonical := strings.ReplaceAll(path, "\\", Separator)
	canonical = strings.TrimSuffix(canonical, Separator)

	idx := strings.LastIndex(canonical, Separator)
	if idx < 0 {
		return ""
	}
	if idx == 0 {
		return Separator
	}
	return canonical[:idx]
}

// Validator reports whether a path currently exists on disk. It is the
// boundary collaborator used by expansion and by retry re-validation, kept
// behind an interface so tests can substitute deterministic fakes.
type Validator interface {
	Exists(path string) bool
}

// FileSystemValidator checks path existence against the real filesystem.
type FileSystemValidator struct{}

// NewFileSystemValidator creates a FileSystemValidator.
func NewFileSystemValidator() *FileSystemValidator {
	return &FileSystemValidator{}
}

// Exists returns true when path exists and is accessible. Any stat error,
// including permission errors, is treated as non-existence; callers report
// the path as invalid rather than aborting the run.
func (v *FileSystemValidator) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
