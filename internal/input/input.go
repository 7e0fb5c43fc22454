// Package input reads the caller-supplied path list and splits out exclusion
// patterns.
//
// The list is plain text, one entry per line. Lines prefixed with `!` are
// exclusion patterns; everything else is a root path to archive. Blank lines
// and surrounding whitespace are ignored.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harrison/archtree/internal/exclusion"
)

// ExclusionMarker prefixes lines that declare exclusion patterns.
const ExclusionMarker = "!"

// Reader supplies raw input lines from some source.
type Reader interface {
	ReadLines() ([]string, error)
}

// FileReader reads lines from a file on disk.
type FileReader struct {
	Path string
}

// NewFileReader creates a FileReader for the given path.
func NewFileReader(path string) *FileReader {
	return &FileReader{Path: path}
}

// ReadLines reads the whole file.
func (r *FileReader) ReadLines() ([]string, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %s: %w", r.Path, err)
	}
	defer f.Close()

	lines, err := readAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", r.Path, err)
	}
	return lines, nil
}

// StdinReader reads lines from standard input until EOF.
type StdinReader struct{}

// NewStdinReader creates a StdinReader.
func NewStdinReader() *StdinReader {
	return &StdinReader{}
}

// ReadLines reads stdin to EOF.
func (r *StdinReader) ReadLines() ([]string, error) {
	lines, err := readAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return lines, nil
}

// SliceReader supplies a fixed set of lines. Useful for tests.
type SliceReader struct {
	Lines []string
}

// ReadLines returns the configured lines.
func (r *SliceReader) ReadLines() ([]string, error) {
	return r.Lines, nil
}

func readAll(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Split separates input lines into root paths and raw exclusion patterns.
// Pattern line numbers refer to the original input, 1-based, for error
// messages when compilation later fails.
func Split(lines []string) (roots []string, patterns []exclusion.RawPattern) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if rest, ok := strings.CutPrefix(trimmed, ExclusionMarker); ok {
			patterns = append(patterns, exclusion.RawPattern{
				Pattern: strings.TrimSpace(rest),
				Line:    i + 1,
			})
			continue
		}

		roots = append(roots, trimmed)
	}

	return roots, patterns
}
