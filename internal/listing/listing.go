// Package listing parses the archiver's technical listing output into typed
// entries.
//
// The listing is a sequence of record blocks, each a run of `Key = Value`
// lines separated by blank lines. Two encoding regimes exist: the primary
// invocation mode emits strict UTF-8, while the legacy mode may emit byte
// sequences from the console codepage that are not valid UTF-8 and must be
// decoded permissively rather than failing the parse.
package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Entry is one record parsed from the archiver's listing. Path is
// archiver-native and must be normalized before comparison with
// caller-supplied paths.
type Entry struct {
	Path        string
	Size        int64
	IsDirectory bool
	// Modified is the archived file's mtime as reported by the tool.
	// HasModified is false for directories and for tools that omit the field.
	Modified    time.Time
	HasModified bool
}

// EncodingMode selects how raw listing bytes are decoded.
type EncodingMode int

const (
	// EncodingAuto tries strict UTF-8 first and falls back to permissive
	// decoding.
	EncodingAuto EncodingMode = iota
	// EncodingUTF8 requires well-formed UTF-8 and fails otherwise.
	EncodingUTF8
	// EncodingLegacy decodes permissively, substituting undecodable byte
	// sequences instead of failing.
	EncodingLegacy
)

// String returns the flag-facing name of the mode.
func (m EncodingMode) String() string {
	switch m {
	case EncodingUTF8:
		return "utf8"
	case EncodingLegacy:
		return "legacy"
	default:
		return "auto"
	}
}

// ParseError reports listing output that could not be decoded as text under
// any permitted mode. It is fatal to verification: without a readable
// listing there is nothing to compare against.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse archive listing: %s", e.Reason)
}

// modifiedLayout is the timestamp format the archiver emits for the
// Modified field.
const modifiedLayout = "2006-01-02 15:04:05"

// Decode converts raw listing bytes to text according to mode. The returned
// lossy flag is true when undecodable sequences were substituted, for
// diagnostics.
func Decode(raw []byte, mode EncodingMode) (text string, lossy bool, err error) {
	switch mode {
	case EncodingUTF8:
		if !utf8.Valid(raw) {
			return "", false, &ParseError{Reason: "output is not valid UTF-8"}
		}
		return string(raw), false, nil
	case EncodingLegacy:
		if utf8.Valid(raw) {
			return string(raw), false, nil
		}
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), true, nil
	default: // EncodingAuto
		if utf8.Valid(raw) {
			return string(raw), false, nil
		}
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), true, nil
	}
}

// Parse extracts entries from decoded listing text. archivePath is the path
// of the archive itself as passed to the tool: listings include a block for
// the archive file, which is not an entry. Blocks without a Path field
// (header blocks, partial trailing output) are discarded, not errors.
func Parse(text string, archivePath string) []Entry {
	var entries []Entry
	var current *Entry

	flush := func() {
		if current != nil {
			entries = append(entries, *current)
			current = nil
		}
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)

		if line == "" {
			flush()
			continue
		}

		key, value, found := strings.Cut(line, " = ")
		if !found {
			// Banner, column headers, separators. Only `Key = Value` lines
			// belong to record blocks.
			continue
		}

		switch key {
		case "Path":
			flush()
			if value == "" || value == archivePath {
				continue
			}
			current = &Entry{Path: value}
		case "Attributes":
			if current != nil {
				current.IsDirectory = strings.Contains(value, "D")
			}
		case "Size":
			if current != nil {
				if size, err := strconv.ParseInt(value, 10, 64); err == nil {
					current.Size = size
				}
			}
		case "Modified":
			if current != nil {
				// Some tool versions append fractional seconds.
				if idx := strings.IndexByte(value, '.'); idx > 0 {
					value = value[:idx]
				}
				if ts, err := time.ParseInLocation(modifiedLayout, value, time.Local); err == nil {
					current.Modified = ts
					current.HasModified = true
				}
			}
		}
	}

	// Last block may lack a trailing blank line.
	flush()

	return entries
}

// DecodeAndParse is the common path: decode raw bytes then parse the text.
func DecodeAndParse(raw []byte, mode EncodingMode, archivePath string) ([]Entry, bool, error) {
	text, lossy, err := Decode(raw, mode)
	if err != nil {
		return nil, false, err
	}
	return Parse(text, archivePath), lossy, nil
}

// Files filters entries down to non-directories. Directory entries never
// participate in matching against expected files.
func Files(entries []Entry) []Entry {
	files := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDirectory {
			files = append(files, entry)
		}
	}
	return files
}
