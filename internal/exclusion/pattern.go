// Package exclusion compiles wildcard exclusion patterns and tests candidate
// paths against them.
//
// Patterns support `*` (any run of characters) and `?` (exactly one
// character). A pattern written with either separator style matches paths in
// either style, and matching is case-insensitive: both pattern and candidate
// are canonicalized through fileutil.Normalize before comparison. A candidate
// is excluded when either its full normalized path or its normalized filename
// component matches.
package exclusion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harrison/archtree/internal/fileutil"
)

// RawPattern is one exclusion rule as read from the input source, before
// compilation. Line is the 1-based source line number, kept for diagnostics.
type RawPattern struct {
	Pattern string
	Line    int
}

// CompiledPattern is a RawPattern translated into an anchored regular
// expression ready for repeated matching. Compilation is the expensive step;
// Matches is cheap and safe for concurrent use.
type CompiledPattern struct {
	Raw RawPattern
	re  *regexp.Regexp
}

// PatternError reports an exclusion pattern that could not be translated
// into a matcher. It is fatal to the run: silently dropping a broken filter
// risks archiving data the caller meant to exclude.
type PatternError struct {
	Pattern string
	Line    int
	Err     error
}

func (e *PatternError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid exclusion pattern %q (line %d): %v", e.Pattern, e.Line, e.Err)
	}
	return fmt.Sprintf("invalid exclusion pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Compile translates raw wildcard patterns into compiled matchers.
// It fails with a *PatternError on the first pattern whose wildcard syntax
// cannot be translated; callers must surface this as a configuration error.
func Compile(raws []RawPattern) ([]CompiledPattern, error) {
	compiled := make([]CompiledPattern, 0, len(raws))

	for _, raw := range raws {
		if raw.Pattern == "" {
			return nil, &PatternError{Pattern: raw.Pattern, Line: raw.Line, Err: fmt.Errorf("pattern is empty")}
		}
		expr := wildcardToRegex(fileutil.Normalize(raw.Pattern))
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &PatternError{Pattern: raw.Pattern, Line: raw.Line, Err: err}
		}
		compiled = append(compiled, CompiledPattern{Raw: raw, re: re})
	}

	return compiled, nil
}

// wildcardToRegex converts a normalized wildcard pattern to an anchored
// regular expression. `*` becomes `.*`, `?` becomes `.`, and every regex
// metacharacter is escaped so it matches literally.
func wildcardToRegex(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')

	for _, c := range pattern {
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '.', '^', '$', '(', ')', '[', ']', '{', '}', '|', '+', '\\':
			b.WriteByte('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}

	b.WriteByte('$')
	return b.String()
}

// Matches reports whether the candidate path is excluded by this pattern.
// Both the full normalized path and the normalized filename component are
// tested; a match on either is an exclusion.
func (cp CompiledPattern) Matches(candidate string) bool {
	normalized := fileutil.Normalize(candidate)
	if cp.re.MatchString(normalized) {
		return true
	}
	return cp.re.MatchString(fileutil.FilenameKey(candidate))
}

// MatchesAny reports whether any compiled pattern excludes the candidate.
func MatchesAny(compiled []CompiledPattern, candidate string) bool {
	for _, cp := range compiled {
		if cp.Matches(candidate) {
			return true
		}
	}
	return false
}
