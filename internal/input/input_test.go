package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSplit verifies roots and exclusion patterns separate correctly with
// line numbers preserved.
func TestSplit(t *testing.T) {
	lines := []string{
		`C:\Users\test\Documents`,
		"",
		"!*.tmp",
		"  /home/user/projects  ",
		"! *cache*",
		"   ",
	}

	roots, patterns := Split(lines)

	assert.Equal(t, []string{`C:\Users\test\Documents`, "/home/user/projects"}, roots)
	require.Len(t, patterns, 2)
	assert.Equal(t, "*.tmp", patterns[0].Pattern)
	assert.Equal(t, 3, patterns[0].Line)
	assert.Equal(t, "*cache*", patterns[1].Pattern)
	assert.Equal(t, 5, patterns[1].Line)
}

// TestSplitNoPatterns verifies pattern-free input.
func TestSplitNoPatterns(t *testing.T) {
	roots, patterns := Split([]string{"/a", "/b"})
	assert.Equal(t, []string{"/a", "/b"}, roots)
	assert.Empty(t, patterns)
}

// TestFileReader verifies reading, trimming happens downstream in Split.
func TestFileReader(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "paths.txt")
	content := "/path/one\n/path/two\n\n  /path/three  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lines, err := NewFileReader(path).ReadLines()
	require.NoError(t, err)
	assert.Len(t, lines, 4)

	roots, _ := Split(lines)
	assert.Equal(t, []string{"/path/one", "/path/two", "/path/three"}, roots)
}

// TestFileReaderMissingFile verifies a useful error for a bad path.
func TestFileReaderMissingFile(t *testing.T) {
	_, err := NewFileReader("/no/such/file.txt").ReadLines()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/no/such/file.txt")
}

// TestSliceReader verifies the test double passthrough.
func TestSliceReader(t *testing.T) {
	lines := []string{"/a", "!*.log"}
	got, err := (&SliceReader{Lines: lines}).ReadLines()
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}
