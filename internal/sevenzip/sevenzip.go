// Package sevenzip drives the external 7-Zip command-line tool: creating
// archives, adding files to existing archives, and listing archive contents.
//
// The tool's exit status is treated as opaque success/failure; stderr and
// stdout are surfaced in errors for the operator but never interpreted.
package sevenzip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/harrison/archtree/internal/listing"
)

// DefaultExecutable is the 7-Zip binary name looked up on PATH when no
// explicit location is configured.
const DefaultExecutable = "7z"

// Tool invokes a 7-Zip executable as a subprocess.
type Tool struct {
	// ExecutablePath is the binary to invoke, either a bare name resolved
	// via PATH or an absolute path from configuration.
	ExecutablePath string
}

// New creates a Tool using the default executable name.
func New() *Tool {
	return &Tool{ExecutablePath: DefaultExecutable}
}

// NewWithPath creates a Tool using a specific executable location.
// An empty path falls back to the default.
func NewWithPath(path string) *Tool {
	if path == "" {
		return New()
	}
	return &Tool{ExecutablePath: path}
}

// Name returns the tool's display name.
func (t *Tool) Name() string {
	return "7-Zip"
}

// IsAvailable reports whether the executable can be invoked at all.
func (t *Tool) IsAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, t.ExecutablePath, "--help")
	return cmd.Run() == nil
}

// CreateArchive creates (or recreates) an archive at outputPath containing
// the given files. Paths are passed via a temporary @listfile so very large
// path sets never hit command-line length limits.
func (t *Tool) CreateArchive(ctx context.Context, paths []string, outputPath string) error {
	return t.runArchiveOp(ctx, "a", paths, outputPath)
}

// AddToArchive updates an existing archive with the given files, adding
// entries that are not yet present.
func (t *Tool) AddToArchive(ctx context.Context, paths []string, archivePath string) error {
	return t.runArchiveOp(ctx, "u", paths, archivePath)
}

func (t *Tool) runArchiveOp(ctx context.Context, op string, paths []string, archivePath string) error {
	listFile, cleanup, err := writeListFile(paths)
	if err != nil {
		return err
	}
	defer cleanup()

	args := []string{
		op,
		"-spf",      // keep full paths
		"-sccUTF-8", // force UTF-8 console output
		archivePath,
		"@" + listFile,
	}

	cmd := exec.CommandContext(ctx, t.ExecutablePath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("7z %s failed for %s: %w\n%s", op, archivePath, err, strings.TrimSpace(string(output)))
	}

	return nil
}

// ListEntries lists the archive's contents using `7z l -slt` and parses the
// output. In EncodingAuto mode a strict UTF-8 invocation is tried first; if
// its output cannot be decoded, the command is re-run without UTF-8 forcing
// and decoded permissively. The returned bool reports whether lossy decoding
// was used.
func (t *Tool) ListEntries(ctx context.Context, archivePath string, mode listing.EncodingMode) ([]listing.Entry, bool, error) {
	switch mode {
	case listing.EncodingAuto:
		entries, lossy, err := t.listOnce(ctx, archivePath, listing.EncodingUTF8)
		var parseErr *listing.ParseError
		if err != nil && errors.As(err, &parseErr) {
			return t.listOnce(ctx, archivePath, listing.EncodingLegacy)
		}
		return entries, lossy, err
	default:
		return t.listOnce(ctx, archivePath, mode)
	}
}

func (t *Tool) listOnce(ctx context.Context, archivePath string, mode listing.EncodingMode) ([]listing.Entry, bool, error) {
	args := []string{"l", "-slt"}
	if mode == listing.EncodingUTF8 {
		args = append(args, "-sccUTF-8")
	}
	args = append(args, archivePath)

	cmd := exec.CommandContext(ctx, t.ExecutablePath, args...)
	stdout, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, false, fmt.Errorf("7z list failed for %s: %w\n%s",
				archivePath, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, false, fmt.Errorf("failed to execute 7z list: %w", err)
	}

	return listing.DecodeAndParse(stdout, mode, archivePath)
}

// writeListFile writes one path per line to a uniquely named temp file and
// returns its path plus a cleanup func.
func writeListFile(paths []string) (string, func(), error) {
	name := fmt.Sprintf("archtree-list-%s.txt", uuid.NewString())
	path := filepath.Join(os.TempDir(), name)

	content := strings.Join(paths, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", nil, fmt.Errorf("failed to write path list file: %w", err)
	}

	return path, func() { _ = os.Remove(path) }, nil
}
