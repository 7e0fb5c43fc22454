package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestBackupRejectsMissingInputFile(t *testing.T) {
	_, err := executeCommand(t, "backup", "-f", filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
	if !strings.Contains(err.Error(), "input file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBackupRejectsInputWithoutPaths(t *testing.T) {
	inputFile := filepath.Join(t.TempDir(), "only-exclusions.txt")
	content := "!*.tmp\n!*.log\n"
	if err := os.WriteFile(inputFile, []byte(content), 0644); err != nil {
		t.Fatalf("write input file: %v", err)
	}

	_, err := executeCommand(t, "backup", "-f", inputFile)
	if err == nil {
		t.Fatal("expected error for input without paths")
	}
	if !strings.Contains(err.Error(), "no paths") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBackupRejectsBadExclusionPattern(t *testing.T) {
	dir := t.TempDir()
	inputFile := filepath.Join(dir, "input.txt")
	content := dir + "\n!\n"
	if err := os.WriteFile(inputFile, []byte(content), 0644); err != nil {
		t.Fatalf("write input file: %v", err)
	}

	_, err := executeCommand(t, "backup", "-f", inputFile)
	if err == nil {
		t.Fatal("expected error for empty exclusion pattern")
	}
}

func TestBackupRejectsUnknownEncoding(t *testing.T) {
	_, err := executeCommand(t, "backup", "--encoding", "latin1")
	if err == nil {
		t.Fatal("expected error for unknown encoding value")
	}
}
