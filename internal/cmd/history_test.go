package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/archtree/internal/history"
)

func TestHistoryEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	out, err := executeCommand(t, "history", "--db", dbPath)
	if err != nil {
		t.Fatalf("history command failed: %v", err)
	}
	if !strings.Contains(out, "No recorded runs.") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestHistoryListsRecordedRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := history.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	started := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	run := &history.Run{
		ID:            "test-run",
		ArchivePath:   "/backups/home.7z",
		StartedAt:     started,
		FinishedAt:    started.Add(time.Minute),
		State:         "converged",
		TotalExpected: 150,
		Present:       150,
		Trajectory:    []int{147, 150},
	}
	if err := store.RecordRun(context.Background(), run); err != nil {
		t.Fatalf("record run: %v", err)
	}
	store.Close()

	out, err := executeCommand(t, "history", "--db", dbPath)
	if err != nil {
		t.Fatalf("history command failed: %v", err)
	}
	if !strings.Contains(out, "/backups/home.7z") {
		t.Errorf("output missing archive path: %s", out)
	}
	if !strings.Contains(out, "converged") {
		t.Errorf("output missing state: %s", out)
	}
	if !strings.Contains(out, "150/150") {
		t.Errorf("output missing counts: %s", out)
	}
	if !strings.Contains(out, "[147 -> 150]") {
		t.Errorf("output missing trajectory: %s", out)
	}
}
