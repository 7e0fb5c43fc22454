package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrison/archtree/internal/expand"
	"github.com/harrison/archtree/internal/listing"
	"github.com/harrison/archtree/internal/verify"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(archivePath string, trajectory []int) *Run {
	started := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return &Run{
		ID:            "run-" + archivePath,
		ArchivePath:   archivePath,
		StartedAt:     started,
		FinishedAt:    started.Add(time.Minute),
		State:         "converged",
		TotalExpected: 150,
		Present:       150,
		Trajectory:    trajectory,
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "history.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store.Close()
}

func TestRecordAndReadBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("/backups/a.7z", []int{147, 150})
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := store.RecentRuns(ctx, "", 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	got := runs[0]
	if got.ID != run.ID {
		t.Errorf("ID = %q, want %q", got.ID, run.ID)
	}
	if got.ArchivePath != "/backups/a.7z" {
		t.Errorf("ArchivePath = %q", got.ArchivePath)
	}
	if got.State != "converged" {
		t.Errorf("State = %q", got.State)
	}
	if got.TotalExpected != 150 || got.Present != 150 {
		t.Errorf("counts = %d/%d", got.Present, got.TotalExpected)
	}
	if len(got.Trajectory) != 2 || got.Trajectory[0] != 147 || got.Trajectory[1] != 150 {
		t.Errorf("Trajectory = %v", got.Trajectory)
	}
}

func TestRecentRunsFiltersByArchive(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordRun(ctx, sampleRun("/backups/a.7z", nil)); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := store.RecordRun(ctx, sampleRun("/backups/b.7z", nil)); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := store.RecentRuns(ctx, "/backups/b.7z", 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ArchivePath != "/backups/b.7z" {
		t.Errorf("unexpected filter result: %+v", runs)
	}

	count, err := store.RunCount(ctx, "")
	if err != nil {
		t.Fatalf("RunCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("RunCount = %d, want 2", count)
	}
}

func TestRecentRunsOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	older := sampleRun("/backups/a.7z", nil)
	older.ID = "older"
	newer := sampleRun("/backups/a.7z", nil)
	newer.ID = "newer"
	newer.StartedAt = older.StartedAt.Add(time.Hour)

	if err := store.RecordRun(ctx, older); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := store.RecordRun(ctx, newer); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := store.RecentRuns(ctx, "", 1)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "newer" {
		t.Errorf("expected most recent run first, got %+v", runs)
	}
}

func TestNewRunFromOutcome(t *testing.T) {
	expected := []expand.ExpectedEntry{
		{Path: "/a/x.txt", Norm: "/a/x.txt"},
		{Path: "/a/y.txt", Norm: "/a/y.txt"},
	}
	first := verify.Reconcile(expected, []listing.Entry{{Path: "/a/x.txt"}})
	second := verify.Reconcile(expected, []listing.Entry{
		{Path: "/a/x.txt"}, {Path: "/a/y.txt"},
	})
	outcome := &verify.Outcome{
		State:  verify.StateConverged,
		Passes: []*verify.VerificationResult{first, second},
	}

	started := time.Now()
	run := NewRun("/backups/a.7z", started, started.Add(time.Second), outcome)

	if run.ID == "" {
		t.Error("expected a generated run ID")
	}
	if run.State != "converged" {
		t.Errorf("State = %q", run.State)
	}
	if run.TotalExpected != 2 || run.Present != 2 {
		t.Errorf("counts = %d/%d", run.Present, run.TotalExpected)
	}
	if len(run.Trajectory) != 2 || run.Trajectory[0] != 1 || run.Trajectory[1] != 2 {
		t.Errorf("Trajectory = %v", run.Trajectory)
	}
}

func TestNewRunVerifyOnlyIncomplete(t *testing.T) {
	expected := []expand.ExpectedEntry{
		{Path: "/a/x.txt", Norm: "/a/x.txt"},
		{Path: "/a/y.txt", Norm: "/a/y.txt"},
	}
	result := verify.Reconcile(expected, []listing.Entry{{Path: "/a/x.txt"}})
	outcome := &verify.Outcome{
		State:  verify.StateIncomplete,
		Passes: []*verify.VerificationResult{result},
	}

	started := time.Now()
	run := NewRun("/backups/a.7z", started, started, outcome)

	if run.State != "incomplete" {
		t.Errorf("State = %q, want %q", run.State, "incomplete")
	}
	if run.TotalExpected != 2 || run.Present != 1 {
		t.Errorf("counts = %d/%d", run.Present, run.TotalExpected)
	}
}
