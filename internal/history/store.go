// Package history persists per-run verification outcomes to a local SQLite
// database so past backup runs can be inspected later.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/archtree/internal/verify"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded backup or verification run.
type Run struct {
	ID            string
	ArchivePath   string
	StartedAt     time.Time
	FinishedAt    time.Time
	State         string
	TotalExpected int
	Present       int
	// Trajectory holds the present-count after each verification pass.
	Trajectory   []int
	Unresolvable int
	LossyListing bool
}

// Store manages the SQLite database of recorded runs.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (or creates) the run database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout must come first so later statements wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NewRun builds a Run record from a finished verification outcome. The run
// gets a fresh random ID.
func NewRun(archivePath string, startedAt, finishedAt time.Time, outcome *verify.Outcome) *Run {
	run := &Run{
		ID:           uuid.NewString(),
		ArchivePath:  archivePath,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		State:        outcome.State.String(),
		Unresolvable: len(outcome.Unresolvable),
		LossyListing: outcome.LossyListing,
	}
	for _, pass := range outcome.Passes {
		run.Trajectory = append(run.Trajectory, pass.PresentCount)
	}
	if final := outcome.Final(); final != nil {
		run.TotalExpected = final.TotalExpected()
		run.Present = final.PresentCount
	}
	return run
}

// RecordRun inserts a run record.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	trajectory := run.Trajectory
	if trajectory == nil {
		trajectory = []int{}
	}
	trajectoryJSON, err := json.Marshal(trajectory)
	if err != nil {
		return fmt.Errorf("marshal trajectory: %w", err)
	}

	query := `INSERT INTO runs
		(id, archive_path, started_at, finished_at, state, total_expected, present, trajectory, unresolvable, lossy_listing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.ArchivePath,
		run.StartedAt,
		run.FinishedAt,
		run.State,
		run.TotalExpected,
		run.Present,
		string(trajectoryJSON),
		run.Unresolvable,
		run.LossyListing,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first. An empty
// archivePath returns runs for all archives.
func (s *Store) RecentRuns(ctx context.Context, archivePath string, limit int) ([]*Run, error) {
	query := `SELECT id, archive_path, started_at, finished_at, state, total_expected, present, trajectory, unresolvable, lossy_listing
		FROM runs`
	args := []interface{}{}

	if archivePath != "" {
		query += " WHERE archive_path = ?"
		args = append(args, archivePath)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var trajectoryJSON string
		err := rows.Scan(
			&run.ID,
			&run.ArchivePath,
			&run.StartedAt,
			&run.FinishedAt,
			&run.State,
			&run.TotalExpected,
			&run.Present,
			&trajectoryJSON,
			&run.Unresolvable,
			&run.LossyListing,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if err := json.Unmarshal([]byte(trajectoryJSON), &run.Trajectory); err != nil {
			return nil, fmt.Errorf("unmarshal trajectory: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// RunCount returns the number of recorded runs for an archive. An empty
// archivePath counts all runs.
func (s *Store) RunCount(ctx context.Context, archivePath string) (int, error) {
	query := `SELECT COUNT(*) FROM runs`
	args := []interface{}{}
	if archivePath != "" {
		query += " WHERE archive_path = ?"
		args = append(args, archivePath)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query run count: %w", err)
	}
	return count, nil
}
