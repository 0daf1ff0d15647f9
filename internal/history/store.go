// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists batch run outcomes to a local SQLite journal
// so past runs can be listed and audited. Recording is best-effort side
// infrastructure: the pipeline itself never depends on it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdflock/pkg/types"
)

// Store manages the batch history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at path, creating the
// parent directory and schema as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			cancelled INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS run_files (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			path TEXT NOT NULL,
			format TEXT,
			status TEXT NOT NULL,
			reason TEXT,
			output TEXT,
			elapsed_ms INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_files_run_id ON run_files(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one recorded batch run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
	Skipped    int
	Cancelled  bool
}

// Summary renders the run's counts in the standard form.
func (r Run) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d skipped", r.Succeeded, r.Failed, r.Skipped)
}

// Record persists a finished batch result and returns its run ID.
// Only paths, statuses, and taxonomy reasons are stored; passwords never
// reach the journal.
func (s *Store) Record(ctx context.Context, result *types.BatchResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, succeeded, failed, skipped, cancelled)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.FinishedAt.UTC().Format(time.RFC3339Nano),
		result.Succeeded, result.Failed, result.Skipped, result.Cancelled)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for i, fr := range result.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, position, path, format, status, reason, output, elapsed_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, fr.Path, string(fr.Format), string(fr.Status),
			string(fr.Reason), fr.Output, fr.Elapsed.Milliseconds()); err != nil {
			return 0, fmt.Errorf("inserting file result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, succeeded, failed, skipped, cancelled
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                    Run
			startedAt, finishedAt string
		)
		if err := rows.Scan(&r.ID, &startedAt, &finishedAt,
			&r.Succeeded, &r.Failed, &r.Skipped, &r.Cancelled); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Files returns the per-file results of a run, in input order.
func (s *Store) Files(ctx context.Context, runID int64) ([]types.FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, format, status, reason, output, elapsed_ms
		 FROM run_files WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying file results: %w", err)
	}
	defer rows.Close()

	var files []types.FileResult
	for rows.Next() {
		var (
			fr        types.FileResult
			elapsedMS int64
		)
		if err := rows.Scan(&fr.Path, &fr.Format, &fr.Status, &fr.Reason, &fr.Output, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scanning file result: %w", err)
		}
		fr.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		files = append(files, fr)
	}
	return files, rows.Err()
}
