// Package sqlite provides SQLite database storage for buildsweep.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inovacc/buildsweep/internal/model"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't handle multiple writers well
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	// Run migrations
	migrator := NewMigrator(db)
	if err := migrator.MigrateUp(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks if the database is accessible.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func newContext() context.Context {
	return context.Background()
}

// SaveRun persists a finished run and its decisions in one transaction.
// The generated run ID is written back into run.ID.
func (s *Store) SaveRun(run *model.Run, decisions []model.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := newContext()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO sweep_runs (
			started_at, finished_at, workspace, window_seconds, pattern,
			dry_run, scheduled, removed, skipped, failed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Workspace,
		int64(run.Window.Seconds()),
		run.Pattern,
		boolToInt(run.DryRun),
		run.Scheduled,
		run.Removed,
		run.Skipped,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting run id: %w", err)
	}

	for i := range decisions {
		d := &decisions[i]

		if _, err = tx.ExecContext(ctx, `
			INSERT INTO sweep_decisions (run_id, repo, action, reason, success, error)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, d.Repo, d.Action, d.Reason, boolToInt(d.Success), d.Error); err != nil {
			return fmt.Errorf("inserting decision for %s: %w", d.Repo, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	run.ID = runID

	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(newContext(), `
		SELECT id, started_at, finished_at, workspace, window_seconds, pattern,
		       dry_run, scheduled, removed, skipped, failed
		FROM sweep_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run

	for rows.Next() {
		var run model.Run

		var started, finished string

		var windowSecs, dryRun int64

		if err := rows.Scan(&run.ID, &started, &finished, &run.Workspace,
			&windowSecs, &run.Pattern, &dryRun,
			&run.Scheduled, &run.Removed, &run.Skipped, &run.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		run.Window = time.Duration(windowSecs) * time.Second
		run.DryRun = dryRun == 1

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// DecisionsForRun returns all decisions recorded for a run.
func (s *Store) DecisionsForRun(runID int64) ([]model.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(newContext(), `
		SELECT id, run_id, repo, action, reason, success, error
		FROM sweep_decisions
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []model.DecisionRecord

	for rows.Next() {
		var d model.DecisionRecord

		var success int64

		if err := rows.Scan(&d.ID, &d.RunID, &d.Repo, &d.Action, &d.Reason,
			&success, &d.Error); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}

		d.Success = success == 1

		decisions = append(decisions, d)
	}

	return decisions, rows.Err()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}

	return 0
}
