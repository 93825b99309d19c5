// Package results provides a SQLite store recording the outcome of
// estimation runs: run metadata and the final per-effect parameter
// estimates. It is an optional sink the driver writes once per run.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	task            INTEGER NOT NULL,
	started_at      TEXT    NOT NULL,
	finished_at     TEXT    NOT NULL,
	batch_size      INTEGER NOT NULL,
	acceptance_rate REAL    NOT NULL
);
CREATE TABLE IF NOT EXISTS estimates (
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	effect TEXT    NOT NULL,
	theta  REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_estimates_run ON estimates(run_id);
`

// Run is one recorded estimation run.
type Run struct {
	ID             int64
	Task           int
	StartedAt      time.Time
	FinishedAt     time.Time
	BatchSize      int
	AcceptanceRate float64
}

// Estimate is one final per-effect parameter value.
type Estimate struct {
	Effect string
	Theta  float64
}

// Store records runs and estimates in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing results schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// RecordRun inserts a run and its final estimates in one transaction and
// returns the run id.
func (s *Store) RecordRun(ctx context.Context, run Run, estimates []Estimate) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (task, started_at, finished_at, batch_size, acceptance_rate)
		 VALUES (?, ?, ?, ?, ?)`,
		run.Task,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.BatchSize,
		run.AcceptanceRate,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, e := range estimates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO estimates (run_id, effect, theta) VALUES (?, ?, ?)`,
			id, e.Effect, e.Theta,
		); err != nil {
			return 0, fmt.Errorf("inserting estimate for %s: %w", e.Effect, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ListRuns returns all recorded runs, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task, started_at, finished_at, batch_size, acceptance_rate
		 FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Task, &started, &finished, &r.BatchSize, &r.AcceptanceRate); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing run start time: %w", err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing run finish time: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunEstimates returns the estimates recorded for a run, in insertion
// (parameter vector) order.
func (s *Store) RunEstimates(ctx context.Context, runID int64) ([]Estimate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT effect, theta FROM estimates WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying estimates: %w", err)
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		var e Estimate
		if err := rows.Scan(&e.Effect, &e.Theta); err != nil {
			return nil, fmt.Errorf("scanning estimate: %w", err)
		}
		estimates = append(estimates, e)
	}
	return estimates, rows.Err()
}
