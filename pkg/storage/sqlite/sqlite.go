package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rexliu/mcprobe/pkg/probe"
)

// Store owns the run-history database for a profile.
type Store struct {
	db   *sql.DB
	path string
}

// Path returns the underlying SQLite file path.
func (s *Store) Path() string {
	return s.path
}

// Open initializes a SQLite database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Init ensures pragmas and schema are configured.
func (s *Store) Init(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("nil store")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = DELETE;",
		"PRAGMA synchronous = FULL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmas {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return s.applySchema(ctx)
}

func (s *Store) applySchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES ('schemaVersion','1');`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			command TEXT NOT NULL,
			passed INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			step TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Run summarizes one recorded smoke run.
type Run struct {
	ID        string
	StartedAt int64
	Command   string
	Passed    bool
	Steps     []probe.StepResult
}

// RecordRun stores a report and its step outcomes atomically.
func (s *Store) RecordRun(ctx context.Context, report probe.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	passed := 0
	if report.Passed() {
		passed = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, started_at, command, passed) VALUES(?,?,?,?)`,
		report.RunID, report.Started.UnixMilli(), strings.Join(report.Command, " "), passed); err != nil {
		tx.Rollback()
		return err
	}
	for seq, step := range report.Steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO steps(run_id, seq, step, status, detail) VALUES(?,?,?,?,?)`,
			report.RunID, seq, string(step.Step), string(step.Status), step.Detail); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, command, passed
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?;
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var passed int
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.Command, &passed); err != nil {
			return nil, err
		}
		run.Passed = passed != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		steps, err := s.loadSteps(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Steps = steps
	}
	return runs, nil
}

func (s *Store) loadSteps(ctx context.Context, runID string) ([]probe.StepResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, status, detail
		FROM steps
		WHERE run_id = ?
		ORDER BY seq;
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []probe.StepResult
	for rows.Next() {
		var step, status, detail string
		if err := rows.Scan(&step, &status, &detail); err != nil {
			return nil, err
		}
		steps = append(steps, probe.StepResult{
			Step:   probe.Step(step),
			Status: probe.Status(status),
			Detail: detail,
		})
	}
	return steps, rows.Err()
}
