// Package sqlite persists the CTK run history in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ochairo/ctkrunner/internal/domain/interfaces/repositories"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// HistoryStore implements repositories.HistoryRepository
type HistoryStore struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
// Safe to call repeatedly on the same file.
func Open(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		//nolint:errcheck // best-effort close on failed open
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			//nolint:errcheck // best-effort close on failed open
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		//nolint:errcheck // best-effort close on failed open
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		//nolint:errcheck // best-effort close on failed open
		db.Close()
		return nil, fmt.Errorf("failed to set schema version: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Close closes the database connection
func (s *HistoryStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun records the beginning of a run
func (s *HistoryStore) StartRun(ctx context.Context, run repositories.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, component, release, started_at, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, run.RunID, run.Component, run.Release, formatTime(run.StartedAt), run.Status)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun stamps the final status of a run
func (s *HistoryStore) FinishRun(ctx context.Context, runID, status string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE run_id = ?`,
		status, formatTime(finishedAt), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// RecordOutcome appends the outcome of one API
func (s *HistoryStore) RecordOutcome(ctx context.Context, o repositories.APIOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_outcomes
		(run_id, category, identifier, canonical_name, stage, exit_code, status, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, o.RunID, o.Category, o.Identifier, o.CanonicalName, o.Stage, o.ExitCode, o.Status, o.Message)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first; limit <= 0 means all
func (s *HistoryStore) ListRuns(ctx context.Context, limit int) ([]repositories.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, component, release, started_at, COALESCE(finished_at, ''), status
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	//nolint:errcheck // rows.Err is checked below
	defer rows.Close()

	var runs []repositories.RunRecord
	for rows.Next() {
		var r repositories.RunRecord
		var started, finished string
		if err := rows.Scan(&r.RunID, &r.Component, &r.Release, &started, &finished, &r.Status); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ListOutcomes returns the outcomes of a run in the order they were recorded
func (s *HistoryStore) ListOutcomes(ctx context.Context, runID string) ([]repositories.APIOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, category, identifier, canonical_name, stage, exit_code, status, message
		FROM api_outcomes
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	//nolint:errcheck // rows.Err is checked below
	defer rows.Close()

	var out []repositories.APIOutcome
	for rows.Next() {
		var o repositories.APIOutcome
		if err := rows.Scan(&o.RunID, &o.Category, &o.Identifier, &o.CanonicalName, &o.Stage, &o.ExitCode, &o.Status, &o.Message); err != nil {
			return nil, fmt.Errorf("list outcomes: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
