package repositories

import (
	"context"
	"time"
)

// RunRecord is one orchestrator run in the history ledger
type RunRecord struct {
	RunID      string
	Component  string
	Release    string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string // "running", "completed", "aborted"
}

// APIOutcome is the recorded outcome of one API within a run
type APIOutcome struct {
	RunID         string
	Category      string
	Identifier    string
	CanonicalName string
	Stage         string // last stage reached: resolve, fetch, normalize, run
	ExitCode      int
	Status        string // "passed", "failed", "skipped", "error"
	Message       string
}

// HistoryRepository persists run outcomes across runs
type HistoryRepository interface {
	StartRun(ctx context.Context, run RunRecord) error
	FinishRun(ctx context.Context, runID, status string, finishedAt time.Time) error
	RecordOutcome(ctx context.Context, outcome APIOutcome) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	ListOutcomes(ctx context.Context, runID string) ([]APIOutcome, error)
}
