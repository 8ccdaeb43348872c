package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/ctkrunner/internal/domain/interfaces/repositories"
)

func openTestStore(t *testing.T) (*HistoryStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpen_CreatesDatabase(t *testing.T) {
	_, path := openTestStore(t)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestHistoryStore_RunLifecycle(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.StartRun(ctx, repositories.RunRecord{
		RunID: "run-1", Component: "TMFC999", Release: "r1", StartedAt: started, Status: "running",
	}))
	require.NoError(t, s.RecordOutcome(ctx, repositories.APIOutcome{
		RunID: "run-1", Category: "ExposedAPIs", Identifier: "BILLING", CanonicalName: "billing_v4",
		Stage: "run", ExitCode: 0, Status: "passed",
	}))
	require.NoError(t, s.RecordOutcome(ctx, repositories.APIOutcome{
		RunID: "run-1", Category: "DependentAPIs", Identifier: "TMF632",
		Stage: "resolve", Status: "skipped", Message: "no matching artifact",
	}))
	require.NoError(t, s.FinishRun(ctx, "run-1", "completed", started.Add(time.Minute)))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.True(t, runs[0].StartedAt.Equal(started))
	assert.True(t, runs[0].FinishedAt.Equal(started.Add(time.Minute)))

	outcomes, err := s.ListOutcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "BILLING", outcomes[0].Identifier)
	assert.Equal(t, "skipped", outcomes[1].Status)
}

func TestHistoryStore_ListRunsNewestFirst(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.StartRun(ctx, repositories.RunRecord{
			RunID: id, Component: "X", StartedAt: base.Add(time.Duration(i) * time.Hour), Status: "running",
		}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)
	assert.True(t, runs[0].FinishedAt.IsZero())
}

func TestHistoryStore_FinishUnknownRun(t *testing.T) {
	s, _ := openTestStore(t)

	err := s.FinishRun(context.Background(), "missing", "completed", time.Now())
	assert.Error(t, err)
}

func TestHistoryStore_OutcomeRequiresRun(t *testing.T) {
	s, _ := openTestStore(t)

	err := s.RecordOutcome(context.Background(), repositories.APIOutcome{
		RunID: "ghost", Category: "ExposedAPIs", Identifier: "X", Stage: "run", Status: "passed",
	})
	assert.Error(t, err)
}

var _ repositories.HistoryRepository = (*HistoryStore)(nil)
