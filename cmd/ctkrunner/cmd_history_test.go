package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/ctkrunner/internal/domain/interfaces/repositories"
	"github.com/ochairo/ctkrunner/internal/external-adapters/sqlite"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.StartRun(ctx, repositories.RunRecord{
		RunID: "run-1", Component: "TMFC028", Release: "r1", StartedAt: time.Now(), Status: "running",
	}))
	require.NoError(t, store.RecordOutcome(ctx, repositories.APIOutcome{
		RunID: "run-1", Category: "ExposedAPIs", Identifier: "TMF632", CanonicalName: "TMF632_v4",
		Stage: "run", ExitCode: 1, Status: "failed",
	}))
	require.NoError(t, store.FinishRun(ctx, "run-1", "completed", time.Now()))
	return path
}

func TestHistory_ListRuns(t *testing.T) {
	db := seedHistory(t)

	out, err := execute(t, "history", "--history-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "TMFC028")
	assert.Contains(t, out, "completed")
}

func TestHistory_Outcomes(t *testing.T) {
	db := seedHistory(t)

	out, err := execute(t, "history", "--history-db", db, "--run", "run-1", "--format", "json")
	require.NoError(t, err)

	var outcomes []repositories.APIOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcomes))
	require.Len(t, outcomes, 1)
	assert.Equal(t, "TMF632_v4", outcomes[0].CanonicalName)
	assert.Equal(t, 1, outcomes[0].ExitCode)
}

func TestHistory_RequiresDatabase(t *testing.T) {
	_, err := execute(t, "history")
	require.Error(t, err)
}
