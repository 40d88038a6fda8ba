package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wesm/htb-notion-sync/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, database.Initialize())
	return database
}

func TestInitialize_Idempotent(t *testing.T) {
	database := openTestDB(t)
	assert.NoError(t, database.Initialize())
}

func TestGetLastRun_Empty(t *testing.T) {
	database := openTestDB(t)

	run, err := database.GetLastRun()
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestRunLifecycle(t *testing.T) {
	database := openTestDB(t)
	started := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	runID, err := database.StartRun(started)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	running, err := database.GetLastRun()
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, StatusRunning, running.Status)
	assert.True(t, running.FinishedAt.IsZero())

	create := models.Action{Kind: models.ActionCreate, Machine: models.Machine{ID: 42, Name: "Lame"}, PageID: "page-new"}
	update := models.Action{Kind: models.ActionUpdate, Machine: models.Machine{ID: 1, Name: "Old"}, PageID: "page-1"}
	require.NoError(t, database.RecordAction(runID, create, started.Add(time.Second)))
	require.NoError(t, database.RecordAction(runID, update, started.Add(2*time.Second)))

	err = database.FinishRun(models.RunSummary{
		ID:         runID,
		Status:     StatusSucceeded,
		FinishedAt: started.Add(time.Minute),
		Fetched:    10,
		Created:    1,
		Updated:    1,
		Unchanged:  8,
	})
	require.NoError(t, err)

	run, err := database.GetLastRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, StatusSucceeded, run.Status)
	assert.True(t, run.StartedAt.Equal(started))
	assert.True(t, run.FinishedAt.Equal(started.Add(time.Minute)))
	assert.Equal(t, 10, run.Fetched)
	assert.Equal(t, 8, run.Unchanged)
	assert.Empty(t, run.Error)

	actions, err := database.GetRunActions(runID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, models.ActionCreate, actions[0].Kind)
	assert.Equal(t, int64(42), actions[0].Machine.ID)
	assert.Equal(t, "page-new", actions[0].PageID)
	assert.Equal(t, models.ActionUpdate, actions[1].Kind)
}

func TestFinishRun_Failed(t *testing.T) {
	database := openTestDB(t)
	started := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	runID, err := database.StartRun(started)
	require.NoError(t, err)

	require.NoError(t, database.FinishRun(models.RunSummary{
		ID:         runID,
		Status:     StatusFailed,
		FinishedAt: started.Add(time.Second),
		Error:      "notion API: 401",
	}))

	run, err := database.GetLastRun()
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "notion API: 401", run.Error)
}

func TestFinishRun_UnknownRun(t *testing.T) {
	database := openTestDB(t)

	err := database.FinishRun(models.RunSummary{ID: "missing", Status: StatusSucceeded, FinishedAt: time.Now()})
	assert.Error(t, err)
}

func TestGetLastRun_MostRecent(t *testing.T) {
	database := openTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := database.StartRun(base)
	require.NoError(t, err)
	latest, err := database.StartRun(base.Add(time.Hour))
	require.NoError(t, err)

	run, err := database.GetLastRun()
	require.NoError(t, err)
	assert.Equal(t, latest, run.ID)
}
