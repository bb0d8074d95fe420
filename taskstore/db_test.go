package taskstore

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aman1195/helium/internal/database"
)

func setupDBTaskStore(t *testing.T) *DBStore {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// Schema is migration-owned in production; create it directly here.
	require.NoError(t, gdb.AutoMigrate(&taskRecord{}))

	db, err := database.FromGorm(gdb, nil)
	require.NoError(t, err)
	return NewDBStore(db, nil)
}

func TestDBStore_SaveAndGet(t *testing.T) {
	store := setupDBTaskStore(t)
	ctx := context.Background()

	task := &Task{
		AgentID:   "zane",
		SessionID: "s1",
		Type:      "a2a_task",
		Input:     map[string]any{"task": "collect market data"},
		Metadata:  map[string]string{"origin": "a2a"},
	}
	require.NoError(t, store.SaveTask(ctx, task))
	require.NotEmpty(t, task.ID)

	loaded, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, loaded.Status)
	assert.Equal(t, "collect market data", loaded.Input["task"])
	assert.Equal(t, "a2a", loaded.Metadata["origin"])

	_, err = store.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDBStore_Lifecycle(t *testing.T) {
	store := setupDBTaskStore(t)
	ctx := context.Background()

	task := &Task{AgentID: "mira"}
	require.NoError(t, store.SaveTask(ctx, task))

	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusRunning, nil, ""))
	loaded, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.StartedAt)

	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusCompleted, map[string]any{"answer": 42.0}, ""))
	loaded, err = store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
	assert.Equal(t, float64(100), loaded.Progress)
	require.NotNil(t, loaded.CompletedAt)

	err = store.UpdateStatus(ctx, task.ID, StatusFailed, nil, "late")
	assert.ErrorIs(t, err, ErrTaskFinished)
}

func TestDBStore_ListAndFilter(t *testing.T) {
	store := setupDBTaskStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	tasks := []*Task{
		{AgentID: "mira", SessionID: "s1", CreatedAt: base.Add(-2 * time.Minute)},
		{AgentID: "chloe", SessionID: "s1", CreatedAt: base.Add(-time.Minute)},
		{AgentID: "mira", SessionID: "s2", CreatedAt: base},
	}
	for _, task := range tasks {
		require.NoError(t, store.SaveTask(ctx, task))
	}

	all, err := store.ListTasks(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, tasks[2].ID, all[0].ID)

	mira, err := store.ListTasks(ctx, Filter{AgentID: "mira"})
	require.NoError(t, err)
	assert.Len(t, mira, 2)

	s1, err := store.ListTasks(ctx, Filter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, s1, 2)

	limited, err := store.ListTasks(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, tasks[1].ID, limited[0].ID)
}

func TestDBStore_Recover(t *testing.T) {
	store := setupDBTaskStore(t)
	ctx := context.Background()

	pending := &Task{AgentID: "a"}
	running := &Task{AgentID: "b"}
	done := &Task{AgentID: "c"}
	for _, task := range []*Task{pending, running, done} {
		require.NoError(t, store.SaveTask(ctx, task))
	}
	require.NoError(t, store.UpdateStatus(ctx, running.ID, StatusRunning, nil, ""))
	require.NoError(t, store.UpdateStatus(ctx, done.ID, StatusCompleted, nil, ""))

	recoverable, err := store.RecoverableTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, recoverable, 2)
	for _, task := range recoverable {
		assert.True(t, task.Status.IsRecoverable())
	}
}

func TestDBStore_CleanupAndStats(t *testing.T) {
	store := setupDBTaskStore(t)
	ctx := context.Background()

	task := &Task{AgentID: "a"}
	keep := &Task{AgentID: "b"}
	require.NoError(t, store.SaveTask(ctx, task))
	require.NoError(t, store.SaveTask(ctx, keep))
	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusFailed, nil, "boom"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[StatusFailed])

	removed, err := store.Cleanup(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// Non-terminal tasks survive cleanup.
	_, err = store.GetTask(ctx, keep.ID)
	assert.NoError(t, err)
}
