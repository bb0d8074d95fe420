package taskstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
)

func setupRedisTaskStore(t *testing.T) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(config.StoreConfig{
		Backend: "redis",
		Redis: config.RedisConfig{
			Addr:      mr.Addr(),
			KeyPrefix: "test:",
		},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	store := setupRedisTaskStore(t)
	ctx := context.Background()

	task := &Task{
		AgentID:   "zane",
		SessionID: "s1",
		Type:      "a2a_task",
		Input:     map[string]any{"task": "analyze data"},
		Metadata:  map[string]string{"origin": "a2a"},
	}
	require.NoError(t, store.SaveTask(ctx, task))

	loaded, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, loaded.Status)
	assert.Equal(t, "analyze data", loaded.Input["task"])
	assert.Equal(t, "a2a", loaded.Metadata["origin"])
}

func TestRedisStore_Lifecycle(t *testing.T) {
	store := setupRedisTaskStore(t)
	ctx := context.Background()

	task := &Task{AgentID: "mira"}
	require.NoError(t, store.SaveTask(ctx, task))

	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusRunning, nil, ""))
	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusCompleted, "all done", ""))

	loaded, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
	assert.Equal(t, "all done", loaded.Result)

	err = store.UpdateStatus(ctx, task.ID, StatusFailed, nil, "late")
	assert.ErrorIs(t, err, ErrTaskFinished)
}

func TestRedisStore_StatusIndexMoves(t *testing.T) {
	store := setupRedisTaskStore(t)
	ctx := context.Background()

	task := &Task{AgentID: "axel"}
	require.NoError(t, store.SaveTask(ctx, task))
	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusRunning, nil, ""))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[StatusRunning])
	assert.Zero(t, stats.ByStatus[StatusPending])
}

func TestRedisStore_ListAndFilter(t *testing.T) {
	store := setupRedisTaskStore(t)
	ctx := context.Background()

	t1 := &Task{AgentID: "mira", SessionID: "s1", CreatedAt: time.Now().Add(-2 * time.Minute)}
	t2 := &Task{AgentID: "chloe", SessionID: "s1", CreatedAt: time.Now().Add(-time.Minute)}
	t3 := &Task{AgentID: "mira", SessionID: "s2", CreatedAt: time.Now()}
	for _, task := range []*Task{t1, t2, t3} {
		require.NoError(t, store.SaveTask(ctx, task))
	}

	all, err := store.ListTasks(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, t3.ID, all[0].ID)

	mira, err := store.ListTasks(ctx, Filter{AgentID: "mira"})
	require.NoError(t, err)
	assert.Len(t, mira, 2)
}

func TestRedisStore_Recover(t *testing.T) {
	store := setupRedisTaskStore(t)
	ctx := context.Background()

	pending := &Task{AgentID: "a"}
	done := &Task{AgentID: "b"}
	for _, task := range []*Task{pending, done} {
		require.NoError(t, store.SaveTask(ctx, task))
	}
	require.NoError(t, store.UpdateStatus(ctx, done.ID, StatusCompleted, nil, ""))

	recoverable, err := store.RecoverableTasks(ctx)
	require.NoError(t, err)
	require.Len(t, recoverable, 1)
	assert.Equal(t, pending.ID, recoverable[0].ID)
}

func TestRedisStore_Cleanup(t *testing.T) {
	store := setupRedisTaskStore(t)
	ctx := context.Background()

	task := &Task{AgentID: "a"}
	require.NoError(t, store.SaveTask(ctx, task))
	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusCancelled, nil, ""))

	// Nothing old enough yet.
	removed, err := store.Cleanup(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Everything terminal is older than zero retention.
	removed, err = store.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	store := setupRedisTaskStore(t)
	ctx := context.Background()

	task := &Task{AgentID: "a"}
	require.NoError(t, store.SaveTask(ctx, task))
	require.NoError(t, store.DeleteTask(ctx, task.ID))

	assert.ErrorIs(t, store.DeleteTask(ctx, task.ID), ErrTaskNotFound)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}
