package taskstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{}, nil)
	ctx := context.Background()

	task := &Task{
		AgentID: "zane",
		Type:    "a2a_task",
		Input:   map[string]any{"task": "analyze data"},
	}
	require.NoError(t, store.SaveTask(ctx, task))

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, StatusPending, task.Status)
	assert.False(t, task.CreatedAt.IsZero())

	loaded, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, loaded.ID)
	assert.Equal(t, "analyze data", loaded.Input["task"])
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{}, nil)

	_, err := store.GetTask(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{}, nil)
	ctx := context.Background()

	task := &Task{AgentID: "mira", Type: "a2a_task"}
	require.NoError(t, store.SaveTask(ctx, task))

	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusRunning, nil, ""))
	loaded, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, loaded.Status)
	require.NotNil(t, loaded.StartedAt)

	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusCompleted, map[string]any{"ok": true}, ""))
	loaded, err = store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
	assert.Equal(t, float64(100), loaded.Progress)
	require.NotNil(t, loaded.CompletedAt)

	// Terminal tasks reject further transitions.
	err = store.UpdateStatus(ctx, task.ID, StatusCancelled, nil, "")
	assert.ErrorIs(t, err, ErrTaskFinished)
}

func TestMemoryStore_FailureRecordsError(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{}, nil)
	ctx := context.Background()

	task := &Task{AgentID: "chloe"}
	require.NoError(t, store.SaveTask(ctx, task))
	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusFailed, nil, "boom"))

	loaded, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, loaded.Status)
	assert.Equal(t, "boom", loaded.Error)
}

func TestMemoryStore_ListTasks(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore(MemoryConfig{Now: func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}}, nil)
	ctx := context.Background()

	t1 := &Task{AgentID: "mira", SessionID: "s1"}
	t2 := &Task{AgentID: "chloe", SessionID: "s1"}
	t3 := &Task{AgentID: "mira", SessionID: "s2"}
	for _, task := range []*Task{t1, t2, t3} {
		require.NoError(t, store.SaveTask(ctx, task))
	}
	require.NoError(t, store.UpdateStatus(ctx, t1.ID, StatusCompleted, nil, ""))

	bySession, err := store.ListTasks(ctx, Filter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, bySession, 2)

	byAgent, err := store.ListTasks(ctx, Filter{AgentID: "mira"})
	require.NoError(t, err)
	assert.Len(t, byAgent, 2)

	byStatus, err := store.ListTasks(ctx, Filter{Status: []Status{StatusCompleted}})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, t1.ID, byStatus[0].ID)

	limited, err := store.ListTasks(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemoryStore_RecoverableTasks(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{}, nil)
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

func TestMemoryStore_Cleanup(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore(MemoryConfig{Now: func() time.Time { return now }}, nil)
	ctx := context.Background()

	old := &Task{AgentID: "a"}
	fresh := &Task{AgentID: "b"}
	live := &Task{AgentID: "c"}
	for _, task := range []*Task{old, fresh, live} {
		require.NoError(t, store.SaveTask(ctx, task))
	}
	require.NoError(t, store.UpdateStatus(ctx, old.ID, StatusCompleted, nil, ""))

	// Let the completed task age past retention, then complete another.
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.UpdateStatus(ctx, fresh.ID, StatusFailed, nil, "x"))

	removed, err := store.Cleanup(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// Only the old terminal task is gone.
	_, err = store.GetTask(ctx, old.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = store.GetTask(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = store.GetTask(ctx, live.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_Stats(t *testing.T) {
	store := NewMemoryStore(MemoryConfig{}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveTask(ctx, &Task{AgentID: "a"}))
	}
	task := &Task{AgentID: "b"}
	require.NoError(t, store.SaveTask(ctx, task))
	require.NoError(t, store.UpdateStatus(ctx, task.ID, StatusCompleted, nil, ""))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.ByStatus[StatusPending])
	assert.Equal(t, 1, stats.ByStatus[StatusCompleted])
}

func TestNew_Factory(t *testing.T) {
	store, err := New(config.StoreConfig{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = New(config.StoreConfig{Backend: "bogus"}, nil)
	assert.Error(t, err)
}

func TestStatus_Predicates(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())

	assert.True(t, StatusPending.IsRecoverable())
	assert.True(t, StatusRunning.IsRecoverable())
	assert.False(t, StatusCompleted.IsRecoverable())

	assert.False(t, Status("bogus").Valid())
}
