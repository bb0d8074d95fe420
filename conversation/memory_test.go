package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/types"
)

func TestMemoryStore_AppendAndHistory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", types.NewUserMessage("what is the market size?")))
	require.NoError(t, store.Append(ctx, "s1", types.NewAssistantMessage("chloe", "around $2.1B")))

	history, err := store.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, types.RoleUser, history[0].Role)
	assert.Equal(t, types.RoleAssistant, history[1].Role)
	assert.Equal(t, "chloe", history[1].AgentID)
}

func TestMemoryStore_RequiresSessionID(t *testing.T) {
	store := NewMemoryStore()
	err := store.Append(context.Background(), "", types.NewUserMessage("hi"))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestMemoryStore_RingEviction(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < DefaultRingSize+10; i++ {
		msg := types.NewUserMessage(fmt.Sprintf("turn %d", i))
		require.NoError(t, store.Append(ctx, "s1", msg))
	}

	history, err := store.History(ctx, "s1", DefaultRingSize)
	require.NoError(t, err)
	require.Len(t, history, DefaultRingSize)
	// Oldest 10 turns were dropped.
	assert.Equal(t, "turn 10", history[0].Content)
	assert.Equal(t, fmt.Sprintf("turn %d", DefaultRingSize+9), history[len(history)-1].Content)
}

func TestMemoryStore_HistoryLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		require.NoError(t, store.Append(ctx, "s1", types.NewUserMessage(fmt.Sprintf("turn %d", i))))
	}

	// Default limit returns the newest 20 in order.
	history, err := store.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, DefaultHistoryLimit)
	assert.Equal(t, "turn 10", history[0].Content)
	assert.Equal(t, "turn 29", history[len(history)-1].Content)

	history, err = store.History(ctx, "s1", 5)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, "turn 25", history[0].Content)
}

func TestMemoryStore_SessionsAndClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s2", types.NewUserMessage("hi")))
	require.NoError(t, store.Append(ctx, "s1", types.NewUserMessage("hello")))

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, sessions)

	require.NoError(t, store.Clear(ctx, "s1"))
	history, err := store.History(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	sessions, err = store.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, sessions)
}

func TestNew_Backends(t *testing.T) {
	store, err := New(config.StoreConfig{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = New(config.StoreConfig{Backend: "cassandra"}, nil)
	assert.Error(t, err)
}
