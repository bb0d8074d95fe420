package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
)

func TestInMemoryStore_SaveAndRecent(t *testing.T) {
	store := NewInMemoryStore(InMemoryConfig{}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Save(ctx, &Record{
			AgentID: "mira",
			Kind:    KindTask,
			Content: fmt.Sprintf("task %d", i),
		})
		require.NoError(t, err)
	}

	records, err := store.Recent(ctx, "mira", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.Equal(t, "task 2", records[0].Content)
	assert.Equal(t, "task 0", records[2].Content)

	// IDs and timestamps were filled in.
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestInMemoryStore_RecentLimit(t *testing.T) {
	store := NewInMemoryStore(InMemoryConfig{}, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Save(ctx, &Record{
			AgentID: "zane",
			Content: fmt.Sprintf("delegation %d", i),
		}))
	}

	records, err := store.Recent(ctx, "zane", 5)
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "delegation 9", records[0].Content)
	assert.Equal(t, "delegation 5", records[4].Content)
}

func TestInMemoryStore_Search(t *testing.T) {
	store := NewInMemoryStore(InMemoryConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{AgentID: "chloe", Content: "Valuation of ACME Corp"}))
	require.NoError(t, store.Save(ctx, &Record{AgentID: "chloe", Content: "Market size for widgets"}))
	require.NoError(t, store.Save(ctx, &Record{AgentID: "chloe", Content: "valuation follow-up"}))

	records, err := store.Search(ctx, "chloe", "VALUATION", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "valuation follow-up", records[0].Content)

	// Other agents' memory is not visible.
	records, err = store.Search(ctx, "axel", "valuation", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInMemoryStore_Eviction(t *testing.T) {
	store := NewInMemoryStore(InMemoryConfig{MaxEntries: 3}, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, &Record{
			AgentID: "mira",
			Content: fmt.Sprintf("entry %d", i),
		}))
	}

	records, err := store.Recent(ctx, "mira", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Oldest entries were evicted; the newest is always retained.
	assert.Equal(t, "entry 4", records[0].Content)
	assert.Equal(t, "entry 2", records[2].Content)
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	now := time.Now()
	store := NewInMemoryStore(InMemoryConfig{
		TTL: time.Minute,
		Now: func() time.Time { return now },
	}, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{AgentID: "mira", Content: "ephemeral"}))

	count, err := store.Count(ctx, "mira")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Advance past the TTL.
	now = now.Add(2 * time.Minute)

	records, err := store.Recent(ctx, "mira", 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	count, err = store.Count(ctx, "mira")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInMemoryStore_Clear(t *testing.T) {
	store := NewInMemoryStore(InMemoryConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{AgentID: "axel", Content: "strategy note"}))
	require.NoError(t, store.Clear(ctx, "axel"))

	count, err := store.Count(ctx, "axel")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInMemoryStore_Validation(t *testing.T) {
	store := NewInMemoryStore(InMemoryConfig{}, nil)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, nil))
	assert.Error(t, store.Save(ctx, &Record{Content: "no agent"}))
}

func TestNewStore_Factory(t *testing.T) {
	cfg := config.MemoryConfig{Backend: "memory", MaxEntries: 10}
	store, err := NewStore(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStore{}, store)

	_, err = NewStore(config.MemoryConfig{Backend: "bogus"}, nil)
	assert.Error(t, err)
}
