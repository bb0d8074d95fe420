package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
)

func setupRedisStore(t *testing.T, maxEntries int) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(config.MemoryConfig{
		Backend:    "redis",
		MaxEntries: maxEntries,
		Redis: config.RedisConfig{
			Addr:      mr.Addr(),
			KeyPrefix: "test:",
		},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return mr, store
}

func TestRedisStore_SaveAndRecent(t *testing.T) {
	_, store := setupRedisStore(t, 0)
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
	assert.Equal(t, "task 2", records[0].Content)
	assert.Equal(t, "task 0", records[2].Content)
}

func TestRedisStore_Trim(t *testing.T) {
	_, store := setupRedisStore(t, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, &Record{
			AgentID: "zane",
			Content: fmt.Sprintf("delegation %d", i),
		}))
	}

	count, err := store.Count(ctx, "zane")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := store.Recent(ctx, "zane", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "delegation 4", records[0].Content)
}

func TestRedisStore_Search(t *testing.T) {
	_, store := setupRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{AgentID: "chloe", Content: "Valuation of ACME"}))
	require.NoError(t, store.Save(ctx, &Record{AgentID: "chloe", Content: "Forecast for 2030"}))

	records, err := store.Search(ctx, "chloe", "valuation", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Valuation of ACME", records[0].Content)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(config.MemoryConfig{
		Backend: "redis",
		TTL:     time.Minute,
		Redis: config.RedisConfig{
			Addr:      mr.Addr(),
			KeyPrefix: "test:",
		},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Record{AgentID: "mira", Content: "ephemeral"}))

	mr.FastForward(2 * time.Minute)

	records, err := store.Recent(ctx, "mira", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRedisStore_Clear(t *testing.T) {
	_, store := setupRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{AgentID: "axel", Content: "note"}))
	require.NoError(t, store.Clear(ctx, "axel"))

	count, err := store.Count(ctx, "axel")
	require.NoError(t, err)
	assert.Zero(t, count)
}
