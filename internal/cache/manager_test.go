package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
)

func setupManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	m, err := NewManager(config.CacheConfig{
		Enabled:    true,
		DefaultTTL: time.Minute,
		Redis: config.RedisConfig{
			Addr:      mr.Addr(),
			KeyPrefix: "test:",
		},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, mr
}

func TestManager_GetSet(t *testing.T) {
	m, mr := setupManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "greeting", "hello", 0))

	val, err := m.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", val)

	// Keys are stored under the configured prefix.
	assert.True(t, mr.Exists("test:greeting"))
}

func TestManager_Miss(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.True(t, IsCacheMiss(err))
}

func TestManager_JSON(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	type payload struct {
		Query string `json:"query"`
		Hits  int    `json:"hits"`
	}
	in := payload{Query: "market size", Hits: 7}
	require.NoError(t, m.SetJSON(ctx, "result", in, 0))

	var out payload
	require.NoError(t, m.GetJSON(ctx, "result", &out))
	assert.Equal(t, in, out)

	var missing payload
	assert.ErrorIs(t, m.GetJSON(ctx, "absent", &missing), ErrCacheMiss)
}

func TestManager_TTL(t *testing.T) {
	m, mr := setupManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "fleeting", "v", 30*time.Second))

	mr.FastForward(time.Minute)

	_, err := m.Get(ctx, "fleeting")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestManager_DeleteAndExists(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1", 0))
	require.NoError(t, m.Set(ctx, "b", "2", 0))

	n, err := m.Exists(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, m.Delete(ctx, "a", "b"))
	n, err = m.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestManager_ClosedRejectsOperations(t *testing.T) {
	m, _ := setupManager(t)
	require.NoError(t, m.Close())

	_, err := m.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.Error(t, m.Set(context.Background(), "x", "y", 0))
}

func TestNewManager_ConnectFailure(t *testing.T) {
	_, err := NewManager(config.CacheConfig{
		Redis: config.RedisConfig{Addr: "127.0.0.1:1"},
	}, nil)
	assert.Error(t, err)
}
