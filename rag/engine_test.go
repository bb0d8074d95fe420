package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/embedding"
	"github.com/aman1195/helium/internal/cache"
)

func testEngine(t *testing.T, deps EngineDeps) *Engine {
	t.Helper()
	cfg := config.RAGConfig{
		ChunkSize:    200,
		ChunkOverlap: 40,
		MinChunkSize: 20,
		TopK:         5,
		MaxTopK:      10,
	}
	return NewEngine(cfg, embedding.NewLocalProvider(64), deps)
}

func TestEngine_AddAndQuery(t *testing.T) {
	e := testEngine(t, EngineDeps{})
	ctx := context.Background()

	texts := []string{
		"The premium audio market reached $2.1B in annual revenue. Growth is driven by wireless adoption.",
		"Competitive strategy in consumer electronics favors differentiation over cost leadership.",
	}
	added, err := e.AddDocuments(ctx, "research", texts, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	results, err := e.Query(ctx, "research", "premium audio market revenue", 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Document.Content, "audio market")
	assert.Equal(t, "notes.txt", results[0].Document.Metadata["source"])
}

func TestEngine_EmptyInputNoOp(t *testing.T) {
	e := testEngine(t, EngineDeps{})

	added, err := e.AddDocuments(context.Background(), "research", nil, "x")
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Empty(t, e.Collections())
}

func TestEngine_UnknownCollection(t *testing.T) {
	e := testEngine(t, EngineDeps{})
	ctx := context.Background()

	_, err := e.Query(ctx, "nope", "anything", 5, nil)
	assert.ErrorIs(t, err, ErrUnknownCollection)

	assert.ErrorIs(t, e.DeleteCollection(ctx, "nope"), ErrUnknownCollection)
}

func TestEngine_TopKClamped(t *testing.T) {
	e := testEngine(t, EngineDeps{})
	ctx := context.Background()

	var texts []string
	for i := 0; i < 20; i++ {
		texts = append(texts, strings.Repeat("market analysis segment data. ", 3))
	}
	_, err := e.AddDocuments(ctx, "research", texts, "x")
	require.NoError(t, err)

	results, err := e.Query(ctx, "research", "market analysis", 50, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 10)

	// topK 0 uses the configured default.
	results, err = e.Query(ctx, "research", "market analysis", 0, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 5)
}

func TestEngine_DeleteCollectionAndStats(t *testing.T) {
	e := testEngine(t, EngineDeps{})
	ctx := context.Background()

	_, err := e.AddDocuments(ctx, "research", []string{"some market research content here"}, "x")
	require.NoError(t, err)
	_, err = e.AddDocuments(ctx, "web", []string{"fetched page content for analysis"}, "y")
	require.NoError(t, err)

	assert.Equal(t, []string{"research", "web"}, e.Collections())

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["research"].Documents)

	require.NoError(t, e.DeleteCollection(ctx, "web"))
	assert.Equal(t, []string{"research"}, e.Collections())
}

func TestEngine_QueryCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	mgr, err := cache.NewManager(config.CacheConfig{
		Enabled: true,
		Redis:   config.RedisConfig{Addr: mr.Addr()},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	e := testEngine(t, EngineDeps{Cache: mgr})
	ctx := context.Background()

	_, err = e.AddDocuments(ctx, "research", []string{"cached retrieval pipeline content"}, "x")
	require.NoError(t, err)

	first, err := e.Query(ctx, "research", "retrieval pipeline", 3, nil)
	require.NoError(t, err)

	// A second identical query is served from cache with equal results.
	second, err := e.Query(ctx, "research", "retrieval pipeline", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NotEmpty(t, mr.Keys())
}
