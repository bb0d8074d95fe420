package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/embedding"
	"github.com/aman1195/helium/internal/cache"
	"github.com/aman1195/helium/internal/metrics"
	"github.com/aman1195/helium/types"
)

// tracer instruments retrieval queries.
var tracer = otel.Tracer("helium/rag")

// ErrUnknownCollection is returned for operations on a collection that
// has never received documents.
var ErrUnknownCollection = types.NewError(types.ErrNotFound, "unknown collection")

// CollectionStats summarizes one collection.
type CollectionStats struct {
	Documents int `json:"documents"`
}

// EngineDeps carries the optional collaborators of an Engine.
type EngineDeps struct {
	Cache   *cache.Manager
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Engine groups vector stores into named collections and runs the
// chunk-embed-store pipeline over them.
type Engine struct {
	cfg      config.RAGConfig
	chunker  *Chunker
	embedder embedding.Provider
	cache    *cache.Manager
	metrics  *metrics.Collector
	logger   *zap.Logger

	mu     sync.RWMutex
	stores map[string]VectorStore
}

// NewEngine creates a retrieval engine.
func NewEngine(cfg config.RAGConfig, embedder embedding.Provider, deps EngineDeps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		chunker:  NewChunker(cfg, NewTokenizer(cfg.TokenizerModel, logger)),
		embedder: embedder,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		logger:   logger.With(zap.String("component", "rag_engine")),
		stores:   make(map[string]VectorStore),
	}
}

// storeFor returns the collection's store, creating it when create is
// set.
func (e *Engine) storeFor(collection string, create bool) (VectorStore, error) {
	e.mu.RLock()
	store, ok := e.stores[collection]
	e.mu.RUnlock()
	if ok {
		return store, nil
	}
	if !create {
		return nil, ErrUnknownCollection
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if store, ok := e.stores[collection]; ok {
		return store, nil
	}
	store, err := NewVectorStore(e.cfg, collection, e.logger)
	if err != nil {
		return nil, err
	}
	e.stores[collection] = store
	return store, nil
}

// AddDocuments chunks, embeds, and stores the texts. Returns the
// number of chunks added. Empty input is a no-op.
func (e *Engine) AddDocuments(ctx context.Context, collection string, texts []string, source string) (int, error) {
	var docs []Document
	for _, text := range texts {
		docs = append(docs, e.chunker.Chunk(text, source)...)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, contents)
	if err != nil {
		return 0, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(docs))
	}
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}

	store, err := e.storeFor(collection, true)
	if err != nil {
		return 0, err
	}
	if err := store.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to store documents: %w", err)
	}

	if e.metrics != nil {
		e.metrics.RecordRAGDocuments(collection, len(docs))
	}
	e.logger.Info("indexed documents",
		zap.String("collection", collection),
		zap.String("source", source),
		zap.Int("chunks", len(docs)))
	return len(docs), nil
}

// Query embeds the query and searches the collection. topK is clamped
// to [1, MaxTopK]; results may be served from the shared cache.
func (e *Engine) Query(ctx context.Context, collection, query string, topK int, filter map[string]string) ([]SearchResult, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "rag.query",
		trace.WithAttributes(
			attribute.String("rag.collection", collection),
			attribute.Int("rag.top_k", topK),
		))
	defer span.End()

	store, err := e.storeFor(collection, false)
	if err != nil {
		return nil, err
	}

	topK = e.clampTopK(topK)

	cacheKey := queryCacheKey(collection, query, topK)
	if e.cache != nil && len(filter) == 0 {
		var cached []SearchResult
		if err := e.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			e.record(collection, "cached", start)
			return cached, nil
		}
	}

	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		e.record(collection, "error", start)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := store.Search(ctx, vector, topK, filter)
	if err != nil {
		e.record(collection, "error", start)
		return nil, err
	}

	if e.cache != nil && len(filter) == 0 {
		_ = e.cache.SetJSON(ctx, cacheKey, results, e.cfg.CacheTTL)
	}
	e.record(collection, "success", start)
	return results, nil
}

// DeleteCollection drops a collection and its documents.
func (e *Engine) DeleteCollection(ctx context.Context, collection string) error {
	e.mu.Lock()
	store, ok := e.stores[collection]
	delete(e.stores, collection)
	e.mu.Unlock()
	if !ok {
		return ErrUnknownCollection
	}

	if clearable, ok := store.(Clearable); ok {
		return clearable.Clear(ctx)
	}
	return nil
}

// Collections lists known collection names, sorted.
func (e *Engine) Collections() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.stores))
	for name := range e.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns per-collection document counts.
func (e *Engine) Stats(ctx context.Context) (map[string]CollectionStats, error) {
	e.mu.RLock()
	stores := make(map[string]VectorStore, len(e.stores))
	for name, store := range e.stores {
		stores[name] = store
	}
	e.mu.RUnlock()

	out := make(map[string]CollectionStats, len(stores))
	for name, store := range stores {
		n, err := store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count collection %q: %w", name, err)
		}
		out[name] = CollectionStats{Documents: n}
	}
	return out, nil
}

func (e *Engine) clampTopK(topK int) int {
	maxTopK := e.cfg.MaxTopK
	if maxTopK <= 0 {
		maxTopK = 10
	}
	if topK <= 0 {
		topK = e.cfg.TopK
	}
	if topK <= 0 {
		topK = 5
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	return topK
}

func (e *Engine) record(collection, status string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordRAGQuery(collection, status, time.Since(start))
	}
}

// queryCacheKey hashes the query parameters into a stable cache key.
func queryCacheKey(collection, query string, topK int) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%s|%d", collection, query, topK)
	return fmt.Sprintf("rag:query:%x", h.Sum64())
}
