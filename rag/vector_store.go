package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
)

// SearchResult pairs a document with its cosine similarity to the
// query. Score falls in [-1, 1]; Distance is 1 - Score.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
	Distance float64  `json:"distance"`
}

// VectorStore stores embedded documents and serves similarity search.
type VectorStore interface {
	// Add upserts documents. Every document must carry an embedding.
	Add(ctx context.Context, docs []Document) error

	// Search returns the topK most similar documents, best first.
	// A non-empty filter keeps only documents whose metadata matches
	// every entry.
	Search(ctx context.Context, query []float64, topK int, filter map[string]string) ([]SearchResult, error)

	// Delete removes documents by ID.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}

// Clearable is implemented by stores that can drop all content.
type Clearable interface {
	Clear(ctx context.Context) error
}

// Lister is implemented by stores that can enumerate documents.
type Lister interface {
	List(ctx context.Context, limit, offset int) ([]Document, error)
}

// NewVectorStore creates a vector store for one collection.
func NewVectorStore(cfg config.RAGConfig, collection string, logger *zap.Logger) (VectorStore, error) {
	switch cfg.VectorBackend {
	case "", "memory":
		return NewInMemoryStore(), nil
	case "qdrant":
		return NewQdrantStore(cfg.Qdrant, collection, logger), nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %q", cfg.VectorBackend)
	}
}

// InMemoryStore is a brute-force cosine similarity store.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[string]Document)}
}

// Add implements VectorStore.
func (s *InMemoryStore) Add(_ context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document %d has no id", i)
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %q has no embedding", doc.ID)
		}
		s.docs[doc.ID] = doc
	}
	return nil
}

// Search implements VectorStore.
func (s *InMemoryStore) Search(_ context.Context, query []float64, topK int, filter map[string]string) ([]SearchResult, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query embedding is required")
	}
	if topK <= 0 {
		return []SearchResult{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		if !metadataMatches(doc.Metadata, filter) {
			continue
		}
		score, err := cosineSimilarity(query, doc.Embedding)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			Document: doc,
			Score:    score,
			Distance: 1 - score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Delete implements VectorStore.
func (s *InMemoryStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

// Count implements VectorStore.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Clear implements Clearable.
func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]Document)
	return nil
}

// List implements Lister, ordered by document ID for stable paging.
func (s *InMemoryStore) List(_ context.Context, limit, offset int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return []Document{}, nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]Document, len(ids))
	for i, id := range ids {
		out[i] = s.docs[id]
	}
	return out, nil
}

// metadataMatches reports whether metadata satisfies every filter entry.
func metadataMatches(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Zero-norm vectors score 0.
func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
