package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/httpclient"
)

// QdrantStore implements VectorStore against Qdrant's REST API.
// Point IDs must be UUIDs, so a stable UUID is derived from each
// document ID; the original ID rides along in the payload.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
	logger     *zap.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewQdrantStore creates a Qdrant-backed store for one collection.
func NewQdrantStore(cfg config.QdrantConfig, collection string, logger *zap.Logger) *QdrantStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:6333"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &QdrantStore{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.CollectionPrefix + collection,
		client:     httpclient.New(timeout),
		logger:     logger.With(zap.String("component", "qdrant_store"), zap.String("collection", cfg.CollectionPrefix+collection)),
	}
}

var qdrantNamespace = uuid.MustParse("8a9f6c42-1d37-4be0-9b1a-c574a20f6e3d")

// pointID derives the stable UUID used as the Qdrant point ID.
func pointID(docID string) string {
	return uuid.NewSHA1(qdrantNamespace, []byte(docID)).String()
}

func (s *QdrantStore) collectionPath() string {
	return "/collections/" + url.PathEscape(s.collection)
}

// ensureCollection creates the collection on first write. Qdrant
// answers 409 when it already exists.
func (s *QdrantStore) ensureCollection(ctx context.Context, vectorSize int) error {
	s.ensureOnce.Do(func() {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		}
		s.ensureErr = s.doJSON(ctx, http.MethodPut, s.collectionPath(), body, nil, http.StatusConflict)
	})
	return s.ensureErr
}

// doJSON performs one REST call. extraOK lists status codes treated as
// success besides 2xx.
func (s *QdrantStore) doJSON(ctx context.Context, method, path string, in, out any, extraOK ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal qdrant request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	for _, code := range extraOK {
		if resp.StatusCode == code {
			ok = true
			out = nil
		}
	}
	if !ok {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s returned %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode qdrant response: %w", err)
	}
	return nil
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float64      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Add implements VectorStore.
func (s *QdrantStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	vectorSize := 0
	points := make([]qdrantPoint, 0, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document %d has no id", i)
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %q has no embedding", doc.ID)
		}
		if vectorSize == 0 {
			vectorSize = len(doc.Embedding)
		}
		if len(doc.Embedding) != vectorSize {
			return fmt.Errorf("embedding dimension mismatch: %d vs %d", len(doc.Embedding), vectorSize)
		}

		points = append(points, qdrantPoint{
			ID:     pointID(doc.ID),
			Vector: doc.Embedding,
			Payload: map[string]any{
				"doc_id":   doc.ID,
				"content":  doc.Content,
				"metadata": doc.Metadata,
			},
		})
	}

	if err := s.ensureCollection(ctx, vectorSize); err != nil {
		return err
	}

	req := struct {
		Points []qdrantPoint `json:"points"`
	}{Points: points}

	if err := s.doJSON(ctx, http.MethodPut, s.collectionPath()+"/points?wait=true", req, nil); err != nil {
		return err
	}
	s.logger.Debug("upserted points", zap.Int("count", len(points)))
	return nil
}

// Search implements VectorStore, translating the metadata filter into
// Qdrant must-match conditions on the payload.
func (s *QdrantStore) Search(ctx context.Context, query []float64, topK int, filter map[string]string) ([]SearchResult, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query embedding is required")
	}
	if topK <= 0 {
		return []SearchResult{}, nil
	}

	req := map[string]any{
		"vector":       query,
		"limit":        topK,
		"with_payload": true,
	}
	if len(filter) > 0 {
		must := make([]map[string]any, 0, len(filter))
		for k, v := range filter {
			must = append(must, map[string]any{
				"key":   "metadata." + k,
				"match": map[string]any{"value": v},
			})
		}
		req["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodPost, s.collectionPath()+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		doc := Document{}
		if v, ok := r.Payload["doc_id"].(string); ok {
			doc.ID = v
		}
		if v, ok := r.Payload["content"].(string); ok {
			doc.Content = v
		}
		if m, ok := r.Payload["metadata"].(map[string]any); ok {
			doc.Metadata = make(map[string]string, len(m))
			for k, v := range m {
				if sv, ok := v.(string); ok {
					doc.Metadata[k] = sv
				}
			}
		}
		if doc.ID == "" {
			doc.ID = fmt.Sprint(r.ID)
		}

		out = append(out, SearchResult{
			Document: doc,
			Score:    r.Score,
			Distance: 1 - r.Score,
		})
	}
	return out, nil
}

// Delete implements VectorStore.
func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	points := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			points = append(points, pointID(id))
		}
	}

	req := struct {
		Points []string `json:"points"`
	}{Points: points}
	return s.doJSON(ctx, http.MethodPost, s.collectionPath()+"/points/delete?wait=true", req, nil)
}

// Count implements VectorStore with an exact count.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	req := struct {
		Exact bool `json:"exact"`
	}{Exact: true}

	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodPost, s.collectionPath()+"/points/count", req, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Clear implements Clearable by dropping the whole collection.
func (s *QdrantStore) Clear(ctx context.Context) error {
	if err := s.doJSON(ctx, http.MethodDelete, s.collectionPath(), nil, nil, http.StatusNotFound); err != nil {
		return err
	}
	// Next write recreates the collection.
	s.ensureOnce = sync.Once{}
	return nil
}
