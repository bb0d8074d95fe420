package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/types"
)

func TestOpenAIProvider_EmbedDocuments(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/embeddings", r.URL.Path)

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "text-embedding-3-small", req.Model)

		resp := openAIEmbedResponse{}
		// Answer out of order to exercise index placement.
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float64 `json:"embedding"`
			}{Index: i, Embedding: []float64{float64(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.EmbeddingConfig{
		Provider: "openai",
		APIKey:   "sk-test",
		BaseURL:  srv.URL,
	}, nil)
	require.NoError(t, err)

	vecs, err := p.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float64{0, 1}, vecs[0])
	assert.Equal(t, []float64{2, 1}, vecs[2])
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestOpenAIProvider_Batching(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.LessOrEqual(t, len(req.Input), 2)

		resp := openAIEmbedResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float64 `json:"embedding"`
			}{Index: i, Embedding: []float64{1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.EmbeddingConfig{
		APIKey:    "sk-test",
		BaseURL:   srv.URL,
		BatchSize: 2,
	}, nil)
	require.NoError(t, err)

	vecs, err := p.EmbedDocuments(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vecs, 5)
	assert.Equal(t, 3, calls)
}

func TestOpenAIProvider_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.EmbeddingConfig{APIKey: "sk-test", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = p.EmbedQuery(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, types.ErrRateLimited, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestGeminiProvider_EmbedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, ":batchEmbedContents")
		require.Equal(t, "key-test", r.URL.Query().Get("key"))

		var req geminiBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := geminiBatchResponse{}
		for range req.Requests {
			resp.Embeddings = append(resp.Embeddings, struct {
				Values []float64 `json:"values"`
			}{Values: []float64{0.5, 0.5}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(config.EmbeddingConfig{
		Provider: "gemini",
		APIKey:   "key-test",
		BaseURL:  srv.URL,
	}, nil)
	require.NoError(t, err)

	vecs, err := p.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float64{0.5, 0.5}, vecs[1])
}
