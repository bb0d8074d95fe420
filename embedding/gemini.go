package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/httpclient"
	"github.com/aman1195/helium/types"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-embedding-001"
	defaultGeminiDims    = 768
)

// GeminiProvider embeds text through the Gemini batchEmbedContents API.
type GeminiProvider struct {
	baseURL   string
	apiKey    string
	model     string
	dims      int
	batchSize int
	client    *http.Client
	logger    *zap.Logger
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, types.NewError(types.ErrNotConfigured, "gemini embedding provider requires an api key")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = defaultGeminiDims
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiProvider{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		model:     model,
		dims:      dims,
		batchSize: batch,
		client:    httpclient.New(timeout),
		logger:    logger.With(zap.String("component", "embedding_gemini")),
	}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Dimensions implements Provider.
func (p *GeminiProvider) Dimensions() int { return p.dims }

// EmbedQuery implements Provider.
func (p *GeminiProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vecs, err := p.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("gemini returned no embeddings")
	}
	return vecs[0], nil
}

// EmbedDocuments implements Provider, batching requests.
func (p *GeminiProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := p.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiBatchRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

func (p *GeminiProvider) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := geminiBatchRequest{Requests: make([]geminiEmbedRequest, len(texts))}
	for i, text := range texts {
		batch.Requests[i] = geminiEmbedRequest{
			Model:   "models/" + p.model,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		}
	}
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, types.NewError(types.ErrRateLimited, "gemini embedding rate limit exceeded").
				WithRetryable(true)
		}
		return nil, types.Errorf(types.ErrUnavailable, "gemini embeddings returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed geminiBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(parsed.Embeddings), len(texts))
	}

	out := make([][]float64, len(parsed.Embeddings))
	for i, e := range parsed.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}
