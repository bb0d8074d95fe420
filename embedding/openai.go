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
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-small"
	defaultOpenAIDims    = 1536
	defaultBatchSize     = 100
)

// OpenAIProvider embeds text through the OpenAI embeddings API.
type OpenAIProvider struct {
	baseURL   string
	apiKey    string
	model     string
	dims      int
	batchSize int
	client    *http.Client
	logger    *zap.Logger
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, types.NewError(types.ErrNotConfigured, "openai embedding provider requires an api key")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = defaultOpenAIDims
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIProvider{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		model:     model,
		dims:      dims,
		batchSize: batch,
		client:    httpclient.New(timeout),
		logger:    logger.With(zap.String("component", "embedding_openai")),
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Dimensions implements Provider.
func (p *OpenAIProvider) Dimensions() int { return p.dims }

// EmbedQuery implements Provider.
func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vecs, err := p.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}
	return vecs[0], nil
}

// EmbedDocuments implements Provider, batching requests.
func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
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

type openAIEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(openAIEmbedRequest{
		Input: texts,
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, types.NewError(types.ErrRateLimited, "openai embedding rate limit exceeded").
				WithRetryable(true)
		}
		return nil, types.Errorf(types.ErrUnavailable, "openai embeddings returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	// Results carry an index; place each vector by it.
	out := make([][]float64, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, vec := range out {
		if vec == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return out, nil
}
