// Package embedding turns text into vectors for retrieval. The local
// provider is deterministic and needs no credentials; remote providers
// are optional backends selected by configuration.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
)

// Provider generates embeddings for queries and documents.
type Provider interface {
	// Name identifies the provider.
	Name() string

	// Dimensions is the length of every vector the provider returns.
	Dimensions() int

	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// EmbedDocuments embeds a batch of documents, one vector per input
	// in order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
}

// NewProvider creates the configured embedding provider.
func NewProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalProvider(cfg.Dimensions), nil
	case "openai":
		return NewOpenAIProvider(cfg, logger)
	case "gemini":
		return NewGeminiProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (valid: local, openai, gemini)", cfg.Provider)
	}
}
