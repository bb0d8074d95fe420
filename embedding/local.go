package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimensions is the vector size of the local provider.
const DefaultDimensions = 384

// LocalProvider produces deterministic hashed bag-of-words vectors.
// It needs no network or credentials, so retrieval works out of the
// box; swap in a remote provider for semantic quality.
type LocalProvider struct {
	dims int
}

// NewLocalProvider creates a local provider. dims <= 0 uses
// DefaultDimensions.
func NewLocalProvider(dims int) *LocalProvider {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &LocalProvider{dims: dims}
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local" }

// Dimensions implements Provider.
func (p *LocalProvider) Dimensions() int { return p.dims }

// EmbedQuery implements Provider. Empty text yields a zero vector.
func (p *LocalProvider) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	return p.embed(text), nil
}

// EmbedDocuments implements Provider.
func (p *LocalProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = p.embed(text)
	}
	return out, nil
}

// embed hashes each lowercase word into a bucket, accumulates term
// frequency, and L2-normalizes the result.
func (p *LocalProvider) embed(text string) []float64 {
	vec := make([]float64, p.dims)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, word := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum64()%uint64(p.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
