package rag

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Tokenizer counts tokens for chunk metadata.
type Tokenizer interface {
	CountTokens(text string) int
}

// EstimatorTokenizer approximates token counts as len/4, the common
// English-prose average. It needs no encoding data.
type EstimatorTokenizer struct{}

// CountTokens implements Tokenizer.
func (EstimatorTokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// modelEncodings maps tokenizer model names to tiktoken encodings.
var modelEncodings = map[string]string{
	"gpt-4o":                 "o200k_base",
	"gpt-4o-mini":            "o200k_base",
	"gpt-4":                  "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"text-embedding-3-large": "cl100k_base",
	"text-embedding-3-small": "cl100k_base",
}

// TiktokenTokenizer counts tokens with a tiktoken encoding. The
// encoding loads lazily because it may download data on first use;
// load failures fall back to the character estimate.
type TiktokenTokenizer struct {
	encoding string
	logger   *zap.Logger

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTiktokenTokenizer creates a tokenizer for the given model.
// Unknown models use cl100k_base.
func NewTiktokenTokenizer(model string, logger *zap.Logger) *TiktokenTokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	encoding, ok := modelEncodings[model]
	if !ok {
		encoding = "cl100k_base"
	}
	return &TiktokenTokenizer{
		encoding: encoding,
		logger:   logger.With(zap.String("component", "tokenizer")),
	}
}

// CountTokens implements Tokenizer.
func (t *TiktokenTokenizer) CountTokens(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = err
			t.logger.Warn("tiktoken encoding unavailable, using character estimate",
				zap.String("encoding", t.encoding),
				zap.Error(err))
			return
		}
		t.enc = enc
	})
	if t.initErr != nil {
		return EstimatorTokenizer{}.CountTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// NewTokenizer returns the tiktoken tokenizer for a model, or the
// estimator when model is empty.
func NewTokenizer(model string, logger *zap.Logger) Tokenizer {
	if model == "" {
		return EstimatorTokenizer{}
	}
	return NewTiktokenTokenizer(model, logger)
}
