package websearch

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"context"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/httpclient"
	"github.com/aman1195/helium/types"
)

// maxFetchBytes caps how much of a page body is read.
const maxFetchBytes = 1 << 20

// Fetcher retrieves web pages and extracts their visible text.
type Fetcher struct {
	http   *http.Client
	logger *zap.Logger
}

// NewFetcher creates a page fetcher using the configured timeout and
// User-Agent.
func NewFetcher(cfg config.SearchConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		http:   httpclient.NewWithUserAgent(cfg.Timeout, cfg.UserAgent),
		logger: logger.With(zap.String("component", "webfetch")),
	}
}

// FetchContent fetches url and returns the page's visible text with
// whitespace collapsed. Script, style, and navigation subtrees are
// skipped.
func (f *Fetcher) FetchContent(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", types.NewError(types.ErrInvalidInput, "url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build fetch request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrUnavailable, "page fetch failed").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.Errorf(types.ErrUnavailable, "page fetch returned status %d", resp.StatusCode)
	}

	text, err := extractText(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	f.logger.Debug("page fetched",
		zap.String("url", pageURL),
		zap.Int("text_len", len(text)),
	)

	return text, nil
}

// skippedElements are subtrees that carry no article text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"noscript": true,
	"header":   true,
}

// extractText walks the HTML token stream collecting visible text.
func extractText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)

	var sb strings.Builder
	depth := 0 // nesting depth inside skipped subtrees

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return collapseWhitespace(sb.String()), nil
			}
			// A truncated body still yields the text collected so far.
			if tokenizer.Err() == io.ErrUnexpectedEOF {
				return collapseWhitespace(sb.String()), nil
			}
			return "", tokenizer.Err()

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedElements[string(name)] {
				depth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedElements[string(name)] && depth > 0 {
				depth--
			}

		case html.TextToken:
			if depth == 0 {
				sb.Write(tokenizer.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
