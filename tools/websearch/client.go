// Package websearch provides the web search tool backed by the Google
// Custom Search JSON API, plus a page fetcher for retrieving source
// documents.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/httpclient"
	"github.com/aman1195/helium/types"
)

// Google Custom Search returns at most 10 items per request.
const maxResultsPerRequest = 10

// ErrNotConfigured is returned when no API key or engine ID is set.
var ErrNotConfigured = types.NewError(types.ErrNotConfigured,
	"web search is not configured: api_key and engine_id are required")

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher is the search capability consumed by agents.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]Result, error)
}

// Client calls the Google Custom Search JSON API.
type Client struct {
	cfg     config.SearchConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a search client. The client is usable even without
// credentials; Search then returns ErrNotConfigured.
func NewClient(cfg config.SearchConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		cfg:     cfg,
		http:    httpclient.New(cfg.Timeout),
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With(zap.String("component", "websearch")),
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.EngineID != ""
}

// searchResponse is the subset of the API response we consume.
type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search returns up to n results for query. n is capped at the API
// maximum of 10; n <= 0 uses the configured default.
func (c *Client) Search(ctx context.Context, query string, n int) ([]Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if query == "" {
		return nil, types.NewError(types.ErrInvalidInput, "search query is required")
	}
	if n <= 0 {
		n = c.cfg.MaxResults
	}
	if n > maxResultsPerRequest {
		n = maxResultsPerRequest
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.EngineID)
	params.Set("num", strconv.Itoa(n))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrUnavailable, "search request failed").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("search request rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, types.NewError(types.ErrRateLimited, "search quota exceeded").WithRetryable(true)
		}
		return nil, types.Errorf(types.ErrUnavailable, "search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := item.Title
		if title == "" {
			title = "No title"
		}
		snippet := item.Snippet
		if snippet == "" {
			snippet = "No description available."
		}
		results = append(results, Result{Title: title, Link: item.Link, Snippet: snippet})
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)

	return results, nil
}
