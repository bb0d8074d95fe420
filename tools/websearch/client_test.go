package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/types"
)

func testSearchConfig(baseURL string) config.SearchConfig {
	cfg := config.DefaultSearchConfig()
	cfg.APIKey = "test-key"
	cfg.EngineID = "test-cx"
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "golang market", q.Get("q"))
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, "3", q.Get("num"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Go market report","link":"https://example.com/1","snippet":"The Go market is growing."},
			{"title":"","link":"https://example.com/2","snippet":""}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(testSearchConfig(srv.URL), nil)

	results, err := client.Search(context.Background(), "golang market", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Go market report", results[0].Title)
	assert.Equal(t, "https://example.com/1", results[0].Link)

	// Missing fields get placeholder text.
	assert.Equal(t, "No title", results[1].Title)
	assert.Equal(t, "No description available.", results[1].Snippet)
}

func TestClient_SearchCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	client := NewClient(testSearchConfig(srv.URL), nil)
	_, err := client.Search(context.Background(), "anything", 50)
	require.NoError(t, err)
}

func TestClient_SearchNotConfigured(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	client := NewClient(cfg, nil)

	assert.False(t, client.Configured())

	_, err := client.Search(context.Background(), "query", 3)
	require.Error(t, err)
	assert.Equal(t, types.ErrNotConfigured, types.GetErrorCode(err))
}

func TestClient_SearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(testSearchConfig(srv.URL), nil)

	_, err := client.Search(context.Background(), "query", 3)
	require.Error(t, err)
	assert.Equal(t, types.ErrRateLimited, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	client := NewClient(testSearchConfig("http://unused"), nil)

	_, err := client.Search(context.Background(), "", 3)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestFetcher_FetchContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "HeliumAI/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<html><head><style>.x{}</style><script>var a=1;</script></head>
			<body><nav>Menu</nav><h1>Report</h1><p>Widgets   are
			selling well.</p><footer>contact us</footer></body></html>`))
	}))
	defer srv.Close()

	fetcher := NewFetcher(config.DefaultSearchConfig(), nil)

	text, err := fetcher.FetchContent(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "Report")
	assert.Contains(t, text, "Widgets are selling well.")
	assert.NotContains(t, text, "Menu")
	assert.NotContains(t, text, "var a=1")
	assert.NotContains(t, text, "contact us")
}

func TestFetcher_FetchContentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	fetcher := NewFetcher(config.DefaultSearchConfig(), nil)

	_, err := fetcher.FetchContent(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, types.ErrUnavailable, types.GetErrorCode(err))
}
