package a2a

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/agent"
)

func newTestClient(ts *httptest.Server, token string) *Client {
	return NewClient(ClientConfig{
		BaseURL:    ts.URL,
		Token:      token,
		Timeout:    5 * time.Second,
		RetryCount: 2,
		RetryDelay: 5 * time.Millisecond,
	})
}

func TestClient_Discover(t *testing.T) {
	var hits atomic.Int32
	card := AgentCard{Name: "echo", URL: "http://example.test", Version: "1.0.0"}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/.well-known/agent.json", r.URL.Path)
		hits.Add(1)
		writeJSON(w, http.StatusOK, card)
	}))
	defer ts.Close()

	client := newTestClient(ts, "")
	got, err := client.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Name)

	// Second call is served from the card cache.
	_, err = client.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Send(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, newStubAgent("echo"))
	client := newTestClient(ts, "")

	reply, err := client.Send(context.Background(), NewTaskMessage("caller", "echo", TaskPayload{Task: "ping"}))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeResult, reply.Type)

	result, err := DecodePayload[ResultPayload](reply.Payload)
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", result.Content)
}

func TestClient_AsyncFlow(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, newStubAgent("echo"))
	client := newTestClient(ts, "")
	ctx := context.Background()

	taskID, err := client.Submit(ctx, NewTaskMessage("caller", "echo", TaskPayload{Task: "work"}))
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	result, err := client.WaitForResult(ctx, taskID, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "echo: work", result.Content)

	info, err := client.TaskStatus(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "completed", info.Status)
}

func TestClient_Cancel(t *testing.T) {
	blocking := newStubAgent("slow")
	blocking.process = func(ctx context.Context, task *agent.Task) (*agent.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	_, ts := newTestServer(t, ServerConfig{}, blocking)
	client := newTestClient(ts, "")
	ctx := context.Background()

	taskID, err := client.Submit(ctx, NewTaskMessage("caller", "slow", TaskPayload{Task: "long"}))
	require.NoError(t, err)

	state, err := client.Cancel(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", state)

	_, err = client.WaitForResult(ctx, taskID, 10*time.Millisecond)
	assert.ErrorContains(t, err, "cancelled")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			writeError(w, http.StatusInternalServerError, "internal_error", "transient")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"task_id": "t-1", "state": "pending"})
	}))
	defer ts.Close()

	client := newTestClient(ts, "")
	taskID, err := client.Submit(context.Background(), NewTaskMessage("caller", "echo", TaskPayload{Task: "retry"}))
	require.NoError(t, err)
	assert.Equal(t, "t-1", taskID)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeError(w, http.StatusBadRequest, "invalid_payload", "bad request")
	}))
	defer ts.Close()

	client := newTestClient(ts, "")
	_, err := client.Submit(context.Background(), NewTaskMessage("caller", "echo", TaskPayload{Task: "nope"}))
	require.Error(t, err)
	assert.ErrorContains(t, err, "bad request")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_AuthFailure(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{EnableAuth: true, AuthToken: "secret"}, newStubAgent("echo"))

	good := newTestClient(ts, "secret")
	_, err := good.Send(context.Background(), NewTaskMessage("caller", "echo", TaskPayload{Task: "hi"}))
	require.NoError(t, err)

	bad := newTestClient(ts, "wrong")
	_, err = bad.Send(context.Background(), NewTaskMessage("caller", "echo", TaskPayload{Task: "hi"}))
	assert.ErrorIs(t, err, ErrAuthFailed)
}
