package server

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, handler http.Handler) *Manager {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	m := NewManager(handler, cfg, zap.NewNop())
	t.Cleanup(func() { m.Shutdown(context.Background()) })
	return m
}

func TestManager_ServesRequests(t *testing.T) {
	m := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	require.NoError(t, m.Start())

	resp, err := http.Get("http://" + m.listener.Addr().String() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())
}

func TestManager_DoubleStart(t *testing.T) {
	m := newTestManager(t, http.NewServeMux())
	require.NoError(t, m.Start())

	err := m.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestManager_ShutdownIdempotent(t *testing.T) {
	m := newTestManager(t, http.NewServeMux())
	require.NoError(t, m.Start())

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_StartAfterShutdown(t *testing.T) {
	m := newTestManager(t, http.NewServeMux())
	require.NoError(t, m.Start())
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestManager_ErrorsChannelStartsEmpty(t *testing.T) {
	m := newTestManager(t, http.NewServeMux())

	select {
	case err := <-m.Errors():
		t.Fatalf("unexpected error: %v", err)
	default:
	}
}

func TestManager_Addr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = ":9999"
	m := NewManager(http.NewServeMux(), cfg, zap.NewNop())
	assert.Equal(t, ":9999", m.Addr())
}
