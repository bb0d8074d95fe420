package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/api"
	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/conversation"
	"github.com/aman1195/helium/memory"
	"github.com/aman1195/helium/team"
)

func newTestLeader(t *testing.T) *team.Leader {
	t.Helper()
	store := memory.NewInMemoryStore(memory.InMemoryConfig{}, nil)
	return team.New(config.DefaultTeamConfig(), team.Deps{Memory: store})
}

// decodeEnvelope unmarshals the response envelope and re-decodes its
// Data field into out.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, out any) Response {
	t.Helper()
	var env Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if out != nil {
		raw, err := json.Marshal(env.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return env
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestResearchHandler_RoutesTask(t *testing.T) {
	leader := newTestLeader(t)
	conversations := conversation.NewMemoryStore()
	h := NewResearchHandler(leader, conversations, nil)

	rec := postJSON(t, h.HandleResearch, "/api/v1/research",
		api.ResearchRequest{Task: "analyze sales data for Q3"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ResearchResponse
	env := decodeEnvelope(t, rec, &resp)
	assert.True(t, env.Success)
	assert.True(t, resp.Success)
	assert.Equal(t, "Mira", resp.Agent)
	assert.NotEmpty(t, resp.Content)
	assert.NotEmpty(t, resp.SessionID)

	// Both turns recorded in the conversation store.
	history, err := conversations.History(context.Background(), resp.SessionID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "analyze sales data for Q3", history[0].Content)
	assert.Equal(t, team.AnalystID, history[1].AgentID)
}

func TestResearchHandler_ReusesSession(t *testing.T) {
	leader := newTestLeader(t)
	conversations := conversation.NewMemoryStore()
	h := NewResearchHandler(leader, conversations, nil)

	for range 2 {
		rec := postJSON(t, h.HandleResearch, "/api/v1/research",
			api.ResearchRequest{Task: "analyze churn data", SessionID: "sess-1"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.ResearchResponse
		decodeEnvelope(t, rec, &resp)
		assert.Equal(t, "sess-1", resp.SessionID)
	}

	history, err := conversations.History(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestResearchHandler_RequiresTask(t *testing.T) {
	h := NewResearchHandler(newTestLeader(t), nil, nil)

	rec := postJSON(t, h.HandleResearch, "/api/v1/research", api.ResearchRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec, nil)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
}

func TestResearchHandler_MalformedJSON(t *testing.T) {
	h := NewResearchHandler(newTestLeader(t), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/research",
		bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.HandleResearch(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
}

func TestResearchHandler_MethodNotAllowed(t *testing.T) {
	h := NewResearchHandler(newTestLeader(t), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/research", nil)
	rec := httptest.NewRecorder()
	h.HandleResearch(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestResearchHandler_ResearchAll(t *testing.T) {
	h := NewResearchHandler(newTestLeader(t), nil, nil)

	rec := postJSON(t, h.HandleResearchAll, "/api/v1/research/all",
		api.ResearchRequest{Task: "evaluate the widget market"})
	require.Equal(t, http.StatusOK, rec.Code)

	var report api.ReportResponse
	decodeEnvelope(t, rec, &report)
	assert.Equal(t, "evaluate the widget market", report.Task)
	require.Len(t, report.Sections, 3)

	names := make([]string, 0, len(report.Sections))
	for _, s := range report.Sections {
		assert.True(t, s.Success, "section %s", s.AgentID)
		assert.NotEmpty(t, s.Content)
		names = append(names, s.Agent)
	}
	assert.ElementsMatch(t, []string{"Mira", "Chloe", "Axel"}, names)
	assert.False(t, report.CreatedAt.IsZero())
}

func TestResearchHandler_NoConversationStore(t *testing.T) {
	// Recording is optional; a nil store must not fail the request.
	h := NewResearchHandler(newTestLeader(t), nil, nil)

	rec := postJSON(t, h.HandleResearch, "/api/v1/research",
		api.ResearchRequest{Task: "analyze revenue data"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
