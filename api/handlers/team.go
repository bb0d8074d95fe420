package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aman1195/helium/api"
	"github.com/aman1195/helium/conversation"
	"github.com/aman1195/helium/team"
	"github.com/aman1195/helium/types"
)

// TeamHandler serves the roster, team status, and session history.
type TeamHandler struct {
	leader        *team.Leader
	conversations conversation.Store
	logger        *zap.Logger
}

// NewTeamHandler builds the team endpoints.
func NewTeamHandler(leader *team.Leader, conversations conversation.Store, logger *zap.Logger) *TeamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamHandler{
		leader:        leader,
		conversations: conversations,
		logger:        logger.With(zap.String("component", "team_handler")),
	}
}

// HandleStatus serves GET /api/v1/team.
func (h *TeamHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r, http.MethodGet)
		return
	}

	status := h.leader.TeamStatus(r.Context())

	members := make([]api.AgentInfo, 0, len(status.Members))
	for _, m := range status.Members {
		members = append(members, api.AgentInfo(m))
	}
	activities := make([]string, 0, len(status.RecentActivities))
	for _, rec := range status.RecentActivities {
		activities = append(activities, rec.Content)
	}

	WriteSuccess(w, r, api.TeamStatusResponse{
		Status:     status.Status,
		Members:    members,
		Activities: activities,
	})
}

// HandleAgents serves GET /api/v1/agents: the roster including the
// leader.
func (h *TeamHandler) HandleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r, http.MethodGet)
		return
	}

	roster := []api.AgentInfo{{
		ID:           h.leader.ID(),
		Name:         h.leader.Name(),
		Role:         h.leader.Role(),
		Capabilities: h.leader.Capabilities(),
	}}
	for _, m := range h.leader.Members() {
		roster = append(roster, api.AgentInfo{
			ID:           m.ID(),
			Name:         m.Name(),
			Role:         m.Role(),
			Capabilities: m.Capabilities(),
		})
	}
	WriteSuccess(w, r, roster)
}

// HandleHistory serves GET /api/v1/sessions/{id}/history?limit=N.
func (h *TeamHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r, http.MethodGet)
		return
	}
	if h.conversations == nil {
		WriteError(w, r, types.NewError(types.ErrNotConfigured, "conversation store is not configured"), h.logger)
		return
	}

	sessionID := sessionFromPath(r.URL.Path)
	if sessionID == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidInput, "session id is required"), h.logger)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, r, types.NewError(types.ErrInvalidInput, "limit must be an integer"), h.logger)
			return
		}
		limit = n
	}

	history, err := h.conversations.History(r.Context(), sessionID, limit)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	messages := make([]api.HistoryMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, api.HistoryMessage{
			Role:      string(m.Role),
			AgentID:   m.AgentID,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	WriteSuccess(w, r, api.HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
	})
}

// sessionFromPath extracts {id} from /api/v1/sessions/{id}/history.
func sessionFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1/sessions/")
	id, ok := strings.CutSuffix(trimmed, "/history")
	if !ok || trimmed == path {
		return ""
	}
	return id
}
