package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aman1195/helium/agent"
	"github.com/aman1195/helium/api"
	"github.com/aman1195/helium/conversation"
	"github.com/aman1195/helium/team"
	"github.com/aman1195/helium/types"
)

// ResearchHandler routes research tasks through the team leader and
// records each turn in the conversation store.
type ResearchHandler struct {
	leader        *team.Leader
	conversations conversation.Store
	logger        *zap.Logger
}

// NewResearchHandler builds the research endpoints.
func NewResearchHandler(leader *team.Leader, conversations conversation.Store, logger *zap.Logger) *ResearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchHandler{
		leader:        leader,
		conversations: conversations,
		logger:        logger.With(zap.String("component", "research_handler")),
	}
}

// HandleResearch serves POST /api/v1/research: one task, one routed
// response.
func (h *ResearchHandler) HandleResearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req api.ResearchRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidInput, "task is required"), h.logger)
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	task := agent.NewTask(req.Task).WithSession(sessionID)
	resp, err := h.leader.Process(r.Context(), task)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	h.recordTurn(r, sessionID, req.Task, resp)

	WriteSuccess(w, r, api.ResearchResponse{
		Success:    resp.Success,
		Agent:      resp.AgentName,
		Content:    resp.Content,
		Data:       resp.Data,
		DurationMS: resp.Duration.Milliseconds(),
		SessionID:  sessionID,
	})
}

// HandleResearchAll serves POST /api/v1/research/all: fan the task out
// to the whole team and aggregate a composite report.
func (h *ResearchHandler) HandleResearchAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req api.ResearchRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		WriteError(w, r, types.NewError(types.ErrInvalidInput, "task is required"), h.logger)
		return
	}

	task := agent.NewTask(req.Task)
	if req.SessionID != "" {
		task = task.WithSession(req.SessionID)
	}

	report, err := h.leader.ResearchAll(r.Context(), task)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	sections := make([]api.ReportSection, 0, len(report.Sections))
	for _, s := range report.Sections {
		sections = append(sections, api.ReportSection{
			AgentID: s.AgentID,
			Agent:   s.AgentName,
			Success: s.Success,
			Content: s.Content,
			Data:    s.Data,
			Error:   s.Error,
		})
	}
	WriteSuccess(w, r, api.ReportResponse{
		Task:       report.Task,
		Sections:   sections,
		DurationMS: report.Duration.Milliseconds(),
		CreatedAt:  h.leader.Now().UTC(),
	})
}

// recordTurn appends the user and assistant messages to the session.
// Recording is best effort; a store failure never fails the request.
func (h *ResearchHandler) recordTurn(r *http.Request, sessionID, task string, resp *agent.Response) {
	if h.conversations == nil {
		return
	}
	ctx := r.Context()
	if err := h.conversations.Append(ctx, sessionID, types.NewUserMessage(task)); err != nil {
		h.logger.Warn("failed to record user turn", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	reply := types.NewAssistantMessage(resp.AgentID, resp.Content)
	if err := h.conversations.Append(ctx, sessionID, reply); err != nil {
		h.logger.Warn("failed to record assistant turn", zap.String("session_id", sessionID), zap.Error(err))
	}
}
