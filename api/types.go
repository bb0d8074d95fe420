package api

import "time"

// ResearchRequest asks the team to work on a task.
type ResearchRequest struct {
	// Task is the research question or instruction.
	Task string `json:"task"`
	// SessionID groups turns into one conversation. Omitted, a new
	// session is created and returned in the response.
	SessionID string `json:"session_id,omitempty"`
}

// ResearchResponse is the outcome of one research turn.
type ResearchResponse struct {
	Success    bool           `json:"success"`
	Agent      string         `json:"agent"`
	Content    string         `json:"content"`
	Data       map[string]any `json:"data,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	SessionID  string         `json:"session_id"`
}

// ReportSection is one member's contribution to a composite report.
type ReportSection struct {
	AgentID string         `json:"agent_id"`
	Agent   string         `json:"agent"`
	Success bool           `json:"success"`
	Content string         `json:"content"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ReportResponse is the composite report from the whole team.
type ReportResponse struct {
	Task       string          `json:"task"`
	Sections   []ReportSection `json:"sections"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AgentInfo describes one roster member.
type AgentInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

// TeamStatusResponse reports the team roster and recent activity.
type TeamStatusResponse struct {
	Status     string      `json:"status"`
	Members    []AgentInfo `json:"members"`
	Activities []string    `json:"recent_activities,omitempty"`
}

// HistoryMessage is one conversation turn.
type HistoryMessage struct {
	Role      string    `json:"role"`
	AgentID   string    `json:"agent_id,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is a session's conversation history, oldest first.
type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
}

// VersionInfo reports build provenance.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}
