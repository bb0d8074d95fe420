// Package taskstore persists asynchronous A2A tasks so that accepted
// work survives a service restart. Three backends are provided: memory,
// Redis, and a relational database via GORM.
package taskstore

import (
	"time"

	"github.com/aman1195/helium/types"
)

// Status is the lifecycle state of an async task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsRecoverable reports whether a task in this status should be
// re-queued after a restart.
func (s Status) IsRecoverable() bool {
	return s == StatusPending || s == StatusRunning
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Task is one persisted async execution.
type Task struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`

	// AgentID is the agent the task was routed to.
	AgentID string `json:"agent_id"`

	// Type describes the work, e.g. "a2a_task".
	Type string `json:"type"`

	Status Status `json:"status"`

	// Input is the task request payload.
	Input map[string]any `json:"input,omitempty"`

	// Result is set when the task completes.
	Result any `json:"result,omitempty"`

	// Error is set when the task fails.
	Error string `json:"error,omitempty"`

	// Progress in [0, 100].
	Progress float64 `json:"progress"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsTerminal reports whether the task reached a final state.
func (t *Task) IsTerminal() bool { return t.Status.IsTerminal() }

// Duration returns how long the task ran, or has been running.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	if t.CompletedAt != nil {
		return t.CompletedAt.Sub(*t.StartedAt)
	}
	return time.Since(*t.StartedAt)
}

// Filter selects tasks in List queries. Zero fields match everything.
type Filter struct {
	SessionID string
	AgentID   string
	Status    []Status
	Limit     int
	Offset    int
}

// matches reports whether the task passes the filter (paging excluded).
func (f Filter) matches(t *Task) bool {
	if f.SessionID != "" && t.SessionID != f.SessionID {
		return false
	}
	if f.AgentID != "" && t.AgentID != f.AgentID {
		return false
	}
	if len(f.Status) > 0 {
		found := false
		for _, s := range f.Status {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Stats summarizes a task store.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}

// Errors shared by all backends.
var (
	ErrTaskNotFound = types.NewError(types.ErrTaskNotFound, "task not found")
	ErrTaskFinished = types.NewError(types.ErrTaskFinished, "task already in a terminal state")
	ErrInvalidTask  = types.NewError(types.ErrInvalidInput, "task is invalid")
)
