// Package agent defines the contracts shared by every member of the
// research team: the Agent interface, the Task and Response shapes, and
// a BaseAgent with common identity, logging, and memory plumbing.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Agent is implemented by every team member, including the leader.
type Agent interface {
	// ID is the stable identifier used for routing and memory.
	ID() string

	// Name is the human-facing display name.
	Name() string

	// Role describes the agent's specialty.
	Role() string

	// Capabilities lists what the agent can be asked to do.
	Capabilities() []string

	// Process executes a single task and returns a structured response.
	Process(ctx context.Context, task *Task) (*Response, error)
}

// Task is one unit of work given to an agent.
type Task struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	Content   string         `json:"content"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewTask creates a task with a generated ID.
func NewTask(content string) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// WithSession attaches a conversation session to the task.
func (t *Task) WithSession(sessionID string) *Task {
	t.SessionID = sessionID
	return t
}

// Response is the structured result of processing one task.
type Response struct {
	TaskID    string         `json:"task_id"`
	AgentID   string         `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	Success   bool           `json:"success"`

	// Content is the rendered text summary shown to the user.
	Content string `json:"content"`

	// Data carries the structured analysis payload.
	Data map[string]any `json:"data,omitempty"`

	Metadata  map[string]any `json:"metadata,omitempty"`
	Duration  time.Duration  `json:"duration"`
	CreatedAt time.Time      `json:"created_at"`
}
