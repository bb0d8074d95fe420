package a2a

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the kind of an A2A envelope.
type MessageType string

const (
	MessageTypeTask   MessageType = "task"   // request another agent to do work
	MessageTypeResult MessageType = "result" // outcome of a task
	MessageTypeError  MessageType = "error"  // failure notice
	MessageTypeStatus MessageType = "status" // progress update
	MessageTypeCancel MessageType = "cancel" // cancel an in-flight task
)

// IsValid reports whether t is a known message type.
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeTask, MessageTypeResult, MessageTypeError, MessageTypeStatus, MessageTypeCancel:
		return true
	}
	return false
}

// Message is the envelope exchanged between agents. Payload carries a
// type-specific body: TaskPayload for tasks, ResultPayload for results,
// ErrorPayload for errors, StatusPayload for status updates.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Payload   any         `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ReplyTo   string      `json:"reply_to,omitempty"`
}

// TaskPayload is the body of a task message.
type TaskPayload struct {
	Task      string         `json:"task"`
	SessionID string         `json:"session_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// ResultPayload is the body of a result message.
type ResultPayload struct {
	Success    bool           `json:"success"`
	Content    string         `json:"content"`
	Data       map[string]any `json:"data,omitempty"`
	AgentID    string         `json:"agent_id,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
}

// ErrorPayload is the body of an error message.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusPayload is the body of a status message.
type StatusPayload struct {
	State    string `json:"state"`
	Progress int    `json:"progress,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func newMessage(msgType MessageType, from, to string, payload any) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		From:      from,
		To:        to,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// NewTaskMessage builds a task request from one agent to another.
func NewTaskMessage(from, to string, payload TaskPayload) *Message {
	return newMessage(MessageTypeTask, from, to, payload)
}

// NewResultMessage builds a result for a completed task.
func NewResultMessage(from, to string, payload ResultPayload) *Message {
	return newMessage(MessageTypeResult, from, to, payload)
}

// NewErrorMessage builds an error notice.
func NewErrorMessage(from, to, code, detail string) *Message {
	return newMessage(MessageTypeError, from, to, ErrorPayload{Code: code, Message: detail})
}

// NewStatusMessage builds a progress update.
func NewStatusMessage(from, to string, payload StatusPayload) *Message {
	return newMessage(MessageTypeStatus, from, to, payload)
}

// NewCancelMessage asks the recipient to cancel the task identified by taskID.
func NewCancelMessage(from, to, taskID string) *Message {
	m := newMessage(MessageTypeCancel, from, to, nil)
	m.ReplyTo = taskID
	return m
}

// Validate checks the envelope fields. Task and result messages must
// carry a payload.
func (m *Message) Validate() error {
	if m.ID == "" {
		return ErrMessageMissingID
	}
	if !m.Type.IsValid() {
		return ErrMessageInvalidType
	}
	if m.From == "" {
		return ErrMessageMissingFrom
	}
	if m.To == "" {
		return ErrMessageMissingTo
	}
	if m.Payload == nil && (m.Type == MessageTypeTask || m.Type == MessageTypeResult) {
		return ErrMessageMissingPayload
	}
	return nil
}

// CreateReply builds a response envelope addressed back to the sender,
// linked to the original via ReplyTo.
func (m *Message) CreateReply(msgType MessageType, payload any) *Message {
	reply := newMessage(msgType, m.To, m.From, payload)
	reply.ReplyTo = m.ID
	return reply
}

// Marshal serializes the message to JSON.
func (m *Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage decodes and validates a JSON envelope.
func ParseMessage(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ErrInvalidMessage
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodePayload re-marshals the generic payload into a concrete type.
// After JSON transport the payload arrives as map[string]any; this
// restores the typed form.
func DecodePayload[T any](payload any) (T, error) {
	var out T
	raw, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
