// Package types provides core types used across helium.
// This package has ZERO dependencies on other helium packages to avoid
// circular imports. All other packages should import types from here.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the role of a conversation participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single turn in a research conversation.
// Assistant turns carry the ID of the agent that produced them.
type Message struct {
	ID        string            `json:"id,omitempty"`
	Role      Role              `json:"role"`
	AgentID   string            `json:"agent_id,omitempty"`
	Content   string            `json:"content,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
}

// NewMessage creates a new message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message attributed to an agent.
func NewAssistantMessage(agentID, content string) Message {
	m := NewMessage(RoleAssistant, content)
	m.AgentID = agentID
	return m
}

// WithMetadata adds metadata to the message.
func (m Message) WithMetadata(metadata map[string]string) Message {
	m.Metadata = metadata
	return m
}
