package a2a

import (
	"github.com/aman1195/helium/agent"
)

// CapabilityType classifies what an agent can be asked to do.
type CapabilityType string

const (
	CapabilityTask   CapabilityType = "task"   // synchronous or async task execution
	CapabilityQuery  CapabilityType = "query"  // answer a question without side effects
	CapabilityStream CapabilityType = "stream" // stream results over websocket
)

// Capability describes one operation an agent exposes.
type Capability struct {
	Type        CapabilityType `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
}

// AgentCard is the discovery document an agent publishes. Peers fetch
// it from /.well-known/agent.json or /a2a/agents/{id}/card.
type AgentCard struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	URL          string            `json:"url"`
	Version      string            `json:"version"`
	Capabilities []Capability      `json:"capabilities,omitempty"`
	Skills       []string          `json:"skills,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Validate checks the required card fields.
func (c *AgentCard) Validate() error {
	if c.Name == "" {
		return ErrCardMissingName
	}
	if c.URL == "" {
		return ErrCardMissingURL
	}
	if c.Version == "" {
		return ErrCardMissingVersion
	}
	return nil
}

// CardFromAgent derives a discovery card from a local agent. The card
// advertises task and stream capabilities plus the agent's own skills.
func CardFromAgent(a agent.Agent, baseURL, version string) *AgentCard {
	return &AgentCard{
		Name:        a.Name(),
		Description: a.Role(),
		URL:         baseURL,
		Version:     version,
		Capabilities: []Capability{
			{Type: CapabilityTask, Name: "execute", Description: "execute a task and return the result"},
			{Type: CapabilityStream, Name: "stream", Description: "stream task results over websocket"},
		},
		Skills: a.Capabilities(),
		Metadata: map[string]string{
			"agent_id": a.ID(),
			"role":     a.Role(),
		},
	}
}
