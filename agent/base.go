package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/memory"
	"github.com/aman1195/helium/types"
)

// BaseAgent carries the identity, logger, memory, and clock every team
// member shares. Concrete agents embed it and implement Process.
type BaseAgent struct {
	id           string
	name         string
	role         string
	capabilities []string

	memory memory.Store
	logger *zap.Logger
	clock  func() time.Time
}

// BaseConfig configures a BaseAgent.
type BaseConfig struct {
	ID           string
	Name         string
	Role         string
	Capabilities []string

	// Memory is optional; agents without one simply do not remember.
	Memory memory.Store

	Logger *zap.Logger

	// Clock overrides the time source in tests.
	Clock func() time.Time
}

// NewBaseAgent creates the shared agent core.
func NewBaseAgent(cfg BaseConfig) *BaseAgent {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &BaseAgent{
		id:           cfg.ID,
		name:         cfg.Name,
		role:         cfg.Role,
		capabilities: cfg.Capabilities,
		memory:       cfg.Memory,
		logger:       logger.With(zap.String("agent_id", cfg.ID)),
		clock:        clock,
	}
}

// ID returns the agent identifier.
func (b *BaseAgent) ID() string { return b.id }

// Name returns the display name.
func (b *BaseAgent) Name() string { return b.name }

// Role returns the agent's specialty.
func (b *BaseAgent) Role() string { return b.role }

// Capabilities returns what the agent can be asked to do.
func (b *BaseAgent) Capabilities() []string {
	out := make([]string, len(b.capabilities))
	copy(out, b.capabilities)
	return out
}

// Logger returns the agent-scoped logger.
func (b *BaseAgent) Logger() *zap.Logger { return b.logger }

// Now returns the agent's current time.
func (b *BaseAgent) Now() time.Time { return b.clock() }

// Remember writes a record to the agent's memory. Nil-safe: agents
// without a memory store silently skip.
func (b *BaseAgent) Remember(ctx context.Context, kind, content string, metadata map[string]string) {
	if b.memory == nil {
		return
	}
	rec := &memory.Record{
		AgentID:  b.id,
		Kind:     kind,
		Content:  content,
		Metadata: metadata,
	}
	if err := b.memory.Save(ctx, rec); err != nil {
		b.logger.Warn("failed to save memory record", zap.Error(err))
	}
}

// RecallMemory searches the agent's memory. Nil-safe.
func (b *BaseAgent) RecallMemory(ctx context.Context, query string, limit int) []*memory.Record {
	if b.memory == nil {
		return nil
	}
	records, err := b.memory.Search(ctx, b.id, query, limit)
	if err != nil {
		b.logger.Warn("failed to search memory", zap.Error(err))
		return nil
	}
	return records
}

// RecentMemory returns the agent's newest records. Nil-safe.
func (b *BaseAgent) RecentMemory(ctx context.Context, limit int) []*memory.Record {
	if b.memory == nil {
		return nil
	}
	records, err := b.memory.Recent(ctx, b.id, limit)
	if err != nil {
		b.logger.Warn("failed to load memory", zap.Error(err))
		return nil
	}
	return records
}

// ValidateTask applies the checks every agent performs before work:
// context liveness and non-empty content.
func (b *BaseAgent) ValidateTask(ctx context.Context, task *Task) error {
	if err := ctx.Err(); err != nil {
		return types.NewError(types.ErrCancelled, "task cancelled before processing").WithCause(err)
	}
	if task == nil || task.Content == "" {
		return types.NewError(types.ErrInvalidInput, "task content is required")
	}
	return nil
}

// NewResponse builds a success response attributed to this agent.
func (b *BaseAgent) NewResponse(task *Task, content string, data map[string]any) *Response {
	return &Response{
		TaskID:    task.ID,
		AgentID:   b.id,
		AgentName: b.name,
		Success:   true,
		Content:   content,
		Data:      data,
		CreatedAt: b.clock().UTC(),
	}
}
