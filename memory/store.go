// Package memory provides per-agent memory storage. Every agent records
// what it did (delegations, collected data, produced analyses) and can
// recall recent or matching records later. Two backends are provided:
// an in-process store for single-node deployments and a Redis store for
// distributed ones.
package memory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
)

// Record is a single memory entry belonging to one agent.
type Record struct {
	ID        string            `json:"id"`
	AgentID   string            `json:"agent_id"`
	Kind      string            `json:"kind"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
}

// Record kinds written by the team.
const (
	KindDelegation  = "delegation"
	KindTask        = "task"
	KindObservation = "observation"
)

// Store persists agent memory records.
type Store interface {
	// Save appends a record to the agent's memory. A missing ID or
	// timestamp is filled in.
	Save(ctx context.Context, rec *Record) error

	// Recent returns up to limit records for the agent, newest first.
	Recent(ctx context.Context, agentID string, limit int) ([]*Record, error)

	// Search returns up to limit records whose content contains query,
	// case-insensitively, newest first.
	Search(ctx context.Context, agentID, query string, limit int) ([]*Record, error)

	// Count returns the number of live records for the agent.
	Count(ctx context.Context, agentID string) (int, error)

	// Clear removes all records for the agent.
	Clear(ctx context.Context, agentID string) error

	// Close releases any underlying resources.
	Close() error
}

// NewStore builds the memory store selected by cfg.Backend.
func NewStore(cfg config.MemoryConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewInMemoryStore(InMemoryConfig{
			MaxEntries: cfg.MaxEntries,
			TTL:        cfg.TTL,
		}, logger), nil
	case "redis":
		return NewRedisStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown memory backend: %q (valid: memory, redis)", cfg.Backend)
	}
}
