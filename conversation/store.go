// Package conversation persists per-session chat history so follow-up
// research requests can see earlier turns.
package conversation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/database"
	"github.com/aman1195/helium/types"
)

const (
	// DefaultRingSize is the maximum number of messages retained per
	// session; the oldest are dropped first.
	DefaultRingSize = 50

	// DefaultHistoryLimit is the number of messages History returns
	// when the caller passes limit <= 0.
	DefaultHistoryLimit = 20
)

// Store records conversation turns keyed by session ID.
type Store interface {
	// Append adds a message to the end of a session's history.
	Append(ctx context.Context, sessionID string, msg types.Message) error

	// History returns up to limit of the newest messages in
	// chronological order. limit <= 0 uses DefaultHistoryLimit.
	History(ctx context.Context, sessionID string, limit int) ([]types.Message, error)

	// Sessions lists the known session IDs.
	Sessions(ctx context.Context) ([]string, error)

	// Clear removes a session's history.
	Clear(ctx context.Context, sessionID string) error

	// Close releases backing resources.
	Close() error
}

// New creates a conversation store for the configured backend.
func New(cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory", "redis":
		// The redis task backend has no conversation counterpart;
		// history is small and session-scoped, so it stays in memory.
		return NewMemoryStore(), nil
	case "database":
		db, err := database.Open(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open conversation database: %w", err)
		}
		return NewDBStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}

// clampLimit applies the default and caps the requested history size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > DefaultRingSize {
		return DefaultRingSize
	}
	return limit
}
