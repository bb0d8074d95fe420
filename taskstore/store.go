package taskstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/database"
)

// Store persists async tasks.
type Store interface {
	// SaveTask creates or replaces a task. Missing ID and timestamps
	// are filled in.
	SaveTask(ctx context.Context, task *Task) error

	// GetTask returns a task by ID, or ErrTaskNotFound.
	GetTask(ctx context.Context, id string) (*Task, error)

	// ListTasks returns tasks matching the filter, newest first.
	ListTasks(ctx context.Context, filter Filter) ([]*Task, error)

	// UpdateStatus transitions a task. Result is stored on completion,
	// errMsg on failure. Transitions out of a terminal state return
	// ErrTaskFinished.
	UpdateStatus(ctx context.Context, id string, status Status, result any, errMsg string) error

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error

	// RecoverableTasks returns pending and running tasks, oldest first.
	RecoverableTasks(ctx context.Context) ([]*Task, error)

	// Cleanup deletes terminal tasks older than the duration and
	// returns how many were removed.
	Cleanup(ctx context.Context, olderThan time.Duration) (int, error)

	// Stats summarizes the store contents.
	Stats(ctx context.Context) (*Stats, error)

	// Ping checks backend health.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// New builds the task store selected by cfg.Backend.
func New(cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(MemoryConfig{}, logger), nil
	case "redis":
		return NewRedisStore(cfg, logger)
	case "database":
		db, err := database.Open(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open task database: %w", err)
		}
		return NewDBStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (valid: memory, redis, database)", cfg.Backend)
	}
}
