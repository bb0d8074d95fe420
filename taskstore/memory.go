package taskstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryConfig configures the in-process task store.
type MemoryConfig struct {
	// Now overrides the clock in tests.
	Now func() time.Time
}

// MemoryStore keeps tasks in a mutex-guarded map. Default backend for
// development and single-node deployments without persistence needs.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task

	now    func() time.Time
	logger *zap.Logger
}

// NewMemoryStore creates an in-process task store.
func NewMemoryStore(cfg MemoryConfig, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		tasks:  make(map[string]*Task),
		now:    now,
		logger: logger.With(zap.String("component", "task_store_memory")),
	}
}

// SaveTask creates or replaces a task.
func (s *MemoryStore) SaveTask(ctx context.Context, task *Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if task == nil {
		return ErrInvalidTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	clone := *task
	s.tasks[task.ID] = &clone
	return nil
}

// GetTask returns a task by ID.
func (s *MemoryStore) GetTask(ctx context.Context, id string) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (s *MemoryStore) ListTasks(ctx context.Context, filter Filter) ([]*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Task, 0)
	for _, task := range s.tasks {
		if filter.matches(task) {
			clone := *task
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return page(matched, filter.Offset, filter.Limit), nil
}

// UpdateStatus transitions a task's lifecycle state.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status, result any, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !status.Valid() {
		return ErrInvalidTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return ErrTaskFinished
	}

	now := s.now().UTC()
	applyTransition(task, status, result, errMsg, now)
	return nil
}

// DeleteTask removes a task.
func (s *MemoryStore) DeleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// RecoverableTasks returns pending and running tasks, oldest first.
func (s *MemoryStore) RecoverableTasks(ctx context.Context) ([]*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Task, 0)
	for _, task := range s.tasks {
		if task.Status.IsRecoverable() {
			clone := *task
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Cleanup deletes terminal tasks older than the duration.
func (s *MemoryStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for id, task := range s.tasks {
		if task.Status.IsTerminal() && task.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("cleaned up terminal tasks", zap.Int("removed", removed))
	}
	return removed, nil
}

// Stats summarizes the store contents.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByStatus: make(map[Status]int)}
	for _, task := range s.tasks {
		stats.Total++
		stats.ByStatus[task.Status]++
	}
	return stats, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// applyTransition mutates a task for the given status change.
func applyTransition(task *Task, status Status, result any, errMsg string, now time.Time) {
	task.Status = status
	task.UpdatedAt = now

	switch status {
	case StatusRunning:
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
	case StatusCompleted:
		task.Result = result
		task.Progress = 100
		task.CompletedAt = &now
	case StatusFailed:
		task.Error = errMsg
		task.CompletedAt = &now
	case StatusCancelled:
		task.CompletedAt = &now
	}
}

// page applies offset and limit to a slice.
func page(tasks []*Task, offset, limit int) []*Task {
	if offset >= len(tasks) {
		return []*Task{}
	}
	tasks = tasks[offset:]
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks
}
