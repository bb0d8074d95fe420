package taskstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
)

// RedisStore keeps each task as a JSON value with sorted-set indexes
// per status, keyed by creation time. Suitable for distributed
// deployments.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisStore connects to Redis and returns a task store.
func NewRedisStore(cfg config.StoreConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Redis.KeyPrefix
	if prefix == "" {
		prefix = "helium:"
	}

	return &RedisStore{
		client:    client,
		keyPrefix: prefix + "task:",
		logger:    logger.With(zap.String("component", "task_store_redis")),
	}, nil
}

func (s *RedisStore) taskKey(id string) string   { return s.keyPrefix + "data:" + id }
func (s *RedisStore) statusKey(st Status) string { return s.keyPrefix + "status:" + string(st) }
func (s *RedisStore) allKey() string             { return s.keyPrefix + "all" }

// allStatuses enumerates the status index keys.
var allStatuses = []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled}

// SaveTask creates or replaces a task and maintains the indexes.
func (s *RedisStore) SaveTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrInvalidTask
	}

	now := time.Now().UTC()
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

	// Old copy needed to clear a stale status index entry.
	old, _ := s.GetTask(ctx, task.ID)

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	score := float64(task.CreatedAt.UnixNano())
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.taskKey(task.ID), data, 0)
	if old != nil && old.Status != task.Status {
		pipe.ZRem(ctx, s.statusKey(old.Status), task.ID)
	}
	pipe.ZAdd(ctx, s.statusKey(task.Status), redis.Z{Score: score, Member: task.ID})
	pipe.ZAdd(ctx, s.allKey(), redis.Z{Score: score, Member: task.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// GetTask returns a task by ID.
func (s *RedisStore) GetTask(ctx context.Context, id string) (*Task, error) {
	data, err := s.client.Get(ctx, s.taskKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (s *RedisStore) ListTasks(ctx context.Context, filter Filter) ([]*Task, error) {
	ids, err := s.client.ZRevRange(ctx, s.allKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list task ids: %w", err)
	}

	matched := make([]*Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.GetTask(ctx, id)
		if err != nil {
			continue // index may briefly outlive the value
		}
		if filter.matches(task) {
			matched = append(matched, task)
		}
	}
	return page(matched, filter.Offset, filter.Limit), nil
}

// UpdateStatus transitions a task's lifecycle state.
func (s *RedisStore) UpdateStatus(ctx context.Context, id string, status Status, result any, errMsg string) error {
	if !status.Valid() {
		return ErrInvalidTask
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Status.IsTerminal() {
		return ErrTaskFinished
	}

	applyTransition(task, status, result, errMsg, time.Now().UTC())
	return s.SaveTask(ctx, task)
}

// DeleteTask removes a task and its index entries.
func (s *RedisStore) DeleteTask(ctx context.Context, id string) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.taskKey(id))
	pipe.ZRem(ctx, s.statusKey(task.Status), id)
	pipe.ZRem(ctx, s.allKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// RecoverableTasks returns pending and running tasks, oldest first.
func (s *RedisStore) RecoverableTasks(ctx context.Context) ([]*Task, error) {
	out := make([]*Task, 0)
	for _, status := range []Status{StatusPending, StatusRunning} {
		ids, err := s.client.ZRange(ctx, s.statusKey(status), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list recoverable tasks: %w", err)
		}
		for _, id := range ids {
			task, err := s.GetTask(ctx, id)
			if err != nil {
				continue
			}
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Cleanup deletes terminal tasks older than the duration.
func (s *RedisStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, status := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		ids, err := s.client.ZRange(ctx, s.statusKey(status), 0, -1).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan for cleanup: %w", err)
		}
		for _, id := range ids {
			task, err := s.GetTask(ctx, id)
			if err != nil {
				continue
			}
			if task.UpdatedAt.Before(cutoff) {
				if err := s.DeleteTask(ctx, id); err == nil {
					removed++
				}
			}
		}
	}
	if removed > 0 {
		s.logger.Debug("cleaned up terminal tasks", zap.Int("removed", removed))
	}
	return removed, nil
}

// Stats summarizes the store contents.
func (s *RedisStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[Status]int)}
	for _, status := range allStatuses {
		n, err := s.client.ZCard(ctx, s.statusKey(status)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read stats: %w", err)
		}
		if n > 0 {
			stats.ByStatus[status] = int(n)
		}
		stats.Total += int(n)
	}
	return stats, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
