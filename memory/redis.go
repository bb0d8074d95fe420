package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
)

// RedisStore keeps agent memory in a Redis list per agent, newest at the
// head. Suitable for distributed deployments where several service
// instances share one team identity.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	maxEntries int
	ttl        time.Duration
	logger     *zap.Logger
}

// NewRedisStore connects to Redis and returns a memory store.
func NewRedisStore(cfg config.MemoryConfig, logger *zap.Logger) (*RedisStore, error) {
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
		client:     client,
		keyPrefix:  prefix + "memory:",
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		logger:     logger.With(zap.String("component", "memory_store_redis")),
	}, nil
}

// agentKey returns the Redis list key for one agent's memory.
func (s *RedisStore) agentKey(agentID string) string {
	return s.keyPrefix + agentID
}

// Save pushes a record to the head of the agent's list and trims to
// MaxEntries. The whole list shares one TTL refreshed on every save.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if err := prepareRecord(rec, time.Now()); err != nil {
		return err
	}
	if s.ttl > 0 && rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = rec.CreatedAt.Add(s.ttl)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal memory record: %w", err)
	}

	key := s.agentKey(rec.AgentID)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, data)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.maxEntries)-1)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("memory save failed", zap.String("agent_id", rec.AgentID), zap.Error(err))
		return fmt.Errorf("failed to save memory record: %w", err)
	}

	return nil
}

// Recent returns up to limit records for the agent, newest first.
func (s *RedisStore) Recent(ctx context.Context, agentID string, limit int) ([]*Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := s.client.LRange(ctx, s.agentKey(agentID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load memory records: %w", err)
	}

	return s.decode(raw), nil
}

// Search scans the agent's list and returns records whose content
// contains query, case-insensitively, newest first.
func (s *RedisStore) Search(ctx context.Context, agentID, query string, limit int) ([]*Record, error) {
	raw, err := s.client.LRange(ctx, s.agentKey(agentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load memory records: %w", err)
	}

	needle := strings.ToLower(query)
	var matched []*Record
	for _, rec := range s.decode(raw) {
		if strings.Contains(strings.ToLower(rec.Content), needle) {
			matched = append(matched, rec)
			if limit > 0 && len(matched) == limit {
				break
			}
		}
	}
	return matched, nil
}

// Count returns the number of records for the agent.
func (s *RedisStore) Count(ctx context.Context, agentID string) (int, error) {
	n, err := s.client.LLen(ctx, s.agentKey(agentID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count memory records: %w", err)
	}
	return int(n), nil
}

// Clear removes all records for the agent.
func (s *RedisStore) Clear(ctx context.Context, agentID string) error {
	if err := s.client.Del(ctx, s.agentKey(agentID)).Err(); err != nil {
		return fmt.Errorf("failed to clear memory: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// decode unmarshals raw list entries, skipping corrupt ones.
func (s *RedisStore) decode(raw []string) []*Record {
	records := make([]*Record, 0, len(raw))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			s.logger.Warn("skipping corrupt memory record", zap.Error(err))
			continue
		}
		records = append(records, &rec)
	}
	return records
}
