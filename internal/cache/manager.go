// Package cache provides the shared Redis-backed result cache.
// This package is internal and should not be imported by external projects.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
)

// ErrCacheMiss is returned when a key is not present.
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Manager wraps a Redis client with JSON helpers and a health check loop.
// Collected search results and retrieval query results are cached here.
type Manager struct {
	redis  *redis.Client
	cfg    config.CacheConfig
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewManager connects to Redis and starts the health check loop.
func NewManager(cfg config.CacheConfig, logger *zap.Logger) (*Manager, error) {
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

	m := &Manager{
		redis:  client,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "cache")),
		done:   make(chan struct{}),
	}

	go m.healthCheckLoop()

	m.logger.Info("cache manager initialized",
		zap.String("addr", cfg.Redis.Addr),
		zap.Duration("default_ttl", cfg.DefaultTTL),
	)

	return m, nil
}

// key applies the configured prefix.
func (m *Manager) key(k string) string {
	return m.cfg.Redis.KeyPrefix + k
}

// Get returns the raw cached value for key.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", fmt.Errorf("cache manager is closed")
	}

	val, err := m.redis.Get(ctx, m.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get failed: %w", err)
	}

	return val, nil
}

// Set stores value under key. A zero ttl uses the configured default.
func (m *Manager) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	if ttl == 0 {
		ttl = m.cfg.DefaultTTL
	}

	if err := m.redis.Set(ctx, m.key(key), value, ttl).Err(); err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// GetJSON fetches a cached value and unmarshals it into dest.
func (m *Manager) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return nil
}

// SetJSON marshals value and stores it under key.
func (m *Manager) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return m.Set(ctx, key, string(data), ttl)
}

// Delete removes keys from the cache.
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = m.key(k)
	}

	if err := m.redis.Del(ctx, prefixed...).Err(); err != nil {
		m.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}

	return nil
}

// Exists reports how many of the given keys are present.
func (m *Manager) Exists(ctx context.Context, keys ...string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, fmt.Errorf("cache manager is closed")
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = m.key(k)
	}

	count, err := m.redis.Exists(ctx, prefixed...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache exists check failed: %w", err)
	}

	return count, nil
}

// Ping checks the Redis connection.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	return m.redis.Ping(ctx).Err()
}

// Close shuts down the manager and the underlying client.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)
	m.logger.Info("closing cache manager")

	return m.redis.Close()
}

// healthCheckLoop pings Redis every 30 seconds until Close.
func (m *Manager) healthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := m.Ping(ctx); err != nil {
				m.logger.Error("cache health check failed", zap.Error(err))
			}
			cancel()
		}
	}
}
