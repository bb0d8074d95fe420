package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InMemoryConfig configures the in-process memory store.
type InMemoryConfig struct {
	// MaxEntries caps records per agent; oldest are evicted first.
	// 0 means unlimited.
	MaxEntries int

	// TTL expires records after this duration. 0 keeps them until evicted.
	TTL time.Duration

	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// InMemoryStore keeps agent memory in process, insertion-ordered per agent.
// Suitable for local development, tests, and single-node deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	byAgent map[string][]*Record

	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewInMemoryStore creates an in-process memory store.
func NewInMemoryStore(cfg InMemoryConfig, logger *zap.Logger) *InMemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &InMemoryStore{
		byAgent:    make(map[string][]*Record),
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		now:        now,
		logger:     logger.With(zap.String("component", "memory_store_inmemory")),
	}
}

// Save appends a record to the agent's memory.
func (s *InMemoryStore) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareRecord(rec, s.now()); err != nil {
		return err
	}
	if s.ttl > 0 && rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = rec.CreatedAt.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.byAgent[rec.AgentID], rec)
	records = dropExpired(records, s.now())
	// Evict oldest first; the record just appended is never dropped.
	if s.maxEntries > 0 && len(records) > s.maxEntries {
		records = records[len(records)-s.maxEntries:]
	}
	s.byAgent[rec.AgentID] = records

	return nil
}

// Recent returns up to limit records for the agent, newest first.
func (s *InMemoryStore) Recent(ctx context.Context, agentID string, limit int) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := liveRecords(s.byAgent[agentID], s.now())
	return newestFirst(records, limit), nil
}

// Search returns records whose content contains query, case-insensitively.
func (s *InMemoryStore) Search(ctx context.Context, agentID, query string, limit int) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var matched []*Record
	for _, rec := range liveRecords(s.byAgent[agentID], s.now()) {
		if strings.Contains(strings.ToLower(rec.Content), needle) {
			matched = append(matched, rec)
		}
	}
	return newestFirst(matched, limit), nil
}

// Count returns the number of live records for the agent.
func (s *InMemoryStore) Count(ctx context.Context, agentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(liveRecords(s.byAgent[agentID], s.now())), nil
}

// Clear removes all records for the agent.
func (s *InMemoryStore) Clear(ctx context.Context, agentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byAgent, agentID)
	return nil
}

// Close implements Store. The in-process store holds no resources.
func (s *InMemoryStore) Close() error {
	return nil
}

// prepareRecord validates and fills in defaults.
func prepareRecord(rec *Record, now time.Time) error {
	if rec == nil {
		return errNilRecord
	}
	if rec.AgentID == "" {
		return errMissingAgentID
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	return nil
}

// dropExpired removes expired records in place, preserving order.
func dropExpired(records []*Record, now time.Time) []*Record {
	live := records[:0]
	for _, rec := range records {
		if rec.ExpiresAt.IsZero() || rec.ExpiresAt.After(now) {
			live = append(live, rec)
		}
	}
	return live
}

// liveRecords returns the non-expired subset without mutating the slice.
func liveRecords(records []*Record, now time.Time) []*Record {
	live := make([]*Record, 0, len(records))
	for _, rec := range records {
		if rec.ExpiresAt.IsZero() || rec.ExpiresAt.After(now) {
			live = append(live, rec)
		}
	}
	return live
}

// newestFirst reverses insertion order and applies the limit.
func newestFirst(records []*Record, limit int) []*Record {
	out := make([]*Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
