package conversation

import (
	"context"
	"sort"
	"sync"

	"github.com/aman1195/helium/types"
)

// MemoryStore keeps each session's history in a bounded in-process
// ring. Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]types.Message
	ringSize int
}

// NewMemoryStore creates an in-memory conversation store with the
// default ring size.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]types.Message),
		ringSize: DefaultRingSize,
	}
}

// Append adds a message, dropping the oldest once the ring is full.
func (s *MemoryStore) Append(_ context.Context, sessionID string, msg types.Message) error {
	if sessionID == "" {
		return errMissingSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ring := append(s.sessions[sessionID], msg)
	if len(ring) > s.ringSize {
		ring = ring[len(ring)-s.ringSize:]
	}
	s.sessions[sessionID] = ring
	return nil
}

// History returns the newest messages in chronological order.
func (s *MemoryStore) History(_ context.Context, sessionID string, limit int) ([]types.Message, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ring := s.sessions[sessionID]
	if len(ring) > limit {
		ring = ring[len(ring)-limit:]
	}

	out := make([]types.Message, len(ring))
	copy(out, ring)
	return out, nil
}

// Sessions lists the known session IDs, sorted for stable output.
func (s *MemoryStore) Sessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Clear removes a session's history.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
