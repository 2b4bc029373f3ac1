package events

import (
	"context"
	"sync"
)

// MemoryProcessedStore keeps seen event ids in memory. Dedup resets on
// restart, which is acceptable for local development; production runs
// use the Postgres store.
type MemoryProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryProcessedStore creates a new in-memory tracker.
func NewMemoryProcessedStore() *MemoryProcessedStore {
	return &MemoryProcessedStore{seen: make(map[string]struct{})}
}

// AlreadyProcessed checks if we've seen this provider event id.
func (s *MemoryProcessedStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[provider+"|"+eventID]
	return ok, nil
}

// MarkProcessed records the event id, returning false if it already existed.
func (s *MemoryProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := provider + "|" + eventID
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

// Ensure interface compliance
var _ Tracker = (*MemoryProcessedStore)(nil)
