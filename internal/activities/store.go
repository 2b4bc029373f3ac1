package activities

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrActivityNotFound is returned when an activity is not found.
var ErrActivityNotFound = errors.New("activity not found")

// Store defines the interface for activity storage.
type Store interface {
	Create(ctx context.Context, activity *Activity) error
	ListByLead(ctx context.Context, tenantID, leadID string) ([]*Activity, error)
}

// MemoryStore keeps activities in memory for local development and tests.
// ListByLead returns activities in creation order.
type MemoryStore struct {
	mu         sync.RWMutex
	activities []*Activity
}

// NewMemoryStore creates a new in-memory activity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create appends an activity, assigning ID and CreatedAt when unset.
func (s *MemoryStore) Create(ctx context.Context, activity *Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	copied := *activity
	s.activities = append(s.activities, &copied)
	s.mu.Unlock()
	return nil
}

// ListByLead returns the lead's activities in creation order.
func (s *MemoryStore) ListByLead(ctx context.Context, tenantID, leadID string) ([]*Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Activity
	for _, activity := range s.activities {
		if activity.TenantID != tenantID || activity.LeadID != leadID {
			continue
		}
		copied := *activity
		out = append(out, &copied)
	}
	return out, nil
}
