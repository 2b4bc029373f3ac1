package leads

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for lead storage.
type Store interface {
	ListByTenant(ctx context.Context, tenantID string) ([]*Lead, error)
	Get(ctx context.Context, tenantID, id string) (*Lead, error)
	Create(ctx context.Context, lead *Lead) error
	UpdateStatus(ctx context.Context, tenantID, id, status string) error
}

// MemoryStore keeps leads in memory for local development and tests.
// ListByTenant returns leads in creation order.
type MemoryStore struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	order []string
}

// NewMemoryStore creates a new in-memory lead store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[string]*Lead)}
}

// Create stores a new lead, assigning an ID and timestamps when unset.
func (s *MemoryStore) Create(ctx context.Context, lead *Lead) error {
	if strings.TrimSpace(lead.TenantID) == "" {
		return ErrMissingTenant
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = now
	}

	s.mu.Lock()
	copied := *lead
	s.leads[lead.ID] = &copied
	s.order = append(s.order, lead.ID)
	s.mu.Unlock()
	return nil
}

// ListByTenant returns the tenant's leads in creation order.
func (s *MemoryStore) ListByTenant(ctx context.Context, tenantID string) ([]*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Lead, 0, len(s.order))
	for _, id := range s.order {
		lead, ok := s.leads[id]
		if !ok || lead.TenantID != tenantID {
			continue
		}
		copied := *lead
		out = append(out, &copied)
	}
	return out, nil
}

// Get retrieves a lead by ID scoped to the tenant.
func (s *MemoryStore) Get(ctx context.Context, tenantID, id string) (*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[id]
	if !ok || lead.TenantID != tenantID {
		return nil, ErrLeadNotFound
	}
	copied := *lead
	return &copied, nil
}

// UpdateStatus sets the lead's status and bumps UpdatedAt.
func (s *MemoryStore) UpdateStatus(ctx context.Context, tenantID, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok || lead.TenantID != tenantID {
		return ErrLeadNotFound
	}
	lead.Status = status
	lead.UpdatedAt = time.Now().UTC()
	return nil
}
