package templates

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTemplateNotFound is returned when a template is not found.
var ErrTemplateNotFound = errors.New("template not found")

// Store defines the interface for template storage.
type Store interface {
	ListByTenant(ctx context.Context, tenantID string) ([]*Template, error)
	Create(ctx context.Context, tpl *Template) error
	Update(ctx context.Context, tpl *Template) error
}

// MemoryStore keeps templates in memory for local development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]*Template
	order     []string
}

// NewMemoryStore creates a new in-memory template store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]*Template)}
}

// Create stores a new template, assigning ID and timestamps when unset.
func (s *MemoryStore) Create(ctx context.Context, tpl *Template) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	if tpl.UpdatedAt.IsZero() {
		tpl.UpdatedAt = now
	}

	s.mu.Lock()
	copied := *tpl
	s.templates[tpl.ID] = &copied
	s.order = append(s.order, tpl.ID)
	s.mu.Unlock()
	return nil
}

// Update replaces the stored template and bumps UpdatedAt.
func (s *MemoryStore) Update(ctx context.Context, tpl *Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.templates[tpl.ID]
	if !ok || existing.TenantID != tpl.TenantID {
		return ErrTemplateNotFound
	}
	tpl.UpdatedAt = time.Now().UTC()
	copied := *tpl
	copied.CreatedAt = existing.CreatedAt
	s.templates[tpl.ID] = &copied
	return nil
}

// ListByTenant returns the tenant's templates in creation order.
func (s *MemoryStore) ListByTenant(ctx context.Context, tenantID string) ([]*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Template, 0, len(s.order))
	for _, id := range s.order {
		tpl, ok := s.templates[id]
		if !ok || tpl.TenantID != tenantID {
			continue
		}
		copied := *tpl
		out = append(out, &copied)
	}
	return out, nil
}
