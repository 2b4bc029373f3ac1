package activities

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Message delivery statuses, in rank order. Failed is terminal.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
)

// ErrEntryNotFound is returned when no index entry exists for a message ID.
var ErrEntryNotFound = errors.New("message index entry not found")

// IndexEntry maps one provider message ID to the activity it produced
// and tracks the delivery lifecycle of that message.
type IndexEntry struct {
	MessageID   string     `json:"message_id" dynamodbav:"messageId"`
	TenantID    string     `json:"tenant_id" dynamodbav:"tenantId"`
	LeadID      string     `json:"lead_id" dynamodbav:"leadId"`
	ActivityID  string     `json:"activity_id" dynamodbav:"activityId"`
	Status      string     `json:"status" dynamodbav:"status"`
	SentAt      time.Time  `json:"sent_at" dynamodbav:"sentAt"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" dynamodbav:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty" dynamodbav:"readAt,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty" dynamodbav:"failedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at" dynamodbav:"updatedAt"`
	ExpiresAt   int64      `json:"-" dynamodbav:"expiresAt,omitempty"`
}

// MessageIndex persists the message-ID-to-activity mapping. ApplyStatus
// reports whether the update advanced the entry; duplicates, downgrades,
// and updates after failed return false.
type MessageIndex interface {
	Put(ctx context.Context, entry IndexEntry) error
	Get(ctx context.Context, tenantID, messageID string) (*IndexEntry, error)
	ApplyStatus(ctx context.Context, tenantID, messageID, status string, at time.Time) (*IndexEntry, bool, error)
}

// statusRank orders delivery statuses. Unknown statuses rank zero and
// never advance an entry.
func statusRank(status string) int {
	switch status {
	case MessageStatusSent:
		return 1
	case MessageStatusDelivered:
		return 2
	case MessageStatusRead:
		return 3
	case MessageStatusFailed:
		return 4
	default:
		return 0
	}
}

// advance applies the status to the entry in place when it moves the
// lifecycle forward. The provider delivers receipts at least once and
// out of order; ranking makes application idempotent.
func advance(entry *IndexEntry, status string, at time.Time) bool {
	rank := statusRank(status)
	if rank == 0 {
		return false
	}
	if entry.Status == MessageStatusFailed {
		return false
	}
	if rank <= statusRank(entry.Status) {
		return false
	}

	entry.Status = status
	switch status {
	case MessageStatusDelivered:
		if entry.DeliveredAt == nil {
			t := at
			entry.DeliveredAt = &t
		}
	case MessageStatusRead:
		if entry.ReadAt == nil {
			t := at
			entry.ReadAt = &t
		}
	case MessageStatusFailed:
		if entry.FailedAt == nil {
			t := at
			entry.FailedAt = &t
		}
	}
	entry.UpdatedAt = at
	return true
}

// MemoryIndex keeps index entries in memory for local development and tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]*IndexEntry
}

// NewMemoryIndex creates a new in-memory message index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]*IndexEntry)}
}

func indexKey(tenantID, messageID string) string {
	return tenantID + "|" + messageID
}

// Put stores the entry, defaulting status to sent.
func (i *MemoryIndex) Put(ctx context.Context, entry IndexEntry) error {
	if entry.MessageID == "" || entry.TenantID == "" {
		return errors.New("activities: index entry requires tenant and message id")
	}
	if entry.Status == "" {
		entry.Status = MessageStatusSent
	}
	now := time.Now().UTC()
	if entry.SentAt.IsZero() {
		entry.SentAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	i.mu.Lock()
	i.entries[indexKey(entry.TenantID, entry.MessageID)] = &entry
	i.mu.Unlock()
	return nil
}

// Get returns the entry for the message ID scoped to the tenant.
func (i *MemoryIndex) Get(ctx context.Context, tenantID, messageID string) (*IndexEntry, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	entry, ok := i.entries[indexKey(tenantID, messageID)]
	if !ok {
		return nil, ErrEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

// ApplyStatus advances the entry's delivery status.
func (i *MemoryIndex) ApplyStatus(ctx context.Context, tenantID, messageID, status string, at time.Time) (*IndexEntry, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	entry, ok := i.entries[indexKey(tenantID, messageID)]
	if !ok {
		return nil, false, ErrEntryNotFound
	}
	changed := advance(entry, status, at)
	copied := *entry
	return &copied, changed, nil
}
