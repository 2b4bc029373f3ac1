package notify

import (
	"context"
	"time"
)

// TypeMessage marks notifications triggered by inbound or outbound
// conversation activity on an assigned lead.
const TypeMessage = "message"

// Notification is an in-app alert for one user.
type Notification struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	LeadID    string    `json:"lead_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives notifications produced by the messaging pipeline.
// Implementations must tolerate being called on hot paths; delivery
// failures are the sink's to log, not the caller's to retry.
type Sink interface {
	CreateNotification(ctx context.Context, n Notification) error
}
