package leads

import "time"

// Lead statuses that participate in the messaging workflow. Inbound
// WhatsApp traffic moves a lead from new/unread to contacted exactly once.
const (
	StatusNew       = "new"
	StatusUnread    = "unread"
	StatusContacted = "contacted"
)

// SourceWhatsAppInbound marks leads auto-created from an unseen WhatsApp sender.
const SourceWhatsAppInbound = "whatsapp_inbound"

// Lead represents a prospect in the tenant's pipeline.
type Lead struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	AssignedUserID string    `json:"assigned_user_id,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
