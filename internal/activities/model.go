// Package activities maintains the canonical per-lead activity log every
// conversation surface reads from, and the message index that maps
// provider message IDs back to activities for delivery receipts.
package activities

import "time"

// Direction of an activity relative to the lead.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
	DirectionInternal = "internal"
)

// Activity types recorded by the messaging pipeline.
const (
	TypeWhatsApp     = "whatsapp"
	TypeStatusChange = "status_change"
)

// TriggerIncomingMessage labels status changes caused by an inbound message.
const TriggerIncomingMessage = "incoming_message"

// Metadata carries provider context alongside an activity.
type Metadata struct {
	MessageID   string `json:"message_id,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	ContactName string `json:"contact_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	MessageType string `json:"message_type,omitempty"`
	OldStatus   string `json:"old_status,omitempty"`
	NewStatus   string `json:"new_status,omitempty"`
	Trigger     string `json:"trigger,omitempty"`
}

// Attachment references provider-hosted media carried by a message.
type Attachment struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Caption string `json:"caption,omitempty"`
}

// Activity is one entry in a lead's timeline.
type Activity struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	LeadID      string       `json:"lead_id"`
	UserID      string       `json:"user_id,omitempty"`
	Type        string       `json:"type"`
	Direction   string       `json:"direction"`
	Content     string       `json:"content"`
	Metadata    Metadata     `json:"metadata,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
