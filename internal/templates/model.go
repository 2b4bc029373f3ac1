// Package templates mirrors the tenant's approved WhatsApp message
// templates into local storage so send surfaces can offer them without
// querying the provider.
package templates

import "time"

// TypeWhatsApp marks templates synchronized from the WhatsApp Business catalog.
const TypeWhatsApp = "whatsapp"

// DefaultCategory is used when the provider sends no category.
const DefaultCategory = "custom"

// Template is a locally mirrored message template.
type Template struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Active    bool      `json:"active"`
	Category  string    `json:"category"`
	Language  string    `json:"language"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
