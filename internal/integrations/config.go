// Package integrations holds per-tenant settings for external messaging
// providers and resolves the credentials API calls are made with.
package integrations

import (
	"errors"
	"strings"

	"github.com/leadwire/leadwire-platform/internal/whatsapp"
)

// ErrNotConfigured is returned when a tenant has no usable WhatsApp
// credentials and no environment fallback exists.
var ErrNotConfigured = errors.New("integrations: whatsapp is not configured for tenant")

// Config holds one tenant's WhatsApp Business integration settings.
// Zero-valued fields fall back to the deployment-level environment
// credentials.
type Config struct {
	TenantID          string `json:"tenant_id"`
	AccessToken       string `json:"access_token,omitempty"`
	PhoneNumberID     string `json:"phone_number_id,omitempty"`
	BusinessAccountID string `json:"business_account_id,omitempty"`
	VerifyToken       string `json:"verify_token,omitempty"`
	NotificationEmail string `json:"notification_email,omitempty"`
}

// Credentials converts the stored settings into provider credentials,
// filling gaps from the fallback.
func (c *Config) Credentials(fallback whatsapp.Credentials) whatsapp.Credentials {
	creds := fallback
	if c == nil {
		return creds
	}
	if strings.TrimSpace(c.AccessToken) != "" {
		creds.AccessToken = c.AccessToken
	}
	if strings.TrimSpace(c.PhoneNumberID) != "" {
		creds.PhoneNumberID = c.PhoneNumberID
	}
	if strings.TrimSpace(c.BusinessAccountID) != "" {
		creds.BusinessAccountID = c.BusinessAccountID
	}
	return creds
}

// Configured reports whether the tenant carries its own token and number.
func (c *Config) Configured() bool {
	return c != nil &&
		strings.TrimSpace(c.AccessToken) != "" &&
		strings.TrimSpace(c.PhoneNumberID) != ""
}
