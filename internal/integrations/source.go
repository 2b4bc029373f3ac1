package integrations

import (
	"context"

	"github.com/leadwire/leadwire-platform/internal/whatsapp"
)

// CredentialSource resolves the WhatsApp credentials a tenant's API
// calls are made with.
type CredentialSource interface {
	CredentialsForTenant(ctx context.Context, tenantID string) (whatsapp.Credentials, error)
}

// EnvSource serves the deployment-level environment credentials to every
// tenant. It backs single-tenant installs and local development.
type EnvSource struct {
	creds whatsapp.Credentials
}

// NewEnvSource wraps fixed credentials as a source.
func NewEnvSource(creds whatsapp.Credentials) *EnvSource {
	return &EnvSource{creds: creds}
}

// CredentialsForTenant returns the environment credentials regardless of tenant.
func (s *EnvSource) CredentialsForTenant(ctx context.Context, tenantID string) (whatsapp.Credentials, error) {
	if s.creds.AccessToken == "" || s.creds.PhoneNumberID == "" {
		return whatsapp.Credentials{}, ErrNotConfigured
	}
	return s.creds, nil
}
