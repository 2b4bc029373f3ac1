package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/internal/whatsapp"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// templateLister is the provider surface the synchronizer needs.
type templateLister interface {
	ListTemplates(ctx context.Context, creds whatsapp.Credentials) ([]whatsapp.ProviderTemplate, error)
}

// Synchronizer reconciles the provider's template catalog into the
// tenant's local store. Templates are matched by case-insensitive name;
// one bad template never aborts the rest of the batch.
type Synchronizer struct {
	store  Store
	client templateLister
	creds  integrations.CredentialSource
	logger *logging.Logger
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(store Store, client templateLister, creds integrations.CredentialSource, logger *logging.Logger) *Synchronizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Synchronizer{store: store, client: client, creds: creds, logger: logger}
}

// Sync pulls the provider catalog and applies it to the tenant in the
// context. It returns the templates it created or updated; unchanged
// templates are left alone so repeated runs converge to a no-op.
func (s *Synchronizer) Sync(ctx context.Context, actorID string) ([]*Template, error) {
	tenantID, ok := tenancy.TenantIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("templates: sync requires tenant scope")
	}

	creds, err := s.creds.CredentialsForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("templates: resolve credentials: %w", err)
	}
	remote, err := s.client.ListTemplates(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("templates: list provider templates: %w", err)
	}

	existing, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("templates: list local templates: %w", err)
	}
	byName := make(map[string]*Template, len(existing))
	for _, tpl := range existing {
		byName[strings.ToLower(tpl.Name)] = tpl
	}

	var (
		synced  []*Template
		failed  []error
		created int
		updated int
	)
	for _, rt := range remote {
		if strings.TrimSpace(rt.Name) == "" {
			continue
		}
		local, exists := byName[strings.ToLower(rt.Name)]
		if !exists {
			tpl := &Template{
				TenantID:  tenantID,
				Name:      rt.Name,
				Content:   rt.BodyText(),
				Type:      TypeWhatsApp,
				Active:    providerActive(rt.Status),
				Category:  normalizeCategory(rt.Category),
				Language:  rt.LanguageCode(),
				CreatedBy: actorID,
			}
			if err := s.store.Create(ctx, tpl); err != nil {
				failed = append(failed, fmt.Errorf("create %q: %w", rt.Name, err))
				continue
			}
			byName[strings.ToLower(tpl.Name)] = tpl
			synced = append(synced, tpl)
			created++
			continue
		}

		next := *local
		next.Content = rt.BodyText()
		next.Active = providerActive(rt.Status)
		next.Category = normalizeCategory(rt.Category)
		next.Language = rt.LanguageCode()
		if next.Content == local.Content &&
			next.Active == local.Active &&
			next.Category == local.Category &&
			next.Language == local.Language {
			continue
		}
		if err := s.store.Update(ctx, &next); err != nil {
			failed = append(failed, fmt.Errorf("update %q: %w", rt.Name, err))
			continue
		}
		*local = next
		synced = append(synced, local)
		updated++
	}

	s.logger.Info("template sync finished",
		"tenant_id", tenantID,
		"remote", len(remote),
		"created", created,
		"updated", updated,
		"failed", len(failed))
	return synced, errors.Join(failed...)
}

// providerActive maps the catalog status to the local active flag. Only
// approved templates may be sent through the API.
func providerActive(status string) bool {
	return strings.EqualFold(status, "APPROVED")
}

func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return DefaultCategory
	}
	return category
}
