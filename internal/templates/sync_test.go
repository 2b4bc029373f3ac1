package templates

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/internal/whatsapp"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

type fakeLister struct {
	templates []whatsapp.ProviderTemplate
	err       error
}

func (f *fakeLister) ListTemplates(ctx context.Context, creds whatsapp.Credentials) ([]whatsapp.ProviderTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.templates, nil
}

type countingStore struct {
	Store
	creates    int
	updates    int
	failCreate string
}

func (c *countingStore) Create(ctx context.Context, tpl *Template) error {
	if c.failCreate != "" && strings.EqualFold(tpl.Name, c.failCreate) {
		return errors.New("storage full")
	}
	c.creates++
	return c.Store.Create(ctx, tpl)
}

func (c *countingStore) Update(ctx context.Context, tpl *Template) error {
	c.updates++
	return c.Store.Update(ctx, tpl)
}

func bodyComponent(text string) whatsapp.ProviderTemplateComponent {
	return whatsapp.ProviderTemplateComponent{Type: "BODY", Text: text}
}

func testSyncer(store Store, lister *fakeLister) *Synchronizer {
	source := integrations.NewEnvSource(whatsapp.Credentials{AccessToken: "token", PhoneNumberID: "10500"})
	return NewSynchronizer(store, lister, source, logging.New("error"))
}

func syncContext() context.Context {
	return tenancy.WithTenantID(context.Background(), "tenant-a")
}

func TestSyncCreatesMissingTemplates(t *testing.T) {
	lister := &fakeLister{templates: []whatsapp.ProviderTemplate{
		{Name: "welcome_offer", Status: "APPROVED", Category: "MARKETING", Language: "en_US", Components: []whatsapp.ProviderTemplateComponent{bodyComponent("Hi {{1}}, welcome!")}},
		{Name: "followup", Status: "PENDING", Components: []whatsapp.ProviderTemplateComponent{bodyComponent("Just checking in")}},
	}}
	store := NewMemoryStore()
	syncer := testSyncer(store, lister)

	synced, err := syncer.Sync(syncContext(), "user-7")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(synced) != 2 {
		t.Fatalf("expected 2 synced templates, got %d", len(synced))
	}

	all, _ := store.ListByTenant(context.Background(), "tenant-a")
	if len(all) != 2 {
		t.Fatalf("expected 2 stored templates, got %d", len(all))
	}
	welcome := all[0]
	if welcome.Name != "welcome_offer" || !welcome.Active {
		t.Fatalf("unexpected welcome template: %+v", welcome)
	}
	if welcome.Category != "marketing" || welcome.Language != "en_US" {
		t.Fatalf("category/language = %q/%q", welcome.Category, welcome.Language)
	}
	if welcome.Content != "Hi {{1}}, welcome!" {
		t.Fatalf("content = %q", welcome.Content)
	}
	if welcome.CreatedBy != "user-7" || welcome.Type != TypeWhatsApp {
		t.Fatalf("created_by/type = %q/%q", welcome.CreatedBy, welcome.Type)
	}

	followup := all[1]
	if followup.Active {
		t.Fatalf("pending template must be inactive")
	}
	if followup.Category != DefaultCategory {
		t.Fatalf("category = %q, want %q", followup.Category, DefaultCategory)
	}
	if followup.Language != whatsapp.DefaultLanguageCode {
		t.Fatalf("language = %q, want default", followup.Language)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	lister := &fakeLister{templates: []whatsapp.ProviderTemplate{
		{Name: "welcome_offer", Status: "APPROVED", Language: "en_US", Components: []whatsapp.ProviderTemplateComponent{bodyComponent("Hi!")}},
	}}
	store := &countingStore{Store: NewMemoryStore()}
	syncer := testSyncer(store, lister)

	if _, err := syncer.Sync(syncContext(), "user-7"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	synced, err := syncer.Sync(syncContext(), "user-7")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(synced) != 0 {
		t.Fatalf("second run should change nothing, got %d", len(synced))
	}
	if store.creates != 1 || store.updates != 0 {
		t.Fatalf("creates=%d updates=%d, want 1/0", store.creates, store.updates)
	}
}

func TestSyncMatchesNamesCaseInsensitively(t *testing.T) {
	store := NewMemoryStore()
	ctx := syncContext()
	local := &Template{TenantID: "tenant-a", Name: "Welcome_Offer", Content: "old copy", Type: TypeWhatsApp, Active: false, Category: "marketing", Language: "en_US"}
	if err := store.Create(ctx, local); err != nil {
		t.Fatalf("seed: %v", err)
	}

	lister := &fakeLister{templates: []whatsapp.ProviderTemplate{
		{Name: "welcome_offer", Status: "APPROVED", Category: "MARKETING", Language: "en_US", Components: []whatsapp.ProviderTemplateComponent{bodyComponent("new copy")}},
	}}
	synced, err := testSyncer(store, lister).Sync(ctx, "user-7")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(synced) != 1 {
		t.Fatalf("expected 1 update, got %d", len(synced))
	}

	all, _ := store.ListByTenant(ctx, "tenant-a")
	if len(all) != 1 {
		t.Fatalf("case-insensitive match must not duplicate, got %d templates", len(all))
	}
	if all[0].Name != "Welcome_Offer" {
		t.Fatalf("local name must be preserved, got %q", all[0].Name)
	}
	if all[0].Content != "new copy" || !all[0].Active {
		t.Fatalf("update not applied: %+v", all[0])
	}
}

func TestSyncIsolatesPerTemplateFailures(t *testing.T) {
	lister := &fakeLister{templates: []whatsapp.ProviderTemplate{
		{Name: "broken", Status: "APPROVED", Components: []whatsapp.ProviderTemplateComponent{bodyComponent("a")}},
		{Name: "healthy", Status: "APPROVED", Components: []whatsapp.ProviderTemplateComponent{bodyComponent("b")}},
	}}
	store := &countingStore{Store: NewMemoryStore(), failCreate: "broken"}
	synced, err := testSyncer(store, lister).Sync(syncContext(), "user-7")
	if err == nil {
		t.Fatalf("expected joined error for the broken template")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("error should name the failed template: %v", err)
	}
	if len(synced) != 1 || synced[0].Name != "healthy" {
		t.Fatalf("healthy template must still sync, got %+v", synced)
	}
}

func TestSyncRequiresTenantScope(t *testing.T) {
	syncer := testSyncer(NewMemoryStore(), &fakeLister{})
	if _, err := syncer.Sync(context.Background(), "user-7"); err == nil {
		t.Fatalf("expected error without tenant scope")
	}
}

func TestSyncPropagatesProviderError(t *testing.T) {
	lister := &fakeLister{err: errors.New("rate limited")}
	syncer := testSyncer(NewMemoryStore(), lister)
	if _, err := syncer.Sync(syncContext(), "user-7"); err == nil {
		t.Fatalf("expected provider error to propagate")
	}
}
