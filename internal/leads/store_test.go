package leads

import (
	"context"
	"testing"
)

func TestMemoryStoreListPreservesCreationOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	names := []string{"first", "second", "third"}
	for _, name := range names {
		lead := &Lead{TenantID: "tenant-a", Name: name, Phone: "1555000" + name, Status: StatusNew}
		if err := store.Create(ctx, lead); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if err := store.Create(ctx, &Lead{TenantID: "tenant-b", Name: "other", Phone: "1555", Status: StatusNew}); err != nil {
		t.Fatalf("create other tenant: %v", err)
	}

	listed, err := store.ListByTenant(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != len(names) {
		t.Fatalf("expected %d leads, got %d", len(names), len(listed))
	}
	for i, lead := range listed {
		if lead.Name != names[i] {
			t.Errorf("position %d = %q, want %q", i, lead.Name, names[i])
		}
	}
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	lead := &Lead{TenantID: "tenant-a", Name: "Ravi", Phone: "1555", Status: StatusNew}
	if err := store.Create(ctx, lead); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.UpdateStatus(ctx, "tenant-a", lead.ID, StatusContacted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := store.Get(ctx, "tenant-a", lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusContacted {
		t.Fatalf("status = %q, want %q", got.Status, StatusContacted)
	}

	if err := store.UpdateStatus(ctx, "tenant-b", lead.ID, StatusContacted); err != ErrLeadNotFound {
		t.Fatalf("cross-tenant update should fail with ErrLeadNotFound, got %v", err)
	}
}

func TestMemoryStoreGetIsolatesTenants(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	lead := &Lead{TenantID: "tenant-a", Name: "Ravi", Phone: "1555", Status: StatusNew}
	if err := store.Create(ctx, lead); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.Get(ctx, "tenant-b", lead.ID); err != ErrLeadNotFound {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}
