package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/leadwire/leadwire-platform/internal/activities"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

func seedIndex(t *testing.T, index activities.MessageIndex, tenantID, messageID string) {
	t.Helper()
	err := index.Put(context.Background(), activities.IndexEntry{
		MessageID:  messageID,
		TenantID:   tenantID,
		LeadID:     "lead-1",
		ActivityID: "act-1",
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestStatusApplierAdvances(t *testing.T) {
	index := activities.NewMemoryIndex()
	seedIndex(t, index, "tenant-a", "wamid.out-1")
	applier := NewStatusApplier(index, nil, logging.New("error"))
	ctx := tenancy.WithTenantID(context.Background(), "tenant-a")

	update := StatusUpdate{MessageID: "wamid.out-1", Status: "delivered", Timestamp: "1756100120"}
	if err := applier.Apply(ctx, update); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	entry, err := index.Get(ctx, "tenant-a", "wamid.out-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Status != activities.MessageStatusDelivered {
		t.Errorf("status = %s", entry.Status)
	}
	if entry.DeliveredAt == nil {
		t.Fatal("DeliveredAt not stamped")
	}
	want := time.Unix(1756100120, 0).UTC()
	if !entry.DeliveredAt.Equal(want) {
		t.Errorf("DeliveredAt = %v, want %v", entry.DeliveredAt, want)
	}
}

func TestStatusApplierDowngradeIgnored(t *testing.T) {
	index := activities.NewMemoryIndex()
	seedIndex(t, index, "tenant-a", "wamid.out-1")
	applier := NewStatusApplier(index, nil, logging.New("error"))
	ctx := tenancy.WithTenantID(context.Background(), "tenant-a")

	if err := applier.Apply(ctx, StatusUpdate{MessageID: "wamid.out-1", Status: "read", Timestamp: "1756100200"}); err != nil {
		t.Fatalf("Apply read: %v", err)
	}
	if err := applier.Apply(ctx, StatusUpdate{MessageID: "wamid.out-1", Status: "delivered", Timestamp: "1756100300"}); err != nil {
		t.Fatalf("Apply delivered after read: %v", err)
	}

	entry, err := index.Get(ctx, "tenant-a", "wamid.out-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Status != activities.MessageStatusRead {
		t.Errorf("status = %s, downgrade should be ignored", entry.Status)
	}
}

func TestStatusApplierUntrackedMessageSkips(t *testing.T) {
	applier := NewStatusApplier(activities.NewMemoryIndex(), nil, logging.New("error"))
	ctx := tenancy.WithTenantID(context.Background(), "tenant-a")

	if err := applier.Apply(ctx, StatusUpdate{MessageID: "wamid.unknown", Status: "delivered"}); err != nil {
		t.Fatalf("untracked message should be skipped, got %v", err)
	}
}

func TestStatusApplierRequiresTenant(t *testing.T) {
	applier := NewStatusApplier(activities.NewMemoryIndex(), nil, logging.New("error"))

	if err := applier.Apply(context.Background(), StatusUpdate{MessageID: "wamid.out-1", Status: "read"}); err == nil {
		t.Fatal("expected error without tenant scope")
	}
}

func TestStatusApplierBlankUpdateSkipped(t *testing.T) {
	index := activities.NewMemoryIndex()
	seedIndex(t, index, "tenant-a", "wamid.out-1")
	applier := NewStatusApplier(index, nil, logging.New("error"))
	ctx := tenancy.WithTenantID(context.Background(), "tenant-a")

	if err := applier.Apply(ctx, StatusUpdate{MessageID: "", Status: "read"}); err != nil {
		t.Fatalf("blank id: %v", err)
	}
	if err := applier.Apply(ctx, StatusUpdate{MessageID: "wamid.out-1", Status: ""}); err != nil {
		t.Fatalf("blank status: %v", err)
	}

	entry, err := index.Get(ctx, "tenant-a", "wamid.out-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Status != activities.MessageStatusSent {
		t.Errorf("status = %s, blank updates must not advance", entry.Status)
	}
}
