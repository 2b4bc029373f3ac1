package templates

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresStoreCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO message_templates").
		WithArgs(pgxmock.AnyArg(), "tenant-a", "welcome_offer", "Hi!", TypeWhatsApp, true, "marketing", "en_US", "user-7").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	store := &PostgresStore{pool: mock}
	tpl := &Template{
		TenantID:  "tenant-a",
		Name:      "welcome_offer",
		Content:   "Hi!",
		Type:      TypeWhatsApp,
		Active:    true,
		Category:  "marketing",
		Language:  "en_US",
		CreatedBy: "user-7",
	}
	if err := store.Create(context.Background(), tpl); err != nil {
		t.Fatalf("create: %v", err)
	}
	if tpl.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStoreUpdateMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("UPDATE message_templates").
		WithArgs("tenant-a", "tpl-404", "Hi", false, "custom", "en_US").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	store := &PostgresStore{pool: mock}
	err = store.Update(context.Background(), &Template{
		ID: "tpl-404", TenantID: "tenant-a", Content: "Hi", Category: "custom", Language: "en_US",
	})
	if err != ErrTemplateNotFound {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestPostgresStoreListByTenant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "tenant_id", "name", "content", "type", "active", "category", "language", "created_by", "created_at", "updated_at",
	}).AddRow("tpl-1", "tenant-a", "welcome_offer", "Hi!", TypeWhatsApp, true, "marketing", "en_US", "user-7", now, now)
	mock.ExpectQuery("SELECT .* FROM message_templates").
		WithArgs("tenant-a").
		WillReturnRows(rows)

	store := &PostgresStore{pool: mock}
	listed, err := store.ListByTenant(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "welcome_offer" || !listed[0].Active {
		t.Fatalf("unexpected templates: %+v", listed)
	}
}
