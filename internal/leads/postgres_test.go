package leads

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
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "tenant-a", "Asha", "", "919999999999", StatusNew, SourceWhatsAppInbound, "", []string{"whatsapp"}).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	store := &PostgresStore{pool: mock}
	lead := &Lead{
		TenantID: "tenant-a",
		Name:     "Asha",
		Phone:    "919999999999",
		Status:   StatusNew,
		Source:   SourceWhatsAppInbound,
		Tags:     []string{"whatsapp"},
	}
	if err := store.Create(context.Background(), lead); err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if !lead.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", lead.CreatedAt, now)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT .* FROM leads").
		WithArgs("tenant-a", "missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "tenant_id", "name", "email", "phone", "status", "source", "assigned_user_id", "tags", "created_at", "updated_at",
		}))

	store := &PostgresStore{pool: mock}
	if _, err := store.Get(context.Background(), "tenant-a", "missing"); err != ErrLeadNotFound {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
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
		"id", "tenant_id", "name", "email", "phone", "status", "source", "assigned_user_id", "tags", "created_at", "updated_at",
	}).
		AddRow("lead-1", "tenant-a", "Ravi", "", "+917010749648", StatusContacted, "referral", "user-7", []string{"whatsapp"}, now, now).
		AddRow("lead-2", "tenant-a", "Asha", "", "919999999999", StatusNew, SourceWhatsAppInbound, "", []string{"whatsapp"}, now, now)
	mock.ExpectQuery("SELECT .* FROM leads").
		WithArgs("tenant-a").
		WillReturnRows(rows)

	store := &PostgresStore{pool: mock}
	listed, err := store.ListByTenant(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(listed))
	}
	if listed[0].AssignedUserID != "user-7" {
		t.Fatalf("assigned_user_id = %q", listed[0].AssignedUserID)
	}
	if listed[1].Name != "Asha" {
		t.Fatalf("second lead = %q", listed[1].Name)
	}
}

func TestPostgresStoreUpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("UPDATE leads SET status").
		WithArgs("tenant-a", "lead-1", StatusContacted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	store := &PostgresStore{pool: mock}
	if err := store.UpdateStatus(context.Background(), "tenant-a", "lead-1", StatusContacted); err != nil {
		t.Fatalf("update: %v", err)
	}

	mock.ExpectExec("UPDATE leads SET status").
		WithArgs("tenant-a", "missing", StatusContacted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := store.UpdateStatus(context.Background(), "tenant-a", "missing", StatusContacted); err != ErrLeadNotFound {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}
