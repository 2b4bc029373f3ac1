package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// PostgresIndex stores message index entries in the relational database.
type PostgresIndex struct {
	pool PgxPool
}

// NewPostgresIndex initializes an index backed by pgxpool.
func NewPostgresIndex(pool PgxPool) *PostgresIndex {
	if pool == nil {
		panic("activities: pgx pool required")
	}
	return &PostgresIndex{pool: pool}
}

// Put upserts the entry keyed by tenant and message ID.
func (i *PostgresIndex) Put(ctx context.Context, entry IndexEntry) error {
	if entry.MessageID == "" || entry.TenantID == "" {
		return errors.New("activities: index entry requires tenant and message id")
	}
	if entry.Status == "" {
		entry.Status = MessageStatusSent
	}
	now := time.Now().UTC()
	if entry.SentAt.IsZero() {
		entry.SentAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	query := `
		INSERT INTO whatsapp_message_index
			(tenant_id, message_id, lead_id, activity_id, status, sent_at, delivered_at, read_at, failed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, message_id)
		DO UPDATE SET lead_id = EXCLUDED.lead_id,
			activity_id = EXCLUDED.activity_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := i.pool.Exec(ctx, query,
		entry.TenantID,
		entry.MessageID,
		entry.LeadID,
		entry.ActivityID,
		entry.Status,
		entry.SentAt,
		entry.DeliveredAt,
		entry.ReadAt,
		entry.FailedAt,
		entry.UpdatedAt,
	); err != nil {
		return fmt.Errorf("activities: index put failed: %w", err)
	}
	return nil
}

// Get returns the entry for the message ID scoped to the tenant.
func (i *PostgresIndex) Get(ctx context.Context, tenantID, messageID string) (*IndexEntry, error) {
	query := `
		SELECT tenant_id, message_id, lead_id, activity_id, status, sent_at, delivered_at, read_at, failed_at, updated_at
		FROM whatsapp_message_index
		WHERE tenant_id = $1 AND message_id = $2
	`
	var entry IndexEntry
	if err := i.pool.QueryRow(ctx, query, tenantID, messageID).Scan(
		&entry.TenantID,
		&entry.MessageID,
		&entry.LeadID,
		&entry.ActivityID,
		&entry.Status,
		&entry.SentAt,
		&entry.DeliveredAt,
		&entry.ReadAt,
		&entry.FailedAt,
		&entry.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("activities: index get failed: %w", err)
	}
	return &entry, nil
}

// ApplyStatus advances the entry's delivery status. The read-then-write
// is not transactional; receipts for one message arrive on a single
// webhook stream, so last-writer-wins on ties is acceptable.
func (i *PostgresIndex) ApplyStatus(ctx context.Context, tenantID, messageID, status string, at time.Time) (*IndexEntry, bool, error) {
	entry, err := i.Get(ctx, tenantID, messageID)
	if err != nil {
		return nil, false, err
	}
	if !advance(entry, status, at) {
		return entry, false, nil
	}

	query := `
		UPDATE whatsapp_message_index
		SET status = $3, delivered_at = $4, read_at = $5, failed_at = $6, updated_at = $7
		WHERE tenant_id = $1 AND message_id = $2
	`
	if _, err := i.pool.Exec(ctx, query,
		tenantID,
		messageID,
		entry.Status,
		entry.DeliveredAt,
		entry.ReadAt,
		entry.FailedAt,
		entry.UpdatedAt,
	); err != nil {
		return nil, false, fmt.Errorf("activities: index status update failed: %w", err)
	}
	return entry, true, nil
}
