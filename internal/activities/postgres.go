package activities

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore stores activities in the relational database.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("activities: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

// Create inserts a new row, assigning an ID when unset.
func (s *PostgresStore) Create(ctx context.Context, activity *Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	metadata, err := json.Marshal(activity.Metadata)
	if err != nil {
		return fmt.Errorf("activities: marshal metadata: %w", err)
	}
	attachments, err := json.Marshal(activity.Attachments)
	if err != nil {
		return fmt.Errorf("activities: marshal attachments: %w", err)
	}

	query := `
		INSERT INTO activities (id, tenant_id, lead_id, user_id, type, direction, content, metadata, attachments)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	if err := s.pool.QueryRow(ctx, query,
		activity.ID,
		activity.TenantID,
		activity.LeadID,
		activity.UserID,
		activity.Type,
		activity.Direction,
		activity.Content,
		metadata,
		attachments,
	).Scan(&activity.CreatedAt); err != nil {
		return fmt.Errorf("activities: insert failed: %w", err)
	}
	return nil
}

// ListByLead returns the lead's activities in creation order.
func (s *PostgresStore) ListByLead(ctx context.Context, tenantID, leadID string) ([]*Activity, error) {
	query := `
		SELECT id, tenant_id, lead_id, COALESCE(user_id, ''), type, direction, content, metadata, attachments, created_at
		FROM activities
		WHERE tenant_id = $1 AND lead_id = $2
		ORDER BY created_at, id
	`
	rows, err := s.pool.Query(ctx, query, tenantID, leadID)
	if err != nil {
		return nil, fmt.Errorf("activities: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Activity
	for rows.Next() {
		var activity Activity
		var metadata, attachments []byte
		if err := rows.Scan(
			&activity.ID,
			&activity.TenantID,
			&activity.LeadID,
			&activity.UserID,
			&activity.Type,
			&activity.Direction,
			&activity.Content,
			&metadata,
			&attachments,
			&activity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("activities: scan failed: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &activity.Metadata); err != nil {
				return nil, fmt.Errorf("activities: unmarshal metadata: %w", err)
			}
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &activity.Attachments); err != nil {
				return nil, fmt.Errorf("activities: unmarshal attachments: %w", err)
			}
		}
		out = append(out, &activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activities: list rows: %w", err)
	}
	return out, nil
}
