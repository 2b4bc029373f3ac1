package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists notifications in the relational database through
// database/sql so it works against either pgx's stdlib driver or a
// managed proxy connection.
type Store struct {
	db *sql.DB
}

// NewStore creates a notification store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert records a notification, assigning ID and CreatedAt when unset.
func (s *Store) Insert(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO notifications (id, tenant_id, user_id, type, content, lead_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`
	if _, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.TenantID,
		n.UserID,
		n.Type,
		n.Content,
		n.LeadID,
		n.CreatedAt,
	); err != nil {
		return fmt.Errorf("notify: insert notification: %w", err)
	}
	return nil
}

// ListByUser returns the user's newest notifications, most recent first.
func (s *Store) ListByUser(ctx context.Context, tenantID, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, tenant_id, user_id, type, content, COALESCE(lead_id, ''), created_at
		FROM notifications
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.TenantID, &n.UserID, &n.Type, &n.Content, &n.LeadID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notify: notification rows: %w", err)
	}
	return out, nil
}
