package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// PostgresStore stores leads in the relational database.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

const leadColumns = `id, tenant_id, name, COALESCE(email, ''), phone, status, source, COALESCE(assigned_user_id, ''), tags, created_at, updated_at`

// Create inserts a new row, assigning an ID when unset.
func (s *PostgresStore) Create(ctx context.Context, lead *Lead) error {
	if strings.TrimSpace(lead.TenantID) == "" {
		return ErrMissingTenant
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	query := `
		INSERT INTO leads (id, tenant_id, name, email, phone, status, source, assigned_user_id, tags)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9)
		RETURNING created_at, updated_at
	`
	if err := s.pool.QueryRow(ctx, query,
		lead.ID,
		lead.TenantID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Status,
		lead.Source,
		lead.AssignedUserID,
		lead.Tags,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// ListByTenant returns the tenant's leads in creation order.
func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID string) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1 ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list rows: %w", err)
	}
	return out, nil
}

// Get fetches a lead scoped to the tenant.
func (s *PostgresStore) Get(ctx context.Context, tenantID, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1 AND id = $2`
	lead, err := scanLead(s.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

// UpdateStatus sets the lead's status and bumps updated_at.
func (s *PostgresStore) UpdateStatus(ctx context.Context, tenantID, id, status string) error {
	query := `UPDATE leads SET status = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`
	tag, err := s.pool.Exec(ctx, query, tenantID, id, status)
	if err != nil {
		return fmt.Errorf("leads: update status failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Status,
		&lead.Source,
		&lead.AssignedUserID,
		&lead.Tags,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("leads: scan failed: %w", err)
	}
	return &lead, nil
}
