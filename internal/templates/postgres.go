package templates

import (
	"context"
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

// PostgresStore stores templates in the relational database.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("templates: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

// Create inserts a new row, assigning an ID when unset.
func (s *PostgresStore) Create(ctx context.Context, tpl *Template) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	query := `
		INSERT INTO message_templates (id, tenant_id, name, content, type, active, category, language, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING created_at, updated_at
	`
	if err := s.pool.QueryRow(ctx, query,
		tpl.ID,
		tpl.TenantID,
		tpl.Name,
		tpl.Content,
		tpl.Type,
		tpl.Active,
		tpl.Category,
		tpl.Language,
		tpl.CreatedBy,
	).Scan(&tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
		return fmt.Errorf("templates: insert failed: %w", err)
	}
	return nil
}

// Update rewrites the synchronized fields and bumps updated_at.
func (s *PostgresStore) Update(ctx context.Context, tpl *Template) error {
	query := `
		UPDATE message_templates
		SET content = $3, active = $4, category = $5, language = $6, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
	`
	tag, err := s.pool.Exec(ctx, query,
		tpl.TenantID,
		tpl.ID,
		tpl.Content,
		tpl.Active,
		tpl.Category,
		tpl.Language,
	)
	if err != nil {
		return fmt.Errorf("templates: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// ListByTenant returns the tenant's templates in creation order.
func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID string) ([]*Template, error) {
	query := `
		SELECT id, tenant_id, name, content, type, active, category, language, COALESCE(created_by, ''), created_at, updated_at
		FROM message_templates
		WHERE tenant_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("templates: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		var tpl Template
		if err := rows.Scan(
			&tpl.ID,
			&tpl.TenantID,
			&tpl.Name,
			&tpl.Content,
			&tpl.Type,
			&tpl.Active,
			&tpl.Category,
			&tpl.Language,
			&tpl.CreatedBy,
			&tpl.CreatedAt,
			&tpl.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("templates: scan failed: %w", err)
		}
		out = append(out, &tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("templates: list rows: %w", err)
	}
	return out, nil
}
