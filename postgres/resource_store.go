package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockplus/plankit/pkg/poslimit"
)

// ResourceStore implements poslimit.ResourceStore backed by PostgreSQL.
type ResourceStore struct {
	pool *pgxpool.Pool
}

var _ poslimit.ResourceStore = (*ResourceStore)(nil)

// NewResourceStore creates a resource store over the pool.
// Panics when the pool is nil.
func NewResourceStore(pool *pgxpool.Pool) *ResourceStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &ResourceStore{pool: pool}
}

// Create persists a resource. The limiter only deactivates; creation is
// here so applications and tests have a write path to the same table.
func (s *ResourceStore) Create(ctx context.Context, r poslimit.Resource) error {
	q := queryTarget(ctx, s.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO resources (id, owner_id, name, active, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		r.ID, r.OwnerID, r.Name, r.Active, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *ResourceStore) CountActive(ctx context.Context, ownerID uuid.UUID) (int, error) {
	q := queryTarget(ctx, s.pool)
	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM resources WHERE owner_id = $1 AND active`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active resources: %w", err)
	}
	return count, nil
}

func (s *ResourceStore) ListActiveOrderedByCreation(ctx context.Context, ownerID uuid.UUID) ([]poslimit.Resource, error) {
	q := queryTarget(ctx, s.pool)
	rows, err := q.Query(ctx, `
		SELECT id, owner_id, name, active, created_at FROM resources
		WHERE owner_id = $1 AND active
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active resources: %w", err)
	}
	defer rows.Close()

	resources := make([]poslimit.Resource, 0)
	for rows.Next() {
		var r poslimit.Resource
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Active, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *ResourceStore) Deactivate(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	q := queryTarget(ctx, s.pool)
	if _, err := q.Exec(ctx, `
		UPDATE resources SET active = FALSE WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("deactivate resources: %w", err)
	}
	return nil
}
