package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockplus/plankit/pkg/catalog"
	"github.com/stockplus/plankit/pkg/pg"
)

const planColumns = `id, name, description, active, group_id, pos_limit,
	is_free_trial, trial_days, external_product_id, created_at, updated_at`

const pricingColumns = `id, plan_id, interval, price, currency, enabled,
	external_price_id, created_at`

// CatalogStore implements catalog.Store backed by PostgreSQL.
// Plan name uniqueness rides on a unique index over LOWER(name); the
// single-enabled-pricing invariant on a partial unique index plus a
// sibling-disable update in the same transaction.
type CatalogStore struct {
	pool *pgxpool.Pool
}

var _ catalog.Store = (*CatalogStore)(nil)

// NewCatalogStore creates a catalog store over the pool.
// Panics when the pool is nil.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &CatalogStore{pool: pool}
}

func (s *CatalogStore) CreatePlan(ctx context.Context, plan catalog.Plan) error {
	return runInTx(ctx, s.pool, func(ctx context.Context) error {
		q := queryTarget(ctx, s.pool)
		_, err := q.Exec(ctx, `
			INSERT INTO plans (`+planColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			plan.ID, plan.Name, plan.Description, plan.Active, plan.GroupID, plan.POSLimit,
			plan.IsFreeTrial, plan.TrialDays, plan.ExternalProductID, plan.CreatedAt, plan.UpdatedAt)
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				return catalog.ErrPlanNameTaken
			}
			return fmt.Errorf("insert plan: %w", err)
		}
		return insertPlanDetails(ctx, q, plan)
	})
}

func (s *CatalogStore) UpdatePlan(ctx context.Context, plan catalog.Plan) error {
	return runInTx(ctx, s.pool, func(ctx context.Context) error {
		q := queryTarget(ctx, s.pool)
		tag, err := q.Exec(ctx, `
			UPDATE plans SET name=$2, description=$3, active=$4, group_id=$5,
				pos_limit=$6, is_free_trial=$7, trial_days=$8,
				external_product_id=$9, updated_at=$10
			WHERE id=$1`,
			plan.ID, plan.Name, plan.Description, plan.Active, plan.GroupID,
			plan.POSLimit, plan.IsFreeTrial, plan.TrialDays,
			plan.ExternalProductID, plan.UpdatedAt)
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				return catalog.ErrPlanNameTaken
			}
			return fmt.Errorf("update plan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return catalog.ErrPlanNotFound
		}

		// Features and permissions are replaced wholesale with the plan.
		if _, err := q.Exec(ctx, `DELETE FROM plan_features WHERE plan_id = $1`, plan.ID); err != nil {
			return fmt.Errorf("clear plan features: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM plan_permissions WHERE plan_id = $1`, plan.ID); err != nil {
			return fmt.Errorf("clear plan permissions: %w", err)
		}
		return insertPlanDetails(ctx, q, plan)
	})
}

func insertPlanDetails(ctx context.Context, q querier, plan catalog.Plan) error {
	for i, feature := range plan.Features {
		id := feature.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO plan_features (id, plan_id, name, description, position)
			VALUES ($1,$2,$3,$4,$5)`,
			id, plan.ID, feature.Name, feature.Description, i); err != nil {
			return fmt.Errorf("insert plan feature: %w", err)
		}
	}
	for i, permission := range plan.Permissions {
		if _, err := q.Exec(ctx, `
			INSERT INTO plan_permissions (plan_id, permission, position)
			VALUES ($1,$2,$3)`,
			plan.ID, permission, i); err != nil {
			return fmt.Errorf("insert plan permission: %w", err)
		}
	}
	return nil
}

func (s *CatalogStore) GetPlan(ctx context.Context, id uuid.UUID) (catalog.Plan, error) {
	q := queryTarget(ctx, s.pool)
	plan, err := scanPlanRow(q.QueryRow(ctx, `
		SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return catalog.Plan{}, catalog.ErrPlanNotFound
	}
	if err != nil {
		return catalog.Plan{}, fmt.Errorf("query plan: %w", err)
	}
	if err := s.loadPlanDetails(ctx, q, &plan); err != nil {
		return catalog.Plan{}, err
	}
	return plan, nil
}

func (s *CatalogStore) GetPlanByName(ctx context.Context, name string) (catalog.Plan, error) {
	q := queryTarget(ctx, s.pool)
	plan, err := scanPlanRow(q.QueryRow(ctx, `
		SELECT `+planColumns+` FROM plans WHERE LOWER(name) = LOWER($1)`, name))
	if pg.IsNotFoundError(err) {
		return catalog.Plan{}, catalog.ErrPlanNotFound
	}
	if err != nil {
		return catalog.Plan{}, fmt.Errorf("query plan by name: %w", err)
	}
	if err := s.loadPlanDetails(ctx, q, &plan); err != nil {
		return catalog.Plan{}, err
	}
	return plan, nil
}

func (s *CatalogStore) ListActivePlans(ctx context.Context) ([]catalog.Plan, error) {
	q := queryTarget(ctx, s.pool)
	rows, err := q.Query(ctx, `
		SELECT `+planColumns+` FROM plans
		WHERE active
		ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	defer rows.Close()

	plans := make([]catalog.Plan, 0)
	for rows.Next() {
		plan, err := scanPlanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}

	for i := range plans {
		if err := s.loadPlanDetails(ctx, q, &plans[i]); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// scanPlanRow works for both pgx.Row and pgx.Rows.
func scanPlanRow(row interface{ Scan(dest ...any) error }) (catalog.Plan, error) {
	var plan catalog.Plan
	err := row.Scan(&plan.ID, &plan.Name, &plan.Description, &plan.Active,
		&plan.GroupID, &plan.POSLimit, &plan.IsFreeTrial, &plan.TrialDays,
		&plan.ExternalProductID, &plan.CreatedAt, &plan.UpdatedAt)
	return plan, err
}

func (s *CatalogStore) loadPlanDetails(ctx context.Context, q querier, plan *catalog.Plan) error {
	featureRows, err := q.Query(ctx, `
		SELECT id, name, description FROM plan_features
		WHERE plan_id = $1 ORDER BY position`, plan.ID)
	if err != nil {
		return fmt.Errorf("query plan features: %w", err)
	}
	defer featureRows.Close()

	plan.Features = make([]catalog.Feature, 0)
	for featureRows.Next() {
		var feature catalog.Feature
		if err := featureRows.Scan(&feature.ID, &feature.Name, &feature.Description); err != nil {
			return fmt.Errorf("scan plan feature: %w", err)
		}
		plan.Features = append(plan.Features, feature)
	}
	if err := featureRows.Err(); err != nil {
		return fmt.Errorf("query plan features: %w", err)
	}

	permissionRows, err := q.Query(ctx, `
		SELECT permission FROM plan_permissions
		WHERE plan_id = $1 ORDER BY position`, plan.ID)
	if err != nil {
		return fmt.Errorf("query plan permissions: %w", err)
	}
	defer permissionRows.Close()

	plan.Permissions = make([]string, 0)
	for permissionRows.Next() {
		var permission string
		if err := permissionRows.Scan(&permission); err != nil {
			return fmt.Errorf("scan plan permission: %w", err)
		}
		plan.Permissions = append(plan.Permissions, permission)
	}
	return permissionRows.Err()
}

func (s *CatalogStore) CreatePricing(ctx context.Context, pricing catalog.Pricing) error {
	return runInTx(ctx, s.pool, func(ctx context.Context) error {
		q := queryTarget(ctx, s.pool)
		if pricing.Enabled {
			// Sibling disable keeps the partial unique index satisfied and
			// the single-enabled-row invariant intact, atomically with the
			// insert below.
			if _, err := q.Exec(ctx, `
				UPDATE pricings SET enabled = FALSE
				WHERE plan_id = $1 AND interval = $2 AND enabled`,
				pricing.PlanID, string(pricing.Interval)); err != nil {
				return fmt.Errorf("disable sibling pricings: %w", err)
			}
		}

		if _, err := q.Exec(ctx, `
			INSERT INTO pricings (`+pricingColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			pricing.ID, pricing.PlanID, string(pricing.Interval), pricing.Price,
			pricing.Currency, pricing.Enabled, pricing.ExternalPriceID,
			pricing.CreatedAt); err != nil {
			return fmt.Errorf("insert pricing: %w", err)
		}
		return nil
	})
}

func (s *CatalogStore) UpdatePricing(ctx context.Context, pricing catalog.Pricing) error {
	q := queryTarget(ctx, s.pool)
	tag, err := q.Exec(ctx, `
		UPDATE pricings SET price=$2, currency=$3, enabled=$4, external_price_id=$5
		WHERE id=$1`,
		pricing.ID, pricing.Price, pricing.Currency, pricing.Enabled, pricing.ExternalPriceID)
	if err != nil {
		return fmt.Errorf("update pricing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrPricingNotFound
	}
	return nil
}

func (s *CatalogStore) GetActivePricing(ctx context.Context, planID uuid.UUID, interval catalog.Interval) (catalog.Pricing, error) {
	q := queryTarget(ctx, s.pool)
	pricing, err := scanPricingRow(q.QueryRow(ctx, `
		SELECT `+pricingColumns+` FROM pricings
		WHERE plan_id = $1 AND interval = $2 AND enabled`,
		planID, string(interval)))
	if pg.IsNotFoundError(err) {
		return catalog.Pricing{}, catalog.ErrPricingNotFound
	}
	if err != nil {
		return catalog.Pricing{}, fmt.Errorf("query active pricing: %w", err)
	}
	return pricing, nil
}

func (s *CatalogStore) ListPlanPricings(ctx context.Context, planID uuid.UUID) ([]catalog.Pricing, error) {
	q := queryTarget(ctx, s.pool)
	rows, err := q.Query(ctx, `
		SELECT `+pricingColumns+` FROM pricings
		WHERE plan_id = $1 ORDER BY created_at`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan pricings: %w", err)
	}
	defer rows.Close()

	pricings := make([]catalog.Pricing, 0)
	for rows.Next() {
		pricing, err := scanPricingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing: %w", err)
		}
		pricings = append(pricings, pricing)
	}
	return pricings, rows.Err()
}

func scanPricingRow(row interface{ Scan(dest ...any) error }) (catalog.Pricing, error) {
	var pricing catalog.Pricing
	err := row.Scan(&pricing.ID, &pricing.PlanID, &pricing.Interval, &pricing.Price,
		&pricing.Currency, &pricing.Enabled, &pricing.ExternalPriceID, &pricing.CreatedAt)
	return pricing, err
}
