package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract of the catalog. Implementations must
// honor the pricing invariant inside CreatePricing: disabling every enabled
// sibling for the same (plan, interval) pair and inserting the new row must
// happen atomically.
//
// Methods join an ambient transaction when the context carries one, which
// lets lifecycle operations fold catalog writes into their own atomic scope.
type Store interface {
	CreatePlan(ctx context.Context, plan Plan) error
	UpdatePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)
	GetPlanByName(ctx context.Context, name string) (Plan, error)
	ListActivePlans(ctx context.Context) ([]Plan, error)

	CreatePricing(ctx context.Context, pricing Pricing) error
	UpdatePricing(ctx context.Context, pricing Pricing) error
	GetActivePricing(ctx context.Context, planID uuid.UUID, interval Interval) (Pricing, error)
	ListPlanPricings(ctx context.Context, planID uuid.UUID) ([]Pricing, error)
}
