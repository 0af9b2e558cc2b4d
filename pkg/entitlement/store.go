package entitlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockplus/plankit/pkg/catalog"
)

// AuthorizationStore is the boundary to the authorization system's
// user-group assignments. Methods join an ambient transaction when the
// context carries one so group writes commit together with the
// subscription row.
type AuthorizationStore interface {
	// UserGroups returns the groups currently assigned to the user.
	UserGroups(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// SetUserGroups replaces the user's group assignments.
	SetUserGroups(ctx context.Context, userID uuid.UUID, groups []uuid.UUID) error
}

// MemberDirectory resolves the users affected by a company-held
// subscription.
type MemberDirectory interface {
	CompanyMemberIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}

// GroupCatalog is the slice of the plan catalog the syncer consumes:
// the group a plan grants, and the groups of every other active plan.
// catalog.Service satisfies it.
type GroupCatalog interface {
	GetPlan(ctx context.Context, id uuid.UUID) (catalog.Plan, error)
	ActivePlanGroupIDs(ctx context.Context, excludePlanID uuid.UUID) ([]uuid.UUID, error)
}
