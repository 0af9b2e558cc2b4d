package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Plan describes a subscription plan: the entitlements it grants, the
// resource ceiling it enforces and its trial behaviour. Plans are soft-disabled
// rather than deleted so live subscriptions never lose their referent.
type Plan struct {
	ID          uuid.UUID
	Name        string // unique across the catalog
	Description string
	Active      bool
	Features    []Feature
	GroupID     uuid.UUID // authorization group granted while the plan is held
	Permissions []string  // restricted to the configured allow-list

	// POSLimit caps the number of active points of sale. Zero means
	// unlimited; enforcement is skipped entirely for zero.
	POSLimit int

	IsFreeTrial bool
	TrialDays   int // required positive when IsFreeTrial is set

	// ExternalProductID is the billing provider's product reference.
	// Empty until remote provisioning succeeds.
	ExternalProductID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrialEndsAt calculates when the trial period ends.
// Returns startedAt unchanged if the plan carries no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if !p.IsFreeTrial || p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

// CreatePlanInput carries the administrator-supplied attributes of a new plan.
type CreatePlanInput struct {
	Name        string
	Description string
	Features    []Feature
	// GroupID may be left as uuid.Nil, in which case a fresh group
	// identifier is generated for the plan.
	GroupID     uuid.UUID
	Permissions []string
	POSLimit    int
	IsFreeTrial bool
	TrialDays   int
}

// UpdatePlanInput carries a partial plan update; nil fields keep their
// current value.
type UpdatePlanInput struct {
	Name        *string
	Description *string
	Features    *[]Feature
	Permissions *[]string
	POSLimit    *int
}
