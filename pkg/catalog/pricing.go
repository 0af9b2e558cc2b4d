package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pricing is one tier of a plan: the amount charged per billing interval.
// For any (plan, interval) pair at most one pricing is enabled at a time;
// inserting a new enabled pricing disables all of its siblings in the same
// transaction so a tenant can never be double-priced.
type Pricing struct {
	ID       uuid.UUID
	PlanID   uuid.UUID
	Interval Interval
	Price    decimal.Decimal
	Currency string // ISO-4217 code, normalized to upper case
	Enabled  bool

	// ExternalPriceID is the billing provider's price reference.
	// Empty until remote provisioning succeeds.
	ExternalPriceID string

	CreatedAt time.Time
}

// CreatePricingInput carries the attributes of a new pricing tier.
type CreatePricingInput struct {
	PlanID   uuid.UUID
	Interval Interval
	Price    decimal.Decimal
	Currency string
}
