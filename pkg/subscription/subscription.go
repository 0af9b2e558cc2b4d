package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockplus/plankit/pkg/catalog"
	"github.com/stockplus/plankit/pkg/entitlement"
)

// Status is the lifecycle state of a subscription.
//
// The machine: pending -> active | trial -> cancelled | expired.
// Cancelled and expired are terminal; a subscriber starts over with a fresh
// record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusTrial, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether the status ends the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// Entitled reports whether the status grants access to plan entitlements.
func (s Status) Entitled() bool {
	return s == StatusActive || s == StatusTrial
}

func nonTerminalStatuses() []Status {
	return []Status{StatusPending, StatusActive, StatusTrial}
}

// Subscription binds a subscriber to a plan for a billing term.
// At most one subscription exists per subscriber; terminal records are
// replaced on re-subscription.
type Subscription struct {
	ID           uuid.UUID
	SubscriberID uuid.UUID
	Kind         entitlement.SubscriberKind
	PlanID       uuid.UUID
	Interval     catalog.Interval
	Status       Status

	StartDate   time.Time
	EndDate     time.Time
	RenewalDate time.Time
	TrialEndsAt time.Time // zero unless the plan carries a trial

	// EntitlementsRevokedAt marks when the overdue sweep (or an explicit
	// expiry) took the plan's group away. Zero while access is still held.
	// Keeps swept cancelled records out of later sweeps.
	EntitlementsRevokedAt time.Time

	// ExternalID is the billing provider's subscription reference,
	// ExternalCustomerID the provider's customer reference. Both stay
	// empty until the payment boundary links them.
	ExternalID         string
	ExternalCustomerID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assignment shapes the subscription for the entitlement syncer.
func (s Subscription) Assignment() entitlement.Assignment {
	return entitlement.Assignment{
		SubscriberID: s.SubscriberID,
		Kind:         s.Kind,
		PlanID:       s.PlanID,
	}
}

// Overdue reports whether the subscription's term has ended as of the given
// time.
func (s Subscription) Overdue(asOf time.Time) bool {
	return s.EndDate.Before(asOf)
}

// SubscribeInput carries the attributes of a new subscription.
type SubscribeInput struct {
	SubscriberID uuid.UUID
	Kind         entitlement.SubscriberKind
	PlanID       uuid.UUID
	Interval     catalog.Interval
}
