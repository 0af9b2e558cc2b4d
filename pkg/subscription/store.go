package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence boundary for subscription records.
// Methods join an ambient transaction when the context carries one.
type Store interface {
	// Create persists a new subscription. Returns ErrAlreadySubscribed when
	// the subscriber already holds a record.
	Create(ctx context.Context, sub Subscription) error

	// Update replaces an existing subscription row.
	Update(ctx context.Context, sub Subscription) error

	// Delete removes a subscription record. Used when a terminal record is
	// replaced by a fresh one.
	Delete(ctx context.Context, id uuid.UUID) error

	GetByID(ctx context.Context, id uuid.UUID) (Subscription, error)
	GetBySubscriber(ctx context.Context, subscriberID uuid.UUID) (Subscription, error)

	// Transition moves the subscription to the target status if and only if
	// its current status is one of from: a compare-and-set, so concurrent
	// callers race to exactly one winner. Losing the race yields
	// ErrInvalidStateTransition; a missing row yields
	// ErrSubscriptionNotFound.
	Transition(ctx context.Context, id uuid.UUID, from []Status, to Status) error

	// ListExpiring returns active and trial subscriptions whose EndDate
	// falls inside [from, to], ordered by EndDate ascending.
	ListExpiring(ctx context.Context, from, to time.Time) ([]Subscription, error)

	// ListOverdue returns subscriptions whose EndDate is before asOf and
	// that still need sweeping: every overdue active or trial record, and
	// overdue cancelled records whose entitlements were not yet revoked.
	// Ordered by EndDate ascending.
	ListOverdue(ctx context.Context, asOf time.Time) ([]Subscription, error)
}

// Atomic runs a function inside a single transaction. Implementations place
// the transaction in the context so every store call made by fn joins it;
// an error from fn rolls the whole transaction back.
type Atomic interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
