package poslimit

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stockplus/plankit/pkg/logger"
)

// Limiter enforces per-owner resource ceilings derived from the owner's
// subscription plan.
type Limiter interface {
	// Enforce brings the owner under the given limit by deactivating excess
	// resources, newest first, so the oldest ones survive a downgrade.
	// A limit of Unlimited is a no-op, as is an owner already at or under
	// the limit. Returns the IDs that were deactivated.
	Enforce(ctx context.Context, ownerID uuid.UUID, limit int) ([]uuid.UUID, error)

	// CanCreate reports whether the owner may create one more resource
	// under the given limit. Returns ErrLimitReached when not.
	CanCreate(ctx context.Context, ownerID uuid.UUID, limit int) error
}

type limiter struct {
	store  ResourceStore
	logger *slog.Logger
}

// Option configures optional limiter behavior.
type Option func(*limiter)

// WithLogger sets a custom logger for the limiter.
func WithLogger(l *slog.Logger) Option {
	return func(lim *limiter) {
		if l != nil {
			lim.logger = l
		}
	}
}

// NewLimiter creates a limiter backed by the given store.
// Panics if store is nil since the limiter cannot operate without it.
func NewLimiter(store ResourceStore, opts ...Option) Limiter {
	if store == nil {
		panic("poslimit: store is required")
	}

	l := &limiter{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *limiter) Enforce(ctx context.Context, ownerID uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit < 0 {
		return nil, ErrNegativeLimit
	}
	if limit == Unlimited {
		return nil, nil
	}

	count, err := l.store.CountActive(ctx, ownerID)
	if err != nil {
		return nil, errors.Join(ErrFailedToCountResources, err)
	}
	if count <= limit {
		return nil, nil
	}

	resources, err := l.store.ListActiveOrderedByCreation(ctx, ownerID)
	if err != nil {
		return nil, errors.Join(ErrFailedToListResources, err)
	}

	// The list is oldest first: the first `limit` entries survive and
	// everything after them is excess.
	excess := resources[limit:]
	ids := make([]uuid.UUID, len(excess))
	for i, r := range excess {
		ids[i] = r.ID
	}

	if err := l.store.Deactivate(ctx, ids); err != nil {
		return nil, errors.Join(ErrFailedToDeactivateResources, err)
	}

	l.logger.InfoContext(ctx, "deactivated resources over plan limit",
		logger.SubscriberID(ownerID),
		slog.Int("limit", limit),
		slog.Int("deactivated", len(ids)),
		logger.Component("poslimit"))

	return ids, nil
}

func (l *limiter) CanCreate(ctx context.Context, ownerID uuid.UUID, limit int) error {
	if limit < 0 {
		return ErrNegativeLimit
	}
	if limit == Unlimited {
		return nil
	}

	count, err := l.store.CountActive(ctx, ownerID)
	if err != nil {
		return errors.Join(ErrFailedToCountResources, err)
	}
	if count >= limit {
		return ErrLimitReached
	}
	return nil
}
