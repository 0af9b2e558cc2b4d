package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stockplus/plankit/pkg/billing"
	"github.com/stockplus/plankit/pkg/catalog"
	"github.com/stockplus/plankit/pkg/entitlement"
	"github.com/stockplus/plankit/pkg/logger"
	"github.com/stockplus/plankit/pkg/poslimit"
)

// DefaultExpiryHorizonDays is the notification window: subscriptions ending
// within this many days are reported by ScanExpiring.
const DefaultExpiryHorizonDays = 3

// Service drives the subscription lifecycle. Every state transition runs its
// local writes, the subscription row, entitlement group changes and resource
// deactivations, inside a single transaction; billing provider calls stay
// outside the transaction and never block a local transition.
type Service interface {
	// Subscribe creates a pending subscription for the plan and interval,
	// computing the term dates from the clock. A terminal record left from
	// an earlier subscription is replaced; a live one yields
	// ErrAlreadySubscribed. No entitlements are granted yet.
	Subscribe(ctx context.Context, in SubscribeInput) (Subscription, error)

	// Activate moves a pending subscription to active, or trial when the
	// plan is a free trial, and grants the plan's entitlements in the same
	// transaction. The pending precondition is enforced by compare-and-set,
	// so concurrent activations succeed at most once.
	Activate(ctx context.Context, subscriptionID uuid.UUID) (Subscription, error)

	// ChangePlan repoints a live subscription at a new plan. The new plan's
	// resource limit is enforced before the pointer moves, and entitlements
	// are re-granted, all in one transaction. After commit the billing
	// provider's price is swapped best-effort.
	ChangePlan(ctx context.Context, subscriptionID, newPlanID uuid.UUID) (Subscription, error)

	// Cancel stops renewal. The remote subscription is cancelled
	// best-effort first, then the local status moves to cancelled.
	// Entitlements are retained until the paid term runs out; the overdue
	// sweep revokes them.
	Cancel(ctx context.Context, subscriptionID uuid.UUID) (Subscription, error)

	// Expire ends a subscription immediately, revoking entitlements in the
	// same transaction.
	Expire(ctx context.Context, subscriptionID uuid.UUID) (Subscription, error)

	// GetSubscription returns the subscriber's current record.
	GetSubscription(ctx context.Context, subscriberID uuid.UUID) (Subscription, error)

	// LinkExternalSubscription stores the billing provider's subscription
	// and customer references, the hook for the payment boundary once a
	// checkout completes.
	LinkExternalSubscription(ctx context.Context, subscriptionID uuid.UUID, externalID, externalCustomerID string) error

	// ScanExpiring returns active and trial subscriptions whose term ends
	// within the given number of days. Read-only. A non-positive horizon
	// falls back to DefaultExpiryHorizonDays.
	ScanExpiring(ctx context.Context, withinDays int) ([]Subscription, error)

	// ExpireOverdue sweeps subscriptions whose term has run out: active and
	// trial ones are expired and revoked; cancelled ones keep their status
	// and only lose entitlements. Returns the number of records swept.
	ExpireOverdue(ctx context.Context) (int, error)

	// PaymentHistory lists the subscriber's invoices from the billing
	// provider. Best-effort: gateway failures and unlinked subscriptions
	// yield an empty list, not an error.
	PaymentHistory(ctx context.Context, subscriberID uuid.UUID) ([]billing.Invoice, error)
}

// PlanCatalog is the slice of the plan catalog the lifecycle consumes.
// catalog.Service satisfies it.
type PlanCatalog interface {
	GetPlan(ctx context.Context, id uuid.UUID) (catalog.Plan, error)
	GetActivePricing(ctx context.Context, planID uuid.UUID, interval catalog.Interval) (catalog.Pricing, error)
}

type service struct {
	store   Store
	atomic  Atomic
	catalog PlanCatalog
	syncer  entitlement.Syncer
	limiter poslimit.Limiter
	gateway billing.Gateway
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates the lifecycle service.
// Panics when any required dependency is nil; the gateway is optional and
// configured with WithGateway.
func NewService(store Store, atomic Atomic, planCatalog PlanCatalog, syncer entitlement.Syncer, limiter poslimit.Limiter, opts ...ServiceOption) Service {
	if store == nil {
		panic("subscription: store is required")
	}
	if atomic == nil {
		panic("subscription: atomic runner is required")
	}
	if planCatalog == nil {
		panic("subscription: plan catalog is required")
	}
	if syncer == nil {
		panic("subscription: entitlement syncer is required")
	}
	if limiter == nil {
		panic("subscription: resource limiter is required")
	}

	s := &service{
		store:   store,
		atomic:  atomic,
		catalog: planCatalog,
		syncer:  syncer,
		limiter: limiter,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) Subscribe(ctx context.Context, in SubscribeInput) (Subscription, error) {
	if !in.Interval.Valid() {
		return Subscription{}, fmt.Errorf("%w: %q", catalog.ErrInvalidInterval, in.Interval)
	}
	if !in.Kind.Valid() {
		return Subscription{}, entitlement.ErrInvalidSubscriberKind
	}

	plan, err := s.catalog.GetPlan(ctx, in.PlanID)
	if err != nil {
		return Subscription{}, err
	}
	if !plan.Active {
		return Subscription{}, catalog.ErrPlanNotFound
	}

	now := s.now()
	sub := Subscription{
		ID:           uuid.New(),
		SubscriberID: in.SubscriberID,
		Kind:         in.Kind,
		PlanID:       plan.ID,
		Interval:     in.Interval,
		Status:       StatusPending,
		StartDate:    now,
		EndDate:      in.Interval.EndDate(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sub.RenewalDate = sub.EndDate
	if plan.IsFreeTrial {
		sub.TrialEndsAt = plan.TrialEndsAt(now)
	}

	err = s.atomic.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetBySubscriber(ctx, in.SubscriberID)
		switch {
		case err == nil:
			if !existing.Status.Terminal() {
				return ErrAlreadySubscribed
			}
			// A terminal record is replaced so the subscriber starts a
			// fresh lifecycle with new dates.
			if err := s.store.Delete(ctx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, ErrSubscriptionNotFound):
			return err
		}
		return s.store.Create(ctx, sub)
	})
	if err != nil {
		return Subscription{}, err
	}

	s.logger.InfoContext(ctx, "subscription created",
		logger.SubscriptionID(sub.ID),
		logger.SubscriberID(sub.SubscriberID),
		logger.PlanID(sub.PlanID),
		slog.String("interval", string(sub.Interval)),
		logger.Component("subscription"))
	return sub, nil
}

func (s *service) Activate(ctx context.Context, subscriptionID uuid.UUID) (Subscription, error) {
	var activated Subscription
	err := s.atomic.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := s.store.GetByID(ctx, subscriptionID)
		if err != nil {
			return err
		}

		plan, err := s.catalog.GetPlan(ctx, sub.PlanID)
		if err != nil {
			return err
		}
		target := StatusActive
		if plan.IsFreeTrial {
			target = StatusTrial
		}

		// The compare-and-set is the at-most-once guard: of any number of
		// concurrent activations, exactly one moves the row out of pending.
		if err := s.store.Transition(ctx, sub.ID, []Status{StatusPending}, target); err != nil {
			return err
		}
		if err := s.syncer.Grant(ctx, sub.Assignment()); err != nil {
			return err
		}

		activated, err = s.store.GetByID(ctx, sub.ID)
		return err
	})
	if err != nil {
		return Subscription{}, err
	}

	s.logger.InfoContext(ctx, "subscription activated",
		logger.SubscriptionID(activated.ID),
		logger.SubscriberID(activated.SubscriberID),
		logger.Status(string(activated.Status)),
		logger.Component("subscription"))
	return activated, nil
}

func (s *service) ChangePlan(ctx context.Context, subscriptionID, newPlanID uuid.UUID) (Subscription, error) {
	var updated Subscription
	err := s.atomic.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := s.store.GetByID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if sub.Status.Terminal() {
			return fmt.Errorf("%w: subscription is %s", ErrInvalidStateTransition, sub.Status)
		}

		newPlan, err := s.catalog.GetPlan(ctx, newPlanID)
		if err != nil {
			return err
		}
		if !newPlan.Active {
			return catalog.ErrPlanNotFound
		}

		// Enforcement precedes the pointer move: if deactivation fails the
		// transaction rolls back with the old plan still in place.
		if _, err := s.limiter.Enforce(ctx, sub.SubscriberID, newPlan.POSLimit); err != nil {
			return err
		}

		sub.PlanID = newPlan.ID
		sub.UpdatedAt = s.now()
		if err := s.store.Update(ctx, sub); err != nil {
			return err
		}

		if sub.Status.Entitled() {
			if err := s.syncer.Grant(ctx, sub.Assignment()); err != nil {
				return err
			}
		}

		updated = sub
		return nil
	})
	if err != nil {
		return Subscription{}, err
	}

	s.logger.InfoContext(ctx, "subscription plan changed",
		logger.SubscriptionID(updated.ID),
		logger.SubscriberID(updated.SubscriberID),
		logger.PlanID(updated.PlanID),
		logger.Component("subscription"))

	s.swapRemotePrice(ctx, updated)
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, subscriptionID uuid.UUID) (Subscription, error) {
	sub, err := s.store.GetByID(ctx, subscriptionID)
	if err != nil {
		return Subscription{}, err
	}
	if sub.Status.Terminal() {
		return Subscription{}, fmt.Errorf("%w: subscription is already %s", ErrInvalidStateTransition, sub.Status)
	}

	// Remote first so the provider stops billing even if it is slow; a
	// failure is logged and the local cancellation proceeds regardless.
	if s.gateway != nil && sub.ExternalID != "" {
		if err := s.gateway.CancelRemoteSubscription(ctx, sub.ExternalID); err != nil {
			s.logger.WarnContext(ctx, "remote subscription cancellation failed",
				logger.SubscriptionID(sub.ID),
				logger.Error(err),
				logger.Component("subscription"))
		}
	}

	err = s.atomic.WithinTx(ctx, func(ctx context.Context) error {
		return s.store.Transition(ctx, sub.ID, nonTerminalStatuses(), StatusCancelled)
	})
	if err != nil {
		return Subscription{}, err
	}

	cancelled, err := s.store.GetByID(ctx, sub.ID)
	if err != nil {
		return Subscription{}, err
	}

	// Entitlements stay until EndDate; ExpireOverdue revokes them once the
	// paid term runs out.
	s.logger.InfoContext(ctx, "subscription cancelled",
		logger.SubscriptionID(cancelled.ID),
		logger.SubscriberID(cancelled.SubscriberID),
		logger.Component("subscription"))
	return cancelled, nil
}

func (s *service) Expire(ctx context.Context, subscriptionID uuid.UUID) (Subscription, error) {
	var expired Subscription
	err := s.atomic.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := s.store.GetByID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if err := s.store.Transition(ctx, sub.ID, nonTerminalStatuses(), StatusExpired); err != nil {
			return err
		}
		if err := s.syncer.Revoke(ctx, sub.Assignment()); err != nil {
			return err
		}
		expired, err = s.store.GetByID(ctx, sub.ID)
		if err != nil {
			return err
		}
		expired.EntitlementsRevokedAt = s.now()
		expired.UpdatedAt = expired.EntitlementsRevokedAt
		return s.store.Update(ctx, expired)
	})
	if err != nil {
		return Subscription{}, err
	}

	s.logger.InfoContext(ctx, "subscription expired",
		logger.SubscriptionID(expired.ID),
		logger.SubscriberID(expired.SubscriberID),
		logger.Component("subscription"))
	return expired, nil
}

func (s *service) GetSubscription(ctx context.Context, subscriberID uuid.UUID) (Subscription, error) {
	return s.store.GetBySubscriber(ctx, subscriberID)
}

func (s *service) LinkExternalSubscription(ctx context.Context, subscriptionID uuid.UUID, externalID, externalCustomerID string) error {
	return s.atomic.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := s.store.GetByID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		sub.ExternalID = externalID
		sub.ExternalCustomerID = externalCustomerID
		sub.UpdatedAt = s.now()
		return s.store.Update(ctx, sub)
	})
}

func (s *service) ScanExpiring(ctx context.Context, withinDays int) ([]Subscription, error) {
	if withinDays <= 0 {
		withinDays = DefaultExpiryHorizonDays
	}
	now := s.now()
	subs, err := s.store.ListExpiring(ctx, now, now.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, errors.Join(ErrFailedToListSubscriptions, err)
	}
	return subs, nil
}

func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.store.ListOverdue(ctx, s.now())
	if err != nil {
		return 0, errors.Join(ErrFailedToListSubscriptions, err)
	}

	swept := 0
	var errs []error
	for _, sub := range overdue {
		if err := s.sweepOne(ctx, sub); err != nil {
			errs = append(errs, fmt.Errorf("%w %s: %v", ErrFailedToSweepSubscription, sub.ID, err))
			continue
		}
		swept++
	}

	if swept > 0 {
		s.logger.InfoContext(ctx, "swept overdue subscriptions",
			slog.Int("swept", swept),
			logger.Errors(errs...),
			logger.Component("subscription"))
	}
	return swept, errors.Join(errs...)
}

func (s *service) sweepOne(ctx context.Context, sub Subscription) error {
	return s.atomic.WithinTx(ctx, func(ctx context.Context) error {
		switch sub.Status {
		case StatusActive, StatusTrial:
			err := s.store.Transition(ctx, sub.ID, []Status{StatusActive, StatusTrial}, StatusExpired)
			if errors.Is(err, ErrInvalidStateTransition) {
				// Another sweeper or an explicit transition got here first.
				return nil
			}
			if err != nil {
				return err
			}
		case StatusCancelled:
			// Terminal stays terminal; only the entitlements go.
		default:
			return nil
		}

		if err := s.syncer.Revoke(ctx, sub.Assignment()); err != nil {
			return err
		}

		swept, err := s.store.GetByID(ctx, sub.ID)
		if err != nil {
			return err
		}
		swept.EntitlementsRevokedAt = s.now()
		swept.UpdatedAt = swept.EntitlementsRevokedAt
		return s.store.Update(ctx, swept)
	})
}

func (s *service) PaymentHistory(ctx context.Context, subscriberID uuid.UUID) ([]billing.Invoice, error) {
	sub, err := s.store.GetBySubscriber(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil || sub.ExternalID == "" || sub.ExternalCustomerID == "" {
		return []billing.Invoice{}, nil
	}

	invoices, err := s.gateway.ListInvoices(ctx, sub.ExternalCustomerID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list remote invoices",
			logger.SubscriberID(subscriberID),
			logger.Error(err),
			logger.Component("subscription"))
		return []billing.Invoice{}, nil
	}
	if invoices == nil {
		invoices = []billing.Invoice{}
	}
	return invoices, nil
}

// swapRemotePrice mirrors a plan change to the billing provider. Skipped for
// unlinked subscriptions; failures are logged and the local change stands.
func (s *service) swapRemotePrice(ctx context.Context, sub Subscription) {
	if s.gateway == nil || sub.ExternalID == "" {
		return
	}

	pricing, err := s.catalog.GetActivePricing(ctx, sub.PlanID, sub.Interval)
	if err != nil {
		s.logger.WarnContext(ctx, "no active pricing for remote price swap",
			logger.SubscriptionID(sub.ID),
			logger.PlanID(sub.PlanID),
			slog.String("interval", string(sub.Interval)),
			logger.Error(err),
			logger.Component("subscription"))
		return
	}
	if pricing.ExternalPriceID == "" {
		s.logger.DebugContext(ctx, "pricing has no remote reference, skipping price swap",
			logger.SubscriptionID(sub.ID),
			logger.PlanID(sub.PlanID),
			logger.Component("subscription"))
		return
	}

	if err := s.gateway.SwapSubscriptionPrice(ctx, sub.ExternalID, pricing.ExternalPriceID); err != nil {
		s.logger.WarnContext(ctx, "remote subscription price swap failed",
			logger.SubscriptionID(sub.ID),
			logger.Error(err),
			logger.Component("subscription"))
	}
}
