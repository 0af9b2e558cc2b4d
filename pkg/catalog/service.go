package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/stockplus/plankit/pkg/billing"
	"github.com/stockplus/plankit/pkg/logger"
)

// Service manages the plan catalog: the plans an operator offers and the
// pricing tiers attached to them. Plan mutations are administrative and
// infrequent; reads back the subscription lifecycle on its hot path.
type Service interface {
	// CreatePlan validates and persists a new plan, then registers it with
	// the billing provider. Provisioning failures are logged, not returned:
	// the catalog stays authoritative and the external reference can be
	// retried later.
	CreatePlan(ctx context.Context, in CreatePlanInput) (Plan, error)

	// UpdatePlan applies a partial update; nil input fields keep their
	// current value.
	UpdatePlan(ctx context.Context, id uuid.UUID, in UpdatePlanInput) (Plan, error)

	// DisablePlan soft-disables a plan so it no longer appears in listings.
	// Existing subscriptions keep their referent.
	DisablePlan(ctx context.Context, id uuid.UUID) error

	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)
	GetPlanByName(ctx context.Context, name string) (Plan, error)
	ListActivePlans(ctx context.Context) ([]Plan, error)

	// ActivePlanGroupIDs returns the authorization group of every active
	// plan except the one identified by excludePlanID. Entitlement sync
	// subtracts this set from a user's groups before granting the new
	// plan's group.
	ActivePlanGroupIDs(ctx context.Context, excludePlanID uuid.UUID) ([]uuid.UUID, error)

	// CreatePricing persists a new enabled pricing tier. Any previously
	// enabled pricing for the same (plan, interval) pair is disabled in the
	// same transaction.
	CreatePricing(ctx context.Context, in CreatePricingInput) (Pricing, error)

	GetActivePricing(ctx context.Context, planID uuid.UUID, interval Interval) (Pricing, error)
	ListPlanPricings(ctx context.Context, planID uuid.UUID) ([]Pricing, error)
}

type service struct {
	store     Store
	gateway   billing.Gateway
	allowlist []string
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a catalog service backed by the given store.
// Panics if store is nil since the service cannot operate without it.
func NewService(store Store, opts ...ServiceOption) Service {
	if store == nil {
		panic("catalog: store is required")
	}

	s := &service{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) CreatePlan(ctx context.Context, in CreatePlanInput) (Plan, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Plan{}, ErrPlanNameRequired
	}
	if in.TrialDays < 0 || (in.IsFreeTrial && in.TrialDays == 0) {
		return Plan{}, ErrInvalidTrialDays
	}
	if in.POSLimit < 0 {
		return Plan{}, ErrNegativePOSLimit
	}
	if err := s.checkPermissions(in.Permissions); err != nil {
		return Plan{}, err
	}
	if _, err := s.store.GetPlanByName(ctx, name); err == nil {
		return Plan{}, ErrPlanNameTaken
	} else if !errors.Is(err, ErrPlanNotFound) {
		return Plan{}, err
	}

	groupID := in.GroupID
	if groupID == uuid.Nil {
		groupID = uuid.New()
	}

	now := s.now()
	plan := Plan{
		ID:          uuid.New(),
		Name:        name,
		Description: in.Description,
		Active:      true,
		Features:    slices.Clone(in.Features),
		GroupID:     groupID,
		Permissions: slices.Clone(in.Permissions),
		POSLimit:    in.POSLimit,
		IsFreeTrial: in.IsFreeTrial,
		TrialDays:   in.TrialDays,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return Plan{}, err
	}

	return s.provisionProduct(ctx, plan), nil
}

func (s *service) UpdatePlan(ctx context.Context, id uuid.UUID, in UpdatePlanInput) (Plan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Plan{}, ErrPlanNameRequired
		}
		plan.Name = name
	}
	if in.Description != nil {
		plan.Description = *in.Description
	}
	if in.Features != nil {
		plan.Features = slices.Clone(*in.Features)
	}
	if in.Permissions != nil {
		if err := s.checkPermissions(*in.Permissions); err != nil {
			return Plan{}, err
		}
		plan.Permissions = slices.Clone(*in.Permissions)
	}
	if in.POSLimit != nil {
		if *in.POSLimit < 0 {
			return Plan{}, ErrNegativePOSLimit
		}
		plan.POSLimit = *in.POSLimit
	}

	plan.UpdatedAt = s.now()
	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (s *service) DisablePlan(ctx context.Context, id uuid.UUID) error {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if !plan.Active {
		return nil
	}

	plan.Active = false
	plan.UpdatedAt = s.now()
	return s.store.UpdatePlan(ctx, plan)
}

func (s *service) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	return s.store.GetPlan(ctx, id)
}

func (s *service) GetPlanByName(ctx context.Context, name string) (Plan, error) {
	return s.store.GetPlanByName(ctx, strings.TrimSpace(name))
}

func (s *service) ListActivePlans(ctx context.Context) ([]Plan, error) {
	return s.store.ListActivePlans(ctx)
}

func (s *service) ActivePlanGroupIDs(ctx context.Context, excludePlanID uuid.UUID) ([]uuid.UUID, error) {
	plans, err := s.store.ListActivePlans(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	groups := make([]uuid.UUID, 0, len(plans))
	for _, plan := range plans {
		if plan.ID == excludePlanID || plan.GroupID == uuid.Nil {
			continue
		}
		if !slices.Contains(groups, plan.GroupID) {
			groups = append(groups, plan.GroupID)
		}
	}
	return groups, nil
}

func (s *service) CreatePricing(ctx context.Context, in CreatePricingInput) (Pricing, error) {
	if !in.Interval.Valid() {
		return Pricing{}, fmt.Errorf("%w: %q", ErrInvalidInterval, in.Interval)
	}
	if in.Price.IsNegative() {
		return Pricing{}, ErrNegativePrice
	}
	unit, err := currency.ParseISO(in.Currency)
	if err != nil {
		return Pricing{}, errors.Join(ErrInvalidCurrency, err)
	}

	plan, err := s.store.GetPlan(ctx, in.PlanID)
	if err != nil {
		return Pricing{}, err
	}

	pricing := Pricing{
		ID:        uuid.New(),
		PlanID:    plan.ID,
		Interval:  in.Interval,
		Price:     in.Price,
		Currency:  unit.String(),
		Enabled:   true,
		CreatedAt: s.now(),
	}

	if err := s.store.CreatePricing(ctx, pricing); err != nil {
		return Pricing{}, err
	}

	return s.provisionPrice(ctx, plan, pricing), nil
}

func (s *service) GetActivePricing(ctx context.Context, planID uuid.UUID, interval Interval) (Pricing, error) {
	return s.store.GetActivePricing(ctx, planID, interval)
}

func (s *service) ListPlanPricings(ctx context.Context, planID uuid.UUID) ([]Pricing, error) {
	return s.store.ListPlanPricings(ctx, planID)
}

func (s *service) checkPermissions(perms []string) error {
	if len(s.allowlist) == 0 {
		return nil
	}
	for _, p := range perms {
		if !slices.Contains(s.allowlist, p) {
			return fmt.Errorf("%w: %q", ErrPermissionNotAllowed, p)
		}
	}
	return nil
}

// provisionProduct registers the plan with the billing provider and stores
// the returned reference. Failures leave ExternalProductID empty.
func (s *service) provisionProduct(ctx context.Context, plan Plan) Plan {
	if s.gateway == nil {
		return plan
	}

	extID, err := s.gateway.CreateRemoteProduct(ctx, billing.Product{
		Name:        plan.Name,
		Description: plan.Description,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "remote product provisioning failed",
			logger.PlanID(plan.ID),
			logger.Error(err),
			logger.Component("catalog"))
		return plan
	}

	plan.ExternalProductID = extID
	plan.UpdatedAt = s.now()
	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist remote product reference",
			logger.PlanID(plan.ID),
			logger.Error(err),
			logger.Component("catalog"))
	}
	return plan
}

// provisionPrice registers the pricing with the billing provider. Skipped
// when the plan itself was never provisioned.
func (s *service) provisionPrice(ctx context.Context, plan Plan, pricing Pricing) Pricing {
	if s.gateway == nil {
		return pricing
	}
	if plan.ExternalProductID == "" {
		s.logger.DebugContext(ctx, "skipping remote price provisioning: plan has no remote product",
			logger.PlanID(plan.ID),
			logger.Component("catalog"))
		return pricing
	}

	extID, err := s.gateway.CreateRemotePrice(ctx, billing.Price{
		Amount:   pricing.Price,
		Currency: pricing.Currency,
		Interval: string(pricing.Interval),
	}, plan.ExternalProductID)
	if err != nil {
		s.logger.WarnContext(ctx, "remote price provisioning failed",
			logger.PlanID(plan.ID),
			logger.Error(err),
			logger.Component("catalog"))
		return pricing
	}

	pricing.ExternalPriceID = extID
	if err := s.store.UpdatePricing(ctx, pricing); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist remote price reference",
			logger.PlanID(plan.ID),
			logger.Error(err),
			logger.Component("catalog"))
	}
	return pricing
}
