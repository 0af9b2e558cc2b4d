package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stockplus/plankit/pkg/billing"
	"github.com/stockplus/plankit/pkg/catalog"
	"github.com/stockplus/plankit/pkg/entitlement"
	"github.com/stockplus/plankit/pkg/poslimit"
	"github.com/stockplus/plankit/pkg/subscription"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store     *subscription.MemoryStore
	catalog   catalog.Service
	auth      *entitlement.MemoryAuthorizationStore
	resources *poslimit.MemoryResourceStore
	svc       subscription.Service
}

// newFixture wires the lifecycle service against in-memory stores. The
// optional gateway is attached to both the catalog (so plans and pricings
// get remote references) and the lifecycle service.
func newFixture(t *testing.T, gw billing.Gateway) *fixture {
	t.Helper()

	var catalogOpts []catalog.ServiceOption
	subOpts := []subscription.ServiceOption{
		subscription.WithNowFunc(func() time.Time { return testNow }),
	}
	if gw != nil {
		catalogOpts = append(catalogOpts, catalog.WithGateway(gw))
		subOpts = append(subOpts, subscription.WithGateway(gw))
	}

	store := subscription.NewMemoryStore()
	catalogSvc := catalog.NewService(catalog.NewMemoryStore(), catalogOpts...)
	auth := entitlement.NewMemoryAuthorizationStore()
	syncer := entitlement.NewSyncer(catalogSvc, auth)
	resources := poslimit.NewMemoryResourceStore()
	limiter := poslimit.NewLimiter(resources)

	return &fixture{
		store:     store,
		catalog:   catalogSvc,
		auth:      auth,
		resources: resources,
		svc:       subscription.NewService(store, store, catalogSvc, syncer, limiter, subOpts...),
	}
}

func (f *fixture) plan(t *testing.T, name string, posLimit int, freeTrial bool) catalog.Plan {
	t.Helper()

	in := catalog.CreatePlanInput{Name: name, POSLimit: posLimit}
	if freeTrial {
		in.IsFreeTrial = true
		in.TrialDays = 30
	}
	plan, err := f.catalog.CreatePlan(context.Background(), in)
	require.NoError(t, err)
	return plan
}

func (f *fixture) subscribe(t *testing.T, plan catalog.Plan, interval catalog.Interval) subscription.Subscription {
	t.Helper()

	sub, err := f.svc.Subscribe(context.Background(), subscription.SubscribeInput{
		SubscriberID: uuid.New(),
		Kind:         entitlement.KindUser,
		PlanID:       plan.ID,
		Interval:     interval,
	})
	require.NoError(t, err)
	return sub
}

func (f *fixture) activeSub(t *testing.T, plan catalog.Plan, interval catalog.Interval) subscription.Subscription {
	t.Helper()

	sub := f.subscribe(t, plan, interval)
	activated, err := f.svc.Activate(context.Background(), sub.ID)
	require.NoError(t, err)
	return activated
}

// backdate rewrites the subscription's EndDate directly in the store.
func (f *fixture) backdate(t *testing.T, id uuid.UUID, endDate time.Time) {
	t.Helper()

	sub, err := f.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	sub.EndDate = endDate
	require.NoError(t, f.store.Update(context.Background(), sub))
}

func (f *fixture) userGroups(t *testing.T, userID uuid.UUID) []uuid.UUID {
	t.Helper()

	groups, err := f.auth.UserGroups(context.Background(), userID)
	require.NoError(t, err)
	return groups
}

func TestNewService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	syncer := entitlement.NewSyncer(f.catalog, f.auth)
	limiter := poslimit.NewLimiter(f.resources)

	assert.Panics(t, func() {
		subscription.NewService(nil, f.store, f.catalog, syncer, limiter)
	})
	assert.Panics(t, func() {
		subscription.NewService(f.store, nil, f.catalog, syncer, limiter)
	})
	assert.Panics(t, func() {
		subscription.NewService(f.store, f.store, nil, syncer, limiter)
	})
	assert.Panics(t, func() {
		subscription.NewService(f.store, f.store, f.catalog, nil, limiter)
	})
	assert.Panics(t, func() {
		subscription.NewService(f.store, f.store, f.catalog, syncer, nil)
	})
}

func TestService_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("creates pending subscription with computed dates", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 1, false)
		sub := f.subscribe(t, plan, catalog.IntervalMonth)

		assert.Equal(t, subscription.StatusPending, sub.Status)
		assert.Equal(t, testNow, sub.StartDate)
		assert.Equal(t, testNow.AddDate(0, 0, 30), sub.EndDate)
		assert.Equal(t, sub.EndDate, sub.RenewalDate)
		assert.True(t, sub.TrialEndsAt.IsZero())

		// No entitlements before activation.
		assert.Empty(t, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("computes semester and year terms", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)

		semester := f.subscribe(t, plan, catalog.IntervalSemester)
		assert.Equal(t, testNow.AddDate(0, 0, 180), semester.EndDate)

		year := f.subscribe(t, plan, catalog.IntervalYear)
		assert.Equal(t, testNow.AddDate(0, 0, 365), year.EndDate)
	})

	t.Run("sets trial end for trial plans", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Free Trial", 1, true)
		sub := f.subscribe(t, plan, catalog.IntervalMonth)

		assert.Equal(t, testNow.AddDate(0, 0, 30), sub.TrialEndsAt)
	})

	t.Run("rejects unknown interval", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)

		_, err := f.svc.Subscribe(context.Background(), subscription.SubscribeInput{
			SubscriberID: uuid.New(),
			Kind:         entitlement.KindUser,
			PlanID:       plan.ID,
			Interval:     catalog.Interval("quarter"),
		})
		assert.ErrorIs(t, err, catalog.ErrInvalidInterval)
	})

	t.Run("rejects invalid subscriber kind", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)

		_, err := f.svc.Subscribe(context.Background(), subscription.SubscribeInput{
			SubscriberID: uuid.New(),
			Kind:         entitlement.SubscriberKind("team"),
			PlanID:       plan.ID,
			Interval:     catalog.IntervalMonth,
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidSubscriberKind)
	})

	t.Run("rejects unknown plan", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		_, err := f.svc.Subscribe(context.Background(), subscription.SubscribeInput{
			SubscriberID: uuid.New(),
			Kind:         entitlement.KindUser,
			PlanID:       uuid.New(),
			Interval:     catalog.IntervalMonth,
		})
		assert.ErrorIs(t, err, catalog.ErrPlanNotFound)
	})

	t.Run("rejects disabled plan", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		require.NoError(t, f.catalog.DisablePlan(context.Background(), plan.ID))

		_, err := f.svc.Subscribe(context.Background(), subscription.SubscribeInput{
			SubscriberID: uuid.New(),
			Kind:         entitlement.KindUser,
			PlanID:       plan.ID,
			Interval:     catalog.IntervalMonth,
		})
		assert.ErrorIs(t, err, catalog.ErrPlanNotFound)
	})

	t.Run("rejects second live subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.subscribe(t, plan, catalog.IntervalMonth)

		_, err := f.svc.Subscribe(context.Background(), subscription.SubscribeInput{
			SubscriberID: sub.SubscriberID,
			Kind:         entitlement.KindUser,
			PlanID:       plan.ID,
			Interval:     catalog.IntervalMonth,
		})
		assert.ErrorIs(t, err, subscription.ErrAlreadySubscribed)
	})

	t.Run("replaces a terminal record", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		old := f.activeSub(t, plan, catalog.IntervalMonth)
		_, err := f.svc.Cancel(context.Background(), old.ID)
		require.NoError(t, err)

		fresh, err := f.svc.Subscribe(context.Background(), subscription.SubscribeInput{
			SubscriberID: old.SubscriberID,
			Kind:         entitlement.KindUser,
			PlanID:       plan.ID,
			Interval:     catalog.IntervalMonth,
		})
		require.NoError(t, err)

		assert.NotEqual(t, old.ID, fresh.ID)
		assert.Equal(t, subscription.StatusPending, fresh.Status)

		// The old record is gone.
		_, err = f.store.GetByID(context.Background(), old.ID)
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

		current, err := f.svc.GetSubscription(context.Background(), old.SubscriberID)
		require.NoError(t, err)
		assert.Equal(t, fresh.ID, current.ID)
	})
}

func TestService_Activate(t *testing.T) {
	t.Parallel()

	t.Run("activates pending subscription and grants entitlements", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.subscribe(t, plan, catalog.IntervalMonth)

		activated, err := f.svc.Activate(context.Background(), sub.ID)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusActive, activated.Status)
		assert.Equal(t, []uuid.UUID{plan.GroupID}, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("trial plans activate into trial status", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Free Trial", 1, true)
		sub := f.subscribe(t, plan, catalog.IntervalMonth)

		activated, err := f.svc.Activate(context.Background(), sub.ID)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusTrial, activated.Status)
		assert.Equal(t, []uuid.UUID{plan.GroupID}, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("rejects non-pending subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)

		_, err := f.svc.Activate(context.Background(), sub.ID)
		assert.ErrorIs(t, err, subscription.ErrInvalidStateTransition)
	})

	t.Run("returns not found for unknown subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		_, err := f.svc.Activate(context.Background(), uuid.New())
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("concurrent activations succeed exactly once", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.subscribe(t, plan, catalog.IntervalMonth)

		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Activate(context.Background(), sub.ID)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		wins, losses := 0, 0
		for err := range results {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, subscription.ErrInvalidStateTransition):
				losses++
			default:
				t.Fatalf("unexpected activation error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, workers-1, losses)

		assert.Equal(t, []uuid.UUID{plan.GroupID}, f.userGroups(t, sub.SubscriberID))
	})
}

func TestService_ChangePlan(t *testing.T) {
	t.Parallel()

	t.Run("moves the plan pointer and re-grants entitlements", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		starter := f.plan(t, "Starter", 0, false)
		premium := f.plan(t, "Premium", 0, false)
		sub := f.activeSub(t, starter, catalog.IntervalMonth)

		updated, err := f.svc.ChangePlan(context.Background(), sub.ID, premium.ID)
		require.NoError(t, err)

		assert.Equal(t, premium.ID, updated.PlanID)
		assert.Equal(t, []uuid.UUID{premium.GroupID}, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("enforces the new plan limit before the move", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		big := f.plan(t, "Big", 0, false)
		small := f.plan(t, "Small", 1, false)
		sub := f.activeSub(t, big, catalog.IntervalMonth)

		base := testNow.Add(-24 * time.Hour)
		ids := make([]uuid.UUID, 3)
		for i := 0; i < 3; i++ {
			ids[i] = uuid.New()
			f.resources.Add(poslimit.Resource{
				ID:        ids[i],
				OwnerID:   sub.SubscriberID,
				Active:    true,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
		}

		_, err := f.svc.ChangePlan(context.Background(), sub.ID, small.ID)
		require.NoError(t, err)

		oldest, _ := f.resources.Get(ids[0])
		assert.True(t, oldest.Active)
		for _, id := range ids[1:] {
			r, _ := f.resources.Get(id)
			assert.False(t, r.Active)
		}
	})

	t.Run("pending subscriptions move without entitlement changes", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		starter := f.plan(t, "Starter", 0, false)
		premium := f.plan(t, "Premium", 0, false)
		sub := f.subscribe(t, starter, catalog.IntervalMonth)

		updated, err := f.svc.ChangePlan(context.Background(), sub.ID, premium.ID)
		require.NoError(t, err)

		assert.Equal(t, premium.ID, updated.PlanID)
		assert.Empty(t, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("rejects terminal subscriptions", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		starter := f.plan(t, "Starter", 0, false)
		premium := f.plan(t, "Premium", 0, false)
		sub := f.activeSub(t, starter, catalog.IntervalMonth)
		_, err := f.svc.Cancel(context.Background(), sub.ID)
		require.NoError(t, err)

		_, err = f.svc.ChangePlan(context.Background(), sub.ID, premium.ID)
		assert.ErrorIs(t, err, subscription.ErrInvalidStateTransition)
	})

	t.Run("rejects unknown or disabled target plan", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		starter := f.plan(t, "Starter", 0, false)
		retired := f.plan(t, "Retired", 0, false)
		require.NoError(t, f.catalog.DisablePlan(context.Background(), retired.ID))
		sub := f.activeSub(t, starter, catalog.IntervalMonth)

		_, err := f.svc.ChangePlan(context.Background(), sub.ID, uuid.New())
		assert.ErrorIs(t, err, catalog.ErrPlanNotFound)

		_, err = f.svc.ChangePlan(context.Background(), sub.ID, retired.ID)
		assert.ErrorIs(t, err, catalog.ErrPlanNotFound)
	})

	t.Run("swaps the remote price after commit", func(t *testing.T) {
		t.Parallel()

		gw := billing.NewNoopGateway()
		f := newFixture(t, gw)
		starter := f.plan(t, "Starter", 0, false)
		premium := f.plan(t, "Premium", 0, false)

		pricing, err := f.catalog.CreatePricing(context.Background(), catalog.CreatePricingInput{
			PlanID:   premium.ID,
			Interval: catalog.IntervalMonth,
			Price:    decimal.NewFromInt(29),
			Currency: "EUR",
		})
		require.NoError(t, err)
		require.NotEmpty(t, pricing.ExternalPriceID)

		sub := f.activeSub(t, starter, catalog.IntervalMonth)
		require.NoError(t, f.svc.LinkExternalSubscription(context.Background(), sub.ID, "sub_ext_1", "cus_1"))

		_, err = f.svc.ChangePlan(context.Background(), sub.ID, premium.ID)
		require.NoError(t, err)

		assert.Equal(t, pricing.ExternalPriceID, gw.Swapped["sub_ext_1"])
	})

	t.Run("skips the remote swap for unlinked subscriptions", func(t *testing.T) {
		t.Parallel()

		gw := billing.NewNoopGateway()
		f := newFixture(t, gw)
		starter := f.plan(t, "Starter", 0, false)
		premium := f.plan(t, "Premium", 0, false)
		sub := f.activeSub(t, starter, catalog.IntervalMonth)

		_, err := f.svc.ChangePlan(context.Background(), sub.ID, premium.ID)
		require.NoError(t, err)
		assert.Empty(t, gw.Swapped)
	})
}

func TestService_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("cancels and keeps entitlements until the term ends", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)

		cancelled, err := f.svc.Cancel(context.Background(), sub.ID)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusCancelled, cancelled.Status)
		// Access is retained: the paid term has not run out yet.
		assert.Equal(t, []uuid.UUID{plan.GroupID}, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("cancels the remote subscription when linked", func(t *testing.T) {
		t.Parallel()

		gw := billing.NewNoopGateway()
		f := newFixture(t, gw)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)
		require.NoError(t, f.svc.LinkExternalSubscription(context.Background(), sub.ID, "sub_ext_9", "cus_9"))

		_, err := f.svc.Cancel(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub_ext_9"}, gw.Cancelled)
	})

	t.Run("remote failure does not block local cancellation", func(t *testing.T) {
		t.Parallel()

		gw := billing.NewMockGateway()
		gw.On("CancelRemoteSubscription", mock.Anything, "sub_ext_2").
			Return(assert.AnError)

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)

		// Wire the failing gateway into a second service over the same store.
		syncer := entitlement.NewSyncer(f.catalog, f.auth)
		limiter := poslimit.NewLimiter(f.resources)
		svc := subscription.NewService(f.store, f.store, f.catalog, syncer, limiter,
			subscription.WithGateway(gw),
			subscription.WithNowFunc(func() time.Time { return testNow }))

		require.NoError(t, svc.LinkExternalSubscription(context.Background(), sub.ID, "sub_ext_2", "cus_2"))

		cancelled, err := svc.Cancel(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, cancelled.Status)
		gw.AssertExpectations(t)
	})

	t.Run("rejects terminal subscriptions", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)
		_, err := f.svc.Cancel(context.Background(), sub.ID)
		require.NoError(t, err)

		_, err = f.svc.Cancel(context.Background(), sub.ID)
		assert.ErrorIs(t, err, subscription.ErrInvalidStateTransition)
	})
}

func TestService_Expire(t *testing.T) {
	t.Parallel()

	t.Run("expires and revokes immediately", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)

		expired, err := f.svc.Expire(context.Background(), sub.ID)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusExpired, expired.Status)
		assert.Equal(t, testNow, expired.EntitlementsRevokedAt)
		assert.Empty(t, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("rejects terminal subscriptions", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)
		_, err := f.svc.Expire(context.Background(), sub.ID)
		require.NoError(t, err)

		_, err = f.svc.Expire(context.Background(), sub.ID)
		assert.ErrorIs(t, err, subscription.ErrInvalidStateTransition)
	})
}

func TestService_ScanExpiring(t *testing.T) {
	t.Parallel()

	t.Run("returns subscriptions inside the horizon", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)

		soon := f.activeSub(t, plan, catalog.IntervalDay)      // ends tomorrow
		far := f.activeSub(t, plan, catalog.IntervalMonth)     // ends in 30 days
		pending := f.subscribe(t, plan, catalog.IntervalDay)   // not active
		past := f.activeSub(t, plan, catalog.IntervalWeek)     // backdated below
		f.backdate(t, past.ID, testNow.Add(-time.Hour))

		expiring, err := f.svc.ScanExpiring(context.Background(), 3)
		require.NoError(t, err)

		ids := make([]uuid.UUID, 0, len(expiring))
		for _, sub := range expiring {
			ids = append(ids, sub.ID)
		}
		assert.Equal(t, []uuid.UUID{soon.ID}, ids)
		assert.NotContains(t, ids, far.ID)
		assert.NotContains(t, ids, pending.ID)
		assert.NotContains(t, ids, past.ID)
	})

	t.Run("mutates nothing", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalDay)

		_, err := f.svc.ScanExpiring(context.Background(), 3)
		require.NoError(t, err)

		after, err := f.store.GetByID(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, after.Status)
		assert.Equal(t, []uuid.UUID{plan.GroupID}, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("defaults the horizon when non-positive", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		soon := f.activeSub(t, plan, catalog.IntervalDay)

		expiring, err := f.svc.ScanExpiring(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, expiring, 1)
		assert.Equal(t, soon.ID, expiring[0].ID)
	})
}

func TestService_ExpireOverdue(t *testing.T) {
	t.Parallel()

	t.Run("expires overdue active subscriptions and revokes", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)
		f.backdate(t, sub.ID, testNow.Add(-time.Hour))

		swept, err := f.svc.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, swept)

		after, err := f.store.GetByID(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusExpired, after.Status)
		assert.Equal(t, testNow, after.EntitlementsRevokedAt)
		assert.Empty(t, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("revokes overdue cancelled subscriptions without resurrecting them", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)
		_, err := f.svc.Cancel(context.Background(), sub.ID)
		require.NoError(t, err)
		f.backdate(t, sub.ID, testNow.Add(-time.Hour))

		require.Equal(t, []uuid.UUID{plan.GroupID}, f.userGroups(t, sub.SubscriberID))

		swept, err := f.svc.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, swept)

		after, err := f.store.GetByID(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, after.Status)
		assert.Empty(t, f.userGroups(t, sub.SubscriberID))
	})

	t.Run("second sweep finds nothing", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)

		active := f.activeSub(t, plan, catalog.IntervalMonth)
		f.backdate(t, active.ID, testNow.Add(-time.Hour))

		cancelledSub := f.activeSub(t, plan, catalog.IntervalMonth)
		_, err := f.svc.Cancel(context.Background(), cancelledSub.ID)
		require.NoError(t, err)
		f.backdate(t, cancelledSub.ID, testNow.Add(-time.Hour))

		swept, err := f.svc.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, swept)

		swept, err = f.svc.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Zero(t, swept)
	})

	t.Run("leaves current subscriptions untouched", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)

		swept, err := f.svc.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Zero(t, swept)

		after, err := f.store.GetByID(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, after.Status)
	})
}

func TestService_LinkExternalSubscription(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	plan := f.plan(t, "Starter", 0, false)
	sub := f.subscribe(t, plan, catalog.IntervalMonth)

	require.NoError(t, f.svc.LinkExternalSubscription(context.Background(), sub.ID, "sub_ext_5", "cus_5"))

	linked, err := f.store.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub_ext_5", linked.ExternalID)
	assert.Equal(t, "cus_5", linked.ExternalCustomerID)

	err = f.svc.LinkExternalSubscription(context.Background(), uuid.New(), "x", "y")
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
}

func TestService_PaymentHistory(t *testing.T) {
	t.Parallel()

	t.Run("returns not found without a subscription", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		_, err := f.svc.PaymentHistory(context.Background(), uuid.New())
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("returns empty history for unlinked subscriptions", func(t *testing.T) {
		t.Parallel()

		gw := billing.NewNoopGateway()
		f := newFixture(t, gw)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)

		invoices, err := f.svc.PaymentHistory(context.Background(), sub.SubscriberID)
		require.NoError(t, err)
		assert.Empty(t, invoices)
	})

	t.Run("lists invoices through the gateway", func(t *testing.T) {
		t.Parallel()

		want := []billing.Invoice{
			{ID: "in_1", Amount: decimal.NewFromFloat(29.90), Currency: "eur", Status: "paid"},
			{ID: "in_2", Amount: decimal.NewFromFloat(29.90), Currency: "eur", Status: "open"},
		}
		gw := billing.NewMockGateway()
		gw.On("CreateRemoteProduct", mock.Anything, mock.Anything).Return("prod_x", nil)
		gw.On("ListInvoices", mock.Anything, "cus_7").Return(want, nil)

		f := newFixture(t, gw)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)
		require.NoError(t, f.svc.LinkExternalSubscription(context.Background(), sub.ID, "sub_ext_7", "cus_7"))

		invoices, err := f.svc.PaymentHistory(context.Background(), sub.SubscriberID)
		require.NoError(t, err)
		assert.Equal(t, want, invoices)
	})

	t.Run("gateway failure yields empty history, not an error", func(t *testing.T) {
		t.Parallel()

		gw := billing.NewMockGateway()
		gw.On("CreateRemoteProduct", mock.Anything, mock.Anything).Return("prod_x", nil)
		gw.On("ListInvoices", mock.Anything, "cus_8").Return(nil, assert.AnError)

		f := newFixture(t, gw)
		plan := f.plan(t, "Starter", 0, false)
		sub := f.activeSub(t, plan, catalog.IntervalMonth)
		require.NoError(t, f.svc.LinkExternalSubscription(context.Background(), sub.ID, "sub_ext_8", "cus_8"))

		invoices, err := f.svc.PaymentHistory(context.Background(), sub.SubscriberID)
		require.NoError(t, err)
		assert.Empty(t, invoices)
	})
}
