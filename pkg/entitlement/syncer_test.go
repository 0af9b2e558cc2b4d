package entitlement_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stockplus/plankit/pkg/catalog"
	"github.com/stockplus/plankit/pkg/entitlement"
)

type mockGroupCatalog struct {
	mock.Mock
}

func (m *mockGroupCatalog) GetPlan(ctx context.Context, id uuid.UUID) (catalog.Plan, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Plan), args.Error(1)
}

func (m *mockGroupCatalog) ActivePlanGroupIDs(ctx context.Context, excludePlanID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, excludePlanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// newCatalogWithPlans seeds a live catalog with the named plans and returns
// the service plus the created plans keyed by name.
func newCatalogWithPlans(t *testing.T, names ...string) (catalog.Service, map[string]catalog.Plan) {
	t.Helper()

	svc := catalog.NewService(catalog.NewMemoryStore())
	plans := make(map[string]catalog.Plan, len(names))
	for _, name := range names {
		plan, err := svc.CreatePlan(context.Background(), catalog.CreatePlanInput{Name: name})
		require.NoError(t, err)
		plans[name] = plan
	}
	return svc, plans
}

func TestNewSyncer_RequiresDependencies(t *testing.T) {
	t.Parallel()

	svc, _ := newCatalogWithPlans(t)

	assert.Panics(t, func() {
		entitlement.NewSyncer(nil, entitlement.NewMemoryAuthorizationStore())
	})
	assert.Panics(t, func() {
		entitlement.NewSyncer(svc, nil)
	})
}

func TestSyncer_Grant(t *testing.T) {
	t.Parallel()

	t.Run("grants plan group to user", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter")
		auth := entitlement.NewMemoryAuthorizationStore()
		syncer := entitlement.NewSyncer(svc, auth)

		userID := uuid.New()
		err := syncer.Grant(context.Background(), entitlement.Assignment{
			SubscriberID: userID,
			Kind:         entitlement.KindUser,
			PlanID:       plans["Starter"].ID,
		})
		require.NoError(t, err)

		groups, err := auth.UserGroups(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{plans["Starter"].GroupID}, groups)
	})

	t.Run("moves user between plan groups", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter", "Premium")
		auth := entitlement.NewMemoryAuthorizationStore()
		syncer := entitlement.NewSyncer(svc, auth)

		userID := uuid.New()
		grant := func(name string) {
			require.NoError(t, syncer.Grant(context.Background(), entitlement.Assignment{
				SubscriberID: userID,
				Kind:         entitlement.KindUser,
				PlanID:       plans[name].ID,
			}))
		}

		grant("Starter")
		grant("Premium")

		groups, err := auth.UserGroups(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{plans["Premium"].GroupID}, groups)
	})

	t.Run("preserves unrelated groups and their order", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter", "Premium")
		auth := entitlement.NewMemoryAuthorizationStore()
		syncer := entitlement.NewSyncer(svc, auth)

		userID := uuid.New()
		roleA, roleB := uuid.New(), uuid.New()
		require.NoError(t, auth.SetUserGroups(context.Background(), userID,
			[]uuid.UUID{roleA, plans["Premium"].GroupID, roleB}))

		err := syncer.Grant(context.Background(), entitlement.Assignment{
			SubscriberID: userID,
			Kind:         entitlement.KindUser,
			PlanID:       plans["Starter"].ID,
		})
		require.NoError(t, err)

		groups, err := auth.UserGroups(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{roleA, roleB, plans["Starter"].GroupID}, groups)
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter")
		auth := entitlement.NewMemoryAuthorizationStore()
		syncer := entitlement.NewSyncer(svc, auth)

		userID := uuid.New()
		a := entitlement.Assignment{
			SubscriberID: userID,
			Kind:         entitlement.KindUser,
			PlanID:       plans["Starter"].ID,
		}
		require.NoError(t, syncer.Grant(context.Background(), a))
		require.NoError(t, syncer.Grant(context.Background(), a))

		groups, err := auth.UserGroups(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{plans["Starter"].GroupID}, groups)
	})

	t.Run("fans out to company members", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter")
		auth := entitlement.NewMemoryAuthorizationStore()
		directory := entitlement.NewMemoryMemberDirectory()

		companyID := uuid.New()
		memberIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		directory.SetMembers(companyID, memberIDs...)

		syncer := entitlement.NewSyncer(svc, auth, entitlement.WithMemberDirectory(directory))
		err := syncer.Grant(context.Background(), entitlement.Assignment{
			SubscriberID: companyID,
			Kind:         entitlement.KindCompany,
			PlanID:       plans["Starter"].ID,
		})
		require.NoError(t, err)

		for _, memberID := range memberIDs {
			groups, err := auth.UserGroups(context.Background(), memberID)
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{plans["Starter"].GroupID}, groups)
		}

		// The company itself holds nothing.
		companyGroups, err := auth.UserGroups(context.Background(), companyID)
		require.NoError(t, err)
		assert.Empty(t, companyGroups)
	})

	t.Run("requires member directory for companies", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter")
		syncer := entitlement.NewSyncer(svc, entitlement.NewMemoryAuthorizationStore())

		err := syncer.Grant(context.Background(), entitlement.Assignment{
			SubscriberID: uuid.New(),
			Kind:         entitlement.KindCompany,
			PlanID:       plans["Starter"].ID,
		})
		assert.ErrorIs(t, err, entitlement.ErrMemberDirectoryRequired)
	})

	t.Run("rejects invalid subscriber kind", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter")
		syncer := entitlement.NewSyncer(svc, entitlement.NewMemoryAuthorizationStore())

		err := syncer.Grant(context.Background(), entitlement.Assignment{
			SubscriberID: uuid.New(),
			Kind:         entitlement.SubscriberKind("team"),
			PlanID:       plans["Starter"].ID,
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidSubscriberKind)
	})

	t.Run("skips plans without a group", func(t *testing.T) {
		t.Parallel()

		planID := uuid.New()
		groupCatalog := &mockGroupCatalog{}
		groupCatalog.On("GetPlan", mock.Anything, planID).
			Return(catalog.Plan{ID: planID, Name: "Groupless"}, nil)

		auth := entitlement.NewMemoryAuthorizationStore()
		syncer := entitlement.NewSyncer(groupCatalog, auth)

		userID := uuid.New()
		err := syncer.Grant(context.Background(), entitlement.Assignment{
			SubscriberID: userID,
			Kind:         entitlement.KindUser,
			PlanID:       planID,
		})
		require.NoError(t, err)

		groups, err := auth.UserGroups(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, groups)
		groupCatalog.AssertNotCalled(t, "ActivePlanGroupIDs", mock.Anything, mock.Anything)
	})

	t.Run("user holds at most one plan group", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter", "Premium", "Enterprise")
		auth := entitlement.NewMemoryAuthorizationStore()
		syncer := entitlement.NewSyncer(svc, auth)

		planGroups := make([]uuid.UUID, 0, len(plans))
		for _, p := range plans {
			planGroups = append(planGroups, p.GroupID)
		}

		userID := uuid.New()
		for _, name := range []string{"Starter", "Premium", "Enterprise", "Starter"} {
			require.NoError(t, syncer.Grant(context.Background(), entitlement.Assignment{
				SubscriberID: userID,
				Kind:         entitlement.KindUser,
				PlanID:       plans[name].ID,
			}))

			groups, err := auth.UserGroups(context.Background(), userID)
			require.NoError(t, err)

			held := 0
			for _, g := range groups {
				for _, pg := range planGroups {
					if g == pg {
						held++
					}
				}
			}
			assert.Equal(t, 1, held, "after granting %s", name)
		}
	})
}

func TestSyncer_Revoke(t *testing.T) {
	t.Parallel()

	t.Run("removes exactly the plan group", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter")
		auth := entitlement.NewMemoryAuthorizationStore()
		syncer := entitlement.NewSyncer(svc, auth)

		userID := uuid.New()
		role := uuid.New()
		require.NoError(t, auth.SetUserGroups(context.Background(), userID,
			[]uuid.UUID{role, plans["Starter"].GroupID}))

		err := syncer.Revoke(context.Background(), entitlement.Assignment{
			SubscriberID: userID,
			Kind:         entitlement.KindUser,
			PlanID:       plans["Starter"].ID,
		})
		require.NoError(t, err)

		groups, err := auth.UserGroups(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{role}, groups)
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter")
		auth := entitlement.NewMemoryAuthorizationStore()
		syncer := entitlement.NewSyncer(svc, auth)

		userID := uuid.New()
		a := entitlement.Assignment{
			SubscriberID: userID,
			Kind:         entitlement.KindUser,
			PlanID:       plans["Starter"].ID,
		}
		require.NoError(t, syncer.Revoke(context.Background(), a))
		require.NoError(t, syncer.Revoke(context.Background(), a))

		groups, err := auth.UserGroups(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("revokes from all company members", func(t *testing.T) {
		t.Parallel()

		svc, plans := newCatalogWithPlans(t, "Starter")
		auth := entitlement.NewMemoryAuthorizationStore()
		directory := entitlement.NewMemoryMemberDirectory()

		companyID := uuid.New()
		memberIDs := []uuid.UUID{uuid.New(), uuid.New()}
		directory.SetMembers(companyID, memberIDs...)
		for _, memberID := range memberIDs {
			require.NoError(t, auth.SetUserGroups(context.Background(), memberID,
				[]uuid.UUID{plans["Starter"].GroupID}))
		}

		syncer := entitlement.NewSyncer(svc, auth, entitlement.WithMemberDirectory(directory))
		err := syncer.Revoke(context.Background(), entitlement.Assignment{
			SubscriberID: companyID,
			Kind:         entitlement.KindCompany,
			PlanID:       plans["Starter"].ID,
		})
		require.NoError(t, err)

		for _, memberID := range memberIDs {
			groups, err := auth.UserGroups(context.Background(), memberID)
			require.NoError(t, err)
			assert.Empty(t, groups)
		}
	})

	t.Run("surfaces plan lookup failure", func(t *testing.T) {
		t.Parallel()

		svc, _ := newCatalogWithPlans(t)
		syncer := entitlement.NewSyncer(svc, entitlement.NewMemoryAuthorizationStore())

		err := syncer.Revoke(context.Background(), entitlement.Assignment{
			SubscriberID: uuid.New(),
			Kind:         entitlement.KindUser,
			PlanID:       uuid.New(),
		})
		assert.ErrorIs(t, err, entitlement.ErrFailedToResolvePlanGroup)
		assert.ErrorIs(t, err, catalog.ErrPlanNotFound)
	})
}
