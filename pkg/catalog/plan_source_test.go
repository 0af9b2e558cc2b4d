package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockplus/plankit/pkg/catalog"
)

const planDefinitions = `
plans:
  - name: Starter
    description: For small shops
    pos_limit: 1
    permissions:
      - stater
    features:
      - name: Inventory
        description: Track stock levels
    pricings:
      - interval: month
        price: "9.90"
        currency: eur
  - name: Premium
    description: Unlimited points of sale
    pos_limit: 0
    pricings:
      - interval: month
        price: "29.90"
        currency: eur
      - interval: year
        price: "299.00"
        currency: eur
`

func writePlanFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "plans.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlansFromFile(t *testing.T) {
	t.Parallel()

	t.Run("seeds plans and pricings", func(t *testing.T) {
		t.Parallel()

		svc := newTestService()
		path := writePlanFile(t, planDefinitions)

		created, err := catalog.LoadPlansFromFile(context.Background(), svc, path)
		require.NoError(t, err)
		require.Len(t, created, 2)

		starter, err := svc.GetPlanByName(context.Background(), "Starter")
		require.NoError(t, err)
		assert.Equal(t, 1, starter.POSLimit)
		assert.Equal(t, []string{"stater"}, starter.Permissions)
		require.Len(t, starter.Features, 1)
		assert.Equal(t, "Inventory", starter.Features[0].Name)

		pricing, err := svc.GetActivePricing(context.Background(), starter.ID, catalog.IntervalMonth)
		require.NoError(t, err)
		assert.True(t, pricing.Price.Equal(decimal.RequireFromString("9.90")))
		assert.Equal(t, "EUR", pricing.Currency)

		premium, err := svc.GetPlanByName(context.Background(), "Premium")
		require.NoError(t, err)
		assert.Equal(t, 0, premium.POSLimit)

		yearly, err := svc.GetActivePricing(context.Background(), premium.ID, catalog.IntervalYear)
		require.NoError(t, err)
		assert.True(t, yearly.Price.Equal(decimal.RequireFromString("299.00")))
	})

	t.Run("is idempotent by plan name", func(t *testing.T) {
		t.Parallel()

		svc := newTestService()
		path := writePlanFile(t, planDefinitions)

		first, err := catalog.LoadPlansFromFile(context.Background(), svc, path)
		require.NoError(t, err)
		require.Len(t, first, 2)

		second, err := catalog.LoadPlansFromFile(context.Background(), svc, path)
		require.NoError(t, err)
		assert.Empty(t, second)

		plans, err := svc.ListActivePlans(context.Background())
		require.NoError(t, err)
		assert.Len(t, plans, 2)
	})

	t.Run("rejects malformed price", func(t *testing.T) {
		t.Parallel()

		svc := newTestService()
		path := writePlanFile(t, `
plans:
  - name: Broken
    pricings:
      - interval: month
        price: "free"
        currency: eur
`)

		_, err := catalog.LoadPlansFromFile(context.Background(), svc, path)
		assert.ErrorIs(t, err, catalog.ErrFailedToParsePlanFile)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		t.Parallel()

		svc := newTestService()
		path := writePlanFile(t, "plans: [\n")

		_, err := catalog.LoadPlansFromFile(context.Background(), svc, path)
		assert.ErrorIs(t, err, catalog.ErrFailedToParsePlanFile)
	})

	t.Run("fails on missing file", func(t *testing.T) {
		t.Parallel()

		svc := newTestService()
		_, err := catalog.LoadPlansFromFile(context.Background(), svc, filepath.Join(t.TempDir(), "missing.yml"))
		assert.ErrorIs(t, err, catalog.ErrFailedToLoadPlans)
	})
}

func TestSeedDefaultTrialPlan(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	plan, err := catalog.SeedDefaultTrialPlan(context.Background(), svc)
	require.NoError(t, err)

	assert.Equal(t, "Free Trial", plan.Name)
	assert.True(t, plan.IsFreeTrial)
	assert.Equal(t, 30, plan.TrialDays)
	assert.Equal(t, 1, plan.POSLimit)
	assert.Contains(t, plan.Permissions, "stater")
	assert.Len(t, plan.Features, 3)

	pricing, err := svc.GetActivePricing(context.Background(), plan.ID, catalog.IntervalMonth)
	require.NoError(t, err)
	assert.True(t, pricing.Price.IsZero())
	assert.Equal(t, "EUR", pricing.Currency)

	// Seeding again returns the existing plan untouched.
	again, err := catalog.SeedDefaultTrialPlan(context.Background(), svc)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, again.ID)
}
