// Package catalog manages subscription plans and their pricing tiers.
//
// A plan bundles everything a subscriber buys into one unit: the marketable
// features, the authorization group granted while the plan is held, the
// permission set attached to that group, the point-of-sale ceiling and the
// optional free-trial terms. Pricing tiers attach a price and billing
// interval to a plan; for any (plan, interval) pair at most one tier is
// enabled at a time, and inserting a new enabled tier disables its siblings
// in the same transaction.
//
// # Architecture
//
//   - Service: validation, provisioning and catalog queries
//   - Store: persistence boundary (in-memory and Postgres implementations)
//   - billing.Gateway: optional remote mirror of plans and prices
//
// Plans are soft-disabled rather than deleted so live subscriptions never
// lose their referent. Remote provisioning is best-effort: a gateway failure
// is logged and the catalog row stays authoritative with an empty external
// reference.
//
// # Quick Start
//
//	store := catalog.NewMemoryStore()
//	svc := catalog.NewService(store,
//		catalog.WithGateway(gw),
//		catalog.WithLogger(log),
//	)
//
//	plan, err := svc.CreatePlan(ctx, catalog.CreatePlanInput{
//		Name:     "Starter",
//		POSLimit: 1,
//	})
//	if err != nil {
//		return err
//	}
//
//	_, err = svc.CreatePricing(ctx, catalog.CreatePricingInput{
//		PlanID:   plan.ID,
//		Interval: catalog.IntervalMonth,
//		Price:    decimal.NewFromInt(29),
//		Currency: "EUR",
//	})
//
// Catalogs are usually seeded at startup from a YAML definition file via
// LoadPlansFromFile, or with the built-in trial plan via
// SeedDefaultTrialPlan. Both are idempotent by plan name.
package catalog
