// Package poslimit enforces per-subscriber ceilings on limited resources,
// points of sale in particular.
//
// A plan carries a resource limit; when a subscriber moves to a plan with a
// lower limit, Enforce deactivates the excess newest-first so the oldest
// resources survive the downgrade. A limit of zero (Unlimited) disables
// enforcement. Enforcement runs inside the plan-change transaction: the
// store joins the ambient transaction carried by the context.
package poslimit
