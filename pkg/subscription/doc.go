// Package subscription drives the subscription lifecycle: one record per
// subscriber moving through pending, active or trial, and finally cancelled
// or expired.
//
// # State machine
//
//	pending ──Activate──> active | trial ──Cancel──> cancelled
//	   │                        │
//	   └────────── Expire ──────┴──────────────────> expired
//
// Activation is guarded by a compare-and-set at the store, so concurrent
// activations of the same subscription succeed at most once. Cancelled and
// expired are terminal: the record is replaced, never resurrected, when the
// subscriber signs up again.
//
// # Transaction boundaries
//
// Every transition runs its local writes inside one transaction through the
// Atomic runner: the subscription row, entitlement group changes
// (entitlement.Syncer) and resource deactivations (poslimit.Limiter) commit
// or roll back together. Billing provider calls (billing.Gateway) sit
// outside the transaction and are best-effort: a provider failure is logged
// and never rolls back, or blocks, a local transition.
//
// # Cancellation semantics
//
// Cancel stops renewal but keeps entitlements: the subscriber paid through
// EndDate. The overdue sweep (ExpireOverdue, usually driven by the Scanner)
// later revokes entitlements from cancelled subscriptions whose term ran
// out, without touching their terminal status, and expires active or trial
// subscriptions that went overdue.
//
// # Scanner
//
// Scanner is the provided wiring for daily operations: scan for
// subscriptions ending within the horizon, notify each subscriber through
// an ExpiryNotifier, then sweep the overdue ones. Callers with their own
// scheduler use RunOnce.
package subscription
