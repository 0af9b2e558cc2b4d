// Package billing defines the contract the engine requires from an external
// payment provider and ships the compiled-in implementations.
//
// The provider owns product, price and recurring-billing records; the engine
// treats it as a remote ledger that is kept consistent on a best-effort basis.
// Gateway calls never participate in local database transactions: a failure is
// logged by the caller and reconciled out-of-band, it does not roll back a
// local state transition.
//
// Three implementations are provided:
//
//   - StripeGateway – production variant backed by stripe-go.
//   - NoopGateway – deterministic local stand-in for development and tests.
//   - MockGateway – testify mock for consumer test suites.
//
// The variant is selected once at startup via Config/New; there is no dynamic
// backend dispatch.
package billing
