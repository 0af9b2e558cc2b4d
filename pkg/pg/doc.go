// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver. It offers a thin abstraction around connection pooling,
// migrations, health checks, and common error helpers so the storage layer can
// bootstrap a resilient database connection with only a few lines of code.
//
// The package keeps a small API surface while relying on battle-tested
// upstream libraries (pgx/v5 for connectivity and goose/v3 for schema
// migrations) so callers are never locked in.
//
//   - Config – a declarative struct whose fields are populated from
//     environment variables. It controls connection pool limits, health-check
//     cadence and migration paths.
//   - Connect – opens a *pgxpool.Pool based on Config, retrying with linear
//     back-off until the database becomes available.
//   - Migrate / MigrateFS – run goose migrations from a directory or an
//     embedded filesystem before the engine starts serving calls.
//
// Error helpers (IsNotFoundError, IsDuplicateKeyError,
// IsForeignKeyViolationError) normalise pgx error inspection for store
// implementations.
package pg
