// Package redis provides helpers for connecting to a Redis server.
//
// The package wraps the go-redis client and adds a robust Connect which
// retries the connection using the supplied configuration, plus a
// health-check helper for liveness probes. The notification dispatcher uses
// the resulting client for idempotency keys on expiry reminders.
//
// Configuration is described by the Config struct whose fields are populated
// from environment variables via github.com/caarlos0/env.
package redis
