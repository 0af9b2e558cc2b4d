package billing

import "errors"

var (
	// ErrGateway wraps every provider failure so callers can treat the whole
	// class as non-fatal with a single errors.Is check.
	ErrGateway = errors.New("billing gateway error")

	ErrMissingAPIKey       = errors.New("billing provider API key is required")
	ErrUnknownGateway      = errors.New("unknown billing gateway kind")
	ErrInvalidInterval     = errors.New("billing interval not supported by provider")
	ErrEmptyProductID      = errors.New("provider product ID is required")
	ErrEmptySubscriptionID = errors.New("provider subscription ID is required")
)
