package poslimit

import "errors"

var (
	ErrNegativeLimit = errors.New("resource limit must not be negative")
	ErrLimitReached  = errors.New("resource limit reached")

	ErrFailedToCountResources      = errors.New("failed to count active resources")
	ErrFailedToListResources       = errors.New("failed to list active resources")
	ErrFailedToDeactivateResources = errors.New("failed to deactivate resources")
)
