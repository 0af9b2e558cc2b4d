package subscription

import "errors"

var (
	ErrSubscriptionNotFound   = errors.New("subscription not found")
	ErrAlreadySubscribed      = errors.New("subscriber already has a subscription")
	ErrInvalidStateTransition = errors.New("invalid subscription state transition")

	ErrContactNotFound = errors.New("no contact email for subscriber")

	ErrFailedToListSubscriptions = errors.New("failed to list subscriptions")
	ErrFailedToSweepSubscription = errors.New("failed to sweep overdue subscription")
)
