package catalog

import "errors"

var (
	ErrPlanNotFound    = errors.New("subscription plan not found")
	ErrPricingNotFound = errors.New("subscription pricing not found")

	ErrPlanNameRequired     = errors.New("subscription plan name is required")
	ErrPlanNameTaken        = errors.New("subscription plan name already in use")
	ErrInvalidTrialDays     = errors.New("trial plans require a positive trial day count")
	ErrNegativePOSLimit     = errors.New("point of sale limit must not be negative")
	ErrPermissionNotAllowed = errors.New("permission is not in the configured allow-list")

	ErrInvalidInterval = errors.New("invalid billing interval")
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrInvalidCurrency = errors.New("invalid currency code")

	ErrFailedToLoadPlans     = errors.New("failed to load subscription plans")
	ErrFailedToParsePlanFile = errors.New("failed to parse plan definition file")
)
