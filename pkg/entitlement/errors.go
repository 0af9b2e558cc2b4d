package entitlement

import "errors"

var (
	ErrInvalidSubscriberKind    = errors.New("invalid subscriber kind")
	ErrMemberDirectoryRequired  = errors.New("company subscriptions require a member directory")
	ErrFailedToResolveMembers   = errors.New("failed to resolve company members")
	ErrFailedToLoadUserGroups   = errors.New("failed to load user groups")
	ErrFailedToSaveUserGroups   = errors.New("failed to save user groups")
	ErrFailedToResolvePlanGroup = errors.New("failed to resolve plan group")
)
