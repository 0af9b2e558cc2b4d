package entitlement

import "github.com/google/uuid"

// SubscriberKind distinguishes who holds a subscription: a single user or a
// company whose members all share the plan's entitlements.
type SubscriberKind string

const (
	KindUser    SubscriberKind = "user"
	KindCompany SubscriberKind = "company"
)

// Valid reports whether the kind is one of the supported values.
func (k SubscriberKind) Valid() bool {
	return k == KindUser || k == KindCompany
}

// Assignment identifies a plan held by a subscriber, the unit the syncer
// grants and revokes.
type Assignment struct {
	SubscriberID uuid.UUID
	Kind         SubscriberKind
	PlanID       uuid.UUID
}
