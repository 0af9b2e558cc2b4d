// Package entitlement synchronizes authorization group assignments with
// subscription state.
//
// Every plan carries exactly one authorization group. When a subscription
// activates or changes plan, Grant swaps each affected user onto the plan's
// group: the groups of all other active plans are removed in the same write,
// so a user can never accumulate entitlements from two plans. Groups that do
// not come from plans (operator-assigned roles, ad-hoc grants) are never
// touched. Revoke removes exactly the plan's group and nothing else.
//
// Subscriptions are held by a single user or by a company; company grants
// fan out to every member resolved through a MemberDirectory.
//
// The syncer writes through an AuthorizationStore that joins the ambient
// transaction, so group changes commit atomically with the subscription
// transition that caused them.
package entitlement
