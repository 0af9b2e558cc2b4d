package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/stockplus/plankit/pkg/logger"
)

// Syncer keeps authorization group assignments in step with subscription
// state. Granting a plan swaps the user onto that plan's group; revoking
// removes exactly that group. Groups not derived from plans are never
// touched.
type Syncer interface {
	// Grant assigns the plan's group to every affected user, removing any
	// other active plan's group in the same write. After a grant a user
	// holds at most one plan-derived group.
	Grant(ctx context.Context, a Assignment) error

	// Revoke removes the plan's group from every affected user. Idempotent:
	// users who no longer hold the group are skipped.
	Revoke(ctx context.Context, a Assignment) error
}

type syncer struct {
	catalog GroupCatalog
	auth    AuthorizationStore
	members MemberDirectory
	logger  *slog.Logger
}

// Option configures optional syncer behavior.
type Option func(*syncer)

// WithLogger sets a custom logger for the syncer.
func WithLogger(l *slog.Logger) Option {
	return func(s *syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMemberDirectory enables company-held subscriptions: the directory
// resolves which users a company grant fans out to. Without it only
// user-held subscriptions can be synced.
func WithMemberDirectory(d MemberDirectory) Option {
	return func(s *syncer) {
		s.members = d
	}
}

// NewSyncer creates a syncer reading plan groups from the catalog and
// writing assignments through the authorization store.
// Panics if catalog or auth is nil since the syncer cannot operate without
// them.
func NewSyncer(catalog GroupCatalog, auth AuthorizationStore, opts ...Option) Syncer {
	if catalog == nil {
		panic("entitlement: catalog is required")
	}
	if auth == nil {
		panic("entitlement: authorization store is required")
	}

	s := &syncer{
		catalog: catalog,
		auth:    auth,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *syncer) Grant(ctx context.Context, a Assignment) error {
	if !a.Kind.Valid() {
		return ErrInvalidSubscriberKind
	}

	plan, err := s.catalog.GetPlan(ctx, a.PlanID)
	if err != nil {
		return errors.Join(ErrFailedToResolvePlanGroup, err)
	}
	if plan.GroupID == uuid.Nil {
		s.logger.DebugContext(ctx, "plan carries no group, nothing to grant",
			logger.PlanID(a.PlanID),
			logger.Component("entitlement"))
		return nil
	}

	otherGroups, err := s.catalog.ActivePlanGroupIDs(ctx, a.PlanID)
	if err != nil {
		return errors.Join(ErrFailedToResolvePlanGroup, err)
	}

	userIDs, err := s.affectedUsers(ctx, a)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		if err := s.grantUser(ctx, userID, plan.GroupID, otherGroups); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "granted plan entitlements",
		logger.SubscriberID(a.SubscriberID),
		logger.PlanID(a.PlanID),
		slog.Int("users", len(userIDs)),
		logger.Component("entitlement"))
	return nil
}

func (s *syncer) Revoke(ctx context.Context, a Assignment) error {
	if !a.Kind.Valid() {
		return ErrInvalidSubscriberKind
	}

	plan, err := s.catalog.GetPlan(ctx, a.PlanID)
	if err != nil {
		return errors.Join(ErrFailedToResolvePlanGroup, err)
	}
	if plan.GroupID == uuid.Nil {
		return nil
	}

	userIDs, err := s.affectedUsers(ctx, a)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		if err := s.revokeUser(ctx, userID, plan.GroupID); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "revoked plan entitlements",
		logger.SubscriberID(a.SubscriberID),
		logger.PlanID(a.PlanID),
		slog.Int("users", len(userIDs)),
		logger.Component("entitlement"))
	return nil
}

// grantUser strips every other plan's group from the user's assignments,
// keeps the rest, and appends the granted group. The subtract-then-add
// order guarantees at most one plan-derived group per user.
func (s *syncer) grantUser(ctx context.Context, userID, planGroup uuid.UUID, otherPlanGroups []uuid.UUID) error {
	current, err := s.auth.UserGroups(ctx, userID)
	if err != nil {
		return errors.Join(ErrFailedToLoadUserGroups, err)
	}

	next := make([]uuid.UUID, 0, len(current)+1)
	for _, g := range current {
		if g == planGroup || !slices.Contains(otherPlanGroups, g) {
			next = append(next, g)
		}
	}
	if !slices.Contains(next, planGroup) {
		next = append(next, planGroup)
	}

	if slices.Equal(next, current) {
		return nil
	}
	if err := s.auth.SetUserGroups(ctx, userID, next); err != nil {
		return errors.Join(ErrFailedToSaveUserGroups, err)
	}
	return nil
}

func (s *syncer) revokeUser(ctx context.Context, userID, planGroup uuid.UUID) error {
	current, err := s.auth.UserGroups(ctx, userID)
	if err != nil {
		return errors.Join(ErrFailedToLoadUserGroups, err)
	}

	next := slices.DeleteFunc(slices.Clone(current), func(g uuid.UUID) bool {
		return g == planGroup
	})
	if len(next) == len(current) {
		return nil
	}
	if err := s.auth.SetUserGroups(ctx, userID, next); err != nil {
		return errors.Join(ErrFailedToSaveUserGroups, err)
	}
	return nil
}

func (s *syncer) affectedUsers(ctx context.Context, a Assignment) ([]uuid.UUID, error) {
	if a.Kind == KindUser {
		return []uuid.UUID{a.SubscriberID}, nil
	}
	if s.members == nil {
		return nil, ErrMemberDirectoryRequired
	}
	ids, err := s.members.CompanyMemberIDs(ctx, a.SubscriberID)
	if err != nil {
		return nil, errors.Join(ErrFailedToResolveMembers, err)
	}
	return ids, nil
}
