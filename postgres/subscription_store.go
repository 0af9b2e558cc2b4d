package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockplus/plankit/pkg/pg"
	"github.com/stockplus/plankit/pkg/subscription"
)

const subscriptionColumns = `id, subscriber_id, kind, plan_id, interval, status,
	start_date, end_date, renewal_date, trial_ends_at, entitlements_revoked_at,
	external_id, external_customer_id, created_at, updated_at`

// SubscriptionStore implements subscription.Store backed by PostgreSQL.
// The unique index on subscriber_id closes the race between two concurrent
// subscribe calls; Transition is a single compare-and-set UPDATE.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

var _ subscription.Store = (*SubscriptionStore)(nil)

// NewSubscriptionStore creates a subscription store over the pool.
// Panics when the pool is nil.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &SubscriptionStore{pool: pool}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub subscription.Subscription) error {
	q := queryTarget(ctx, s.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		sub.ID, sub.SubscriberID, string(sub.Kind), sub.PlanID, string(sub.Interval),
		string(sub.Status), sub.StartDate, sub.EndDate, sub.RenewalDate,
		nullableTime(sub.TrialEndsAt), nullableTime(sub.EntitlementsRevokedAt),
		sub.ExternalID, sub.ExternalCustomerID, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return subscription.ErrAlreadySubscribed
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) Update(ctx context.Context, sub subscription.Subscription) error {
	q := queryTarget(ctx, s.pool)
	tag, err := q.Exec(ctx, `
		UPDATE subscriptions SET kind=$2, plan_id=$3, interval=$4, status=$5,
			start_date=$6, end_date=$7, renewal_date=$8, trial_ends_at=$9,
			entitlements_revoked_at=$10, external_id=$11, external_customer_id=$12,
			updated_at=$13
		WHERE id=$1`,
		sub.ID, string(sub.Kind), sub.PlanID, string(sub.Interval), string(sub.Status),
		sub.StartDate, sub.EndDate, sub.RenewalDate, nullableTime(sub.TrialEndsAt),
		nullableTime(sub.EntitlementsRevokedAt), sub.ExternalID, sub.ExternalCustomerID,
		sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func (s *SubscriptionStore) Delete(ctx context.Context, id uuid.UUID) error {
	q := queryTarget(ctx, s.pool)
	tag, err := q.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func (s *SubscriptionStore) GetByID(ctx context.Context, id uuid.UUID) (subscription.Subscription, error) {
	q := queryTarget(ctx, s.pool)
	return s.getOne(ctx, q, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
}

func (s *SubscriptionStore) GetBySubscriber(ctx context.Context, subscriberID uuid.UUID) (subscription.Subscription, error) {
	q := queryTarget(ctx, s.pool)
	return s.getOne(ctx, q, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (s *SubscriptionStore) getOne(ctx context.Context, q querier, query string, arg any) (subscription.Subscription, error) {
	sub, err := scanSubscriptionRow(q.QueryRow(ctx, query, arg))
	if pg.IsNotFoundError(err) {
		return subscription.Subscription{}, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("query subscription: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) Transition(ctx context.Context, id uuid.UUID, from []subscription.Status, to subscription.Status) error {
	q := queryTarget(ctx, s.pool)
	tag, err := q.Exec(ctx, `
		UPDATE subscriptions SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)`,
		id, statusStrings(from), string(to))
	if err != nil {
		return fmt.Errorf("transition subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: either the row is gone or another caller won the race.
	var current string
	err = q.QueryRow(ctx, `SELECT status FROM subscriptions WHERE id = $1`, id).Scan(&current)
	if pg.IsNotFoundError(err) {
		return subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return fmt.Errorf("load subscription status: %w", err)
	}
	return fmt.Errorf("%w: %s -> %s", subscription.ErrInvalidStateTransition, current, to)
}

func (s *SubscriptionStore) ListExpiring(ctx context.Context, from, to time.Time) ([]subscription.Subscription, error) {
	q := queryTarget(ctx, s.pool)
	rows, err := q.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE status = ANY($1) AND end_date >= $2 AND end_date <= $3
		ORDER BY end_date, id`,
		entitledStatusStrings(), from, to)
	if err != nil {
		return nil, fmt.Errorf("list expiring subscriptions: %w", err)
	}
	return collectSubscriptions(rows)
}

func (s *SubscriptionStore) ListOverdue(ctx context.Context, asOf time.Time) ([]subscription.Subscription, error) {
	q := queryTarget(ctx, s.pool)
	rows, err := q.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE end_date < $1
		  AND (status = ANY($2)
		       OR (status = $3 AND entitlements_revoked_at IS NULL))
		ORDER BY end_date, id`,
		asOf, entitledStatusStrings(), string(subscription.StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("list overdue subscriptions: %w", err)
	}
	return collectSubscriptions(rows)
}

func scanSubscriptionRow(row interface{ Scan(dest ...any) error }) (subscription.Subscription, error) {
	var (
		sub       subscription.Subscription
		trialEnds *time.Time
		revokedAt *time.Time
	)
	err := row.Scan(&sub.ID, &sub.SubscriberID, &sub.Kind, &sub.PlanID, &sub.Interval,
		&sub.Status, &sub.StartDate, &sub.EndDate, &sub.RenewalDate, &trialEnds,
		&revokedAt, &sub.ExternalID, &sub.ExternalCustomerID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return subscription.Subscription{}, err
	}
	sub.TrialEndsAt = timeValue(trialEnds)
	sub.EntitlementsRevokedAt = timeValue(revokedAt)
	return sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]subscription.Subscription, error) {
	defer rows.Close()

	subs := make([]subscription.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscriptionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func statusStrings(statuses []subscription.Status) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}

func entitledStatusStrings() []string {
	return []string{string(subscription.StatusActive), string(subscription.StatusTrial)}
}
