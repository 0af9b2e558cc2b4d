package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockplus/plankit/pkg/entitlement"
	"github.com/stockplus/plankit/pkg/pg"
)

// AuthorizationStore implements entitlement.AuthorizationStore backed by
// PostgreSQL. Group order is preserved through a position column so a
// replace-then-read round-trips the exact assignment list.
type AuthorizationStore struct {
	pool *pgxpool.Pool
}

var _ entitlement.AuthorizationStore = (*AuthorizationStore)(nil)

// NewAuthorizationStore creates an authorization store over the pool.
// Panics when the pool is nil.
func NewAuthorizationStore(pool *pgxpool.Pool) *AuthorizationStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &AuthorizationStore{pool: pool}
}

func (s *AuthorizationStore) UserGroups(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	q := queryTarget(ctx, s.pool)
	rows, err := q.Query(ctx, `
		SELECT group_id FROM user_groups
		WHERE user_id = $1
		ORDER BY position, group_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user groups: %w", err)
	}
	defer rows.Close()

	groups := make([]uuid.UUID, 0)
	for rows.Next() {
		var groupID uuid.UUID
		if err := rows.Scan(&groupID); err != nil {
			return nil, fmt.Errorf("scan user group: %w", err)
		}
		groups = append(groups, groupID)
	}
	return groups, rows.Err()
}

func (s *AuthorizationStore) SetUserGroups(ctx context.Context, userID uuid.UUID, groups []uuid.UUID) error {
	return runInTx(ctx, s.pool, func(ctx context.Context) error {
		q := queryTarget(ctx, s.pool)
		if _, err := q.Exec(ctx, `DELETE FROM user_groups WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear user groups: %w", err)
		}
		for i, groupID := range groups {
			if _, err := q.Exec(ctx, `
				INSERT INTO user_groups (user_id, group_id, position)
				VALUES ($1,$2,$3)`,
				userID, groupID, i); err != nil {
				return fmt.Errorf("insert user group: %w", err)
			}
		}
		return nil
	})
}

// MemberDirectory implements entitlement.MemberDirectory backed by
// PostgreSQL. The engine only reads it; AddMember and RemoveMember exist so
// applications and tests can maintain the roster through the same store.
type MemberDirectory struct {
	pool *pgxpool.Pool
}

var _ entitlement.MemberDirectory = (*MemberDirectory)(nil)

// NewMemberDirectory creates a member directory over the pool.
// Panics when the pool is nil.
func NewMemberDirectory(pool *pgxpool.Pool) *MemberDirectory {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &MemberDirectory{pool: pool}
}

func (d *MemberDirectory) CompanyMemberIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	q := queryTarget(ctx, d.pool)
	rows, err := q.Query(ctx, `
		SELECT user_id FROM company_members
		WHERE company_id = $1
		ORDER BY created_at, user_id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query company members: %w", err)
	}
	defer rows.Close()

	members := make([]uuid.UUID, 0)
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan company member: %w", err)
		}
		members = append(members, userID)
	}
	return members, rows.Err()
}

func (d *MemberDirectory) AddMember(ctx context.Context, companyID, userID uuid.UUID) error {
	q := queryTarget(ctx, d.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO company_members (company_id, user_id)
		VALUES ($1,$2)`, companyID, userID)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert company member: %w", err)
	}
	return nil
}

func (d *MemberDirectory) RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error {
	q := queryTarget(ctx, d.pool)
	if _, err := q.Exec(ctx, `
		DELETE FROM company_members WHERE company_id = $1 AND user_id = $2`,
		companyID, userID); err != nil {
		return fmt.Errorf("delete company member: %w", err)
	}
	return nil
}
