package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockplus/plankit/pkg/subscription"
)

// querier is the subset of pgx shared by pgxpool.Pool and pgx.Tx, so the
// same store method runs inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

func txFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// queryTarget returns the ambient transaction when the context carries one,
// else the pool.
func queryTarget(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// runInTx executes fn within a transaction, joining an ambient one instead
// of nesting. A fresh transaction commits only when fn returns nil.
func runInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Join(ErrFailedToBeginTx, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrFailedToCommitTx, err)
	}
	return nil
}

// TxRunner implements subscription.Atomic over a pgx pool. Lifecycle
// operations pass their callback here; every store call inside the callback
// joins the same transaction through the context.
type TxRunner struct {
	pool *pgxpool.Pool
}

var _ subscription.Atomic = (*TxRunner)(nil)

// NewTxRunner creates a transaction runner over the pool.
// Panics when the pool is nil.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTx(ctx, r.pool, fn)
}

// nullableTime maps the zero time to NULL on write.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// timeValue maps NULL back to the zero time on read.
func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
