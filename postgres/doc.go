// Package postgres provides pgx-backed implementations of every store
// interface in the engine, plus the transaction runner that binds them into
// one atomic scope.
//
// # Architecture
//
// Each store holds the shared pgxpool.Pool and runs its SQL against either
// the pool or an ambient transaction. TxRunner.WithinTx begins a
// transaction and places it in the context; any store method called inside
// the callback picks it up, so a lifecycle operation commits its
// subscription row, resource deactivations, and group writes together.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := postgres.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//
//	svc := subscription.NewService(
//	    postgres.NewSubscriptionStore(pool),
//	    postgres.NewTxRunner(pool),
//	    catalogSvc,
//	    syncer,
//	    limiter,
//	)
//
// # Invariants in the Schema
//
// Two invariants the service layer enforces are also backed by constraints,
// so racing writers cannot break them:
//   - subscriptions.subscriber_id is unique: one live record per subscriber
//   - a partial unique index allows one enabled pricing per (plan, interval)
//
// State transitions use a compare-and-set UPDATE over a status set
// (status = ANY($2)), which makes activation at-most-once without explicit
// row locking.
package postgres
