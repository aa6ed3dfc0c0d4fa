package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dErrors "memberpanel/pkg/domain-errors"
	txcontext "memberpanel/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Tx runs a unit of work in one database transaction serialized on a transaction-scoped
// advisory lock. Stores reach the transaction through the context.
type Tx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTx(db *sql.DB, timeout time.Duration) *Tx {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &Tx{db: db, timeout: timeout}
}

// RunInTx commits when fn returns nil and rolls back otherwise. The advisory lock is
// released with the transaction.
func (t *Tx) RunInTx(ctx context.Context, lockKey string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if lockKey != "" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, AdvisoryKey(lockKey)); err != nil {
			if ctx.Err() != nil {
				return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for lock")
			}
			return fmt.Errorf("acquire advisory lock: %w", err)
		}
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
