// Package txrunner brackets a unit of work in a database transaction
// guarded by a named advisory lock, the single mechanism satisfying
// spec §5's lock-domain discipline: acquire lock, open tx, run the
// closure, commit or roll back. Locks are transaction-scoped
// (pg_advisory_xact_lock), so they release automatically on commit or
// rollback — no separate unlock call is ever required.
package txrunner

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftforge/fastauction/internal/lockmgr"
	"github.com/draftforge/fastauction/internal/tracing"
)

// Runner opens transactions against a pool and enforces lockmgr's
// acquisition-order guard around each one.
type Runner struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Runner {
	return &Runner{db: db}
}

// RunLocked acquires the named advisory lock, opens a transaction, and
// invokes fn with it. fn's error aborts the transaction; a nil error
// commits. The lock is released implicitly when the transaction ends.
func (r *Runner) RunLocked(ctx context.Context, domain lockmgr.Domain, entityID int64, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if err := lockmgr.CheckOrder(ctx, domain); err != nil {
		return fmt.Errorf("txrunner: %w", err)
	}

	ctx, span := tracing.StartSpan(ctx, "txrunner.RunLocked."+domain.String())
	defer span.End()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("txrunner: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	k1, k2 := lockmgr.Key(domain, entityID)
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1, $2)", k1, k2); err != nil {
		return fmt.Errorf("txrunner: advisory lock: %w", err)
	}

	lockedCtx := lockmgr.WithDomain(ctx, domain)

	if err := fn(lockedCtx, tx); err != nil {
		tracing.RecordError(ctx, err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("txrunner: commit: %w", err)
	}

	return nil
}

// RunUnlocked opens a plain transaction with no advisory lock, for
// read-only preflight checks the spec calls out as safe to perform
// outside a lock (e.g. Nominate's fast-path validation).
func (r *Runner) RunUnlocked(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("txrunner: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
