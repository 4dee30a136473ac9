package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// TxRunner runs units of work in serializable transactions and retries the
// whole unit when Postgres aborts it for a serialization conflict.
type TxRunner struct {
	DB         DB
	MaxRetries int
	// OnRetry is called before each retry; attempt starts at 1.
	OnRetry func(attempt int, err error)
}

func NewTxRunner(db DB, maxRetries int) *TxRunner {
	return &TxRunner{DB: db, MaxRetries: maxRetries}
}

// InTx runs fn until it commits, fails with a non-retryable error, or the
// retry budget is spent. fn may run more than once so it must not leak
// state between attempts. Business errors (*apperr.Error) come back as they
// are; everything else is wrapped as a storage error.
func (r *TxRunner) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt >= r.MaxRetries || ctx.Err() != nil {
			break
		}
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, err)
		}
	}

	if IsRetryable(err) {
		return apperr.Storage("transaction conflict persisted after retries", err)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Storage("transaction failed", err)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsRetryable reports serialization failures and deadlocks.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

