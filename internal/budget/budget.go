// Package budget is the renter budget ledger. Debit and Credit are single
// guarded statements, atomic on their own, and take a Querier so the booking
// ledger can compose them with its own writes in one transaction.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Budget struct {
	RenterID  string      `json:"renter_id"`
	Balance   money.Cents `json:"balance"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func Get(ctx context.Context, q postgres.Querier, renterID string) (Budget, error) {
	return get(ctx, q, renterID, `SELECT balance_cents, updated_at FROM renter_budgets WHERE renter_id = $1`)
}

// GetForUpdate locks the budget row until the surrounding transaction ends.
func GetForUpdate(ctx context.Context, q postgres.Querier, renterID string) (Budget, error) {
	return get(ctx, q, renterID, `SELECT balance_cents, updated_at FROM renter_budgets WHERE renter_id = $1 FOR UPDATE`)
}

func get(ctx context.Context, q postgres.Querier, renterID, sql string) (Budget, error) {
	var (
		balance int64
		updated time.Time
	)
	err := q.QueryRow(ctx, sql, renterID).Scan(&balance, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return Budget{}, apperr.RenterNotFound(renterID)
	}
	if err != nil {
		return Budget{}, fmt.Errorf("read budget: %w", err)
	}
	return Budget{RenterID: renterID, Balance: money.Cents(balance), UpdatedAt: updated}, nil
}

// Debit subtracts amount only if the balance covers it. The guard repeats
// the caller's pre-check so two racing debits can never overdraw.
func Debit(ctx context.Context, q postgres.Querier, renterID string, amount money.Cents) error {
	if amount < 0 {
		return apperr.Validation("debit amount must not be negative", map[string]any{"amount": amount.String()})
	}
	tag, err := q.Exec(ctx, `
		UPDATE renter_budgets SET balance_cents = balance_cents - $2, updated_at = now()
		WHERE renter_id = $1 AND balance_cents >= $2`,
		renterID, int64(amount),
	)
	if err != nil {
		return fmt.Errorf("debit budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		b, err := Get(ctx, q, renterID)
		if err != nil {
			return err
		}
		return apperr.InsufficientBudget(renterID, b.Balance.String(), amount.String())
	}
	return nil
}

func Credit(ctx context.Context, q postgres.Querier, renterID string, amount money.Cents) error {
	if amount < 0 {
		return apperr.Validation("credit amount must not be negative", map[string]any{"amount": amount.String()})
	}
	tag, err := q.Exec(ctx, `
		UPDATE renter_budgets SET balance_cents = balance_cents + $2, updated_at = now()
		WHERE renter_id = $1`,
		renterID, int64(amount),
	)
	if err != nil {
		return fmt.Errorf("credit budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.RenterNotFound(renterID)
	}
	return nil
}

// Repo serves budget reads and registration outside a booking transaction.
type Repo struct{ DB postgres.Querier }

// Open registers a renter with a starting balance.
func (r *Repo) Open(ctx context.Context, renterID string, initial money.Cents) (Budget, error) {
	if renterID == "" {
		return Budget{}, apperr.Validation("renter id is required", nil)
	}
	if initial < 0 {
		return Budget{}, apperr.Validation("initial budget must not be negative", map[string]any{"balance": initial.String()})
	}
	var updated time.Time
	err := r.DB.QueryRow(ctx, `
		INSERT INTO renter_budgets (renter_id, balance_cents) VALUES ($1, $2)
		ON CONFLICT (renter_id) DO NOTHING
		RETURNING updated_at`,
		renterID, int64(initial),
	).Scan(&updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return Budget{}, apperr.Validation("renter budget already open", map[string]any{"renter_id": renterID})
	}
	if err != nil {
		return Budget{}, apperr.Storage("failed to open budget", err)
	}
	return Budget{RenterID: renterID, Balance: initial, UpdatedAt: updated}, nil
}

func (r *Repo) Get(ctx context.Context, renterID string) (Budget, error) {
	b, err := Get(ctx, r.DB, renterID)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return Budget{}, err
		}
		return Budget{}, apperr.Storage("failed to read budget", err)
	}
	return b, nil
}
