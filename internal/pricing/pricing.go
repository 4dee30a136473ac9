// Package pricing owns the nightly rate of each property. Functions take a
// Querier so the booking ledger can read the rate inside its own transaction.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/jackc/pgx/v5"
)

// AmountFor returns the current nightly rate. ok is false when the property
// has never been priced.
func AmountFor(ctx context.Context, q postgres.Querier, propertyID string) (amount money.Cents, ok bool, err error) {
	var cents int64
	err = q.QueryRow(ctx, `SELECT amount_cents FROM prices WHERE property_id = $1`, propertyID).Scan(&cents)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read price: %w", err)
	}
	return money.Cents(cents), true, nil
}

// Upsert creates or replaces the single price row of a property.
func Upsert(ctx context.Context, q postgres.Querier, propertyID string, amount money.Cents) error {
	_, err := q.Exec(ctx, `
		INSERT INTO prices (property_id, amount_cents, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (property_id) DO UPDATE SET amount_cents = EXCLUDED.amount_cents, updated_at = now()`,
		propertyID, int64(amount),
	)
	if err != nil {
		return fmt.Errorf("upsert price: %w", err)
	}
	return nil
}

func Remove(ctx context.Context, q postgres.Querier, propertyID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM prices WHERE property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("delete price: %w", err)
	}
	return nil
}
