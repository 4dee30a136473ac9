package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/jackc/pgx/v5"
)

func insert(ctx context.Context, q postgres.Querier, b Booking) error {
	_, err := q.Exec(ctx, `
		INSERT INTO bookings (id, property_id, renter_id, card_id, start_date, end_date, status, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.PropertyID, b.RenterID, b.CardID, b.Start, b.End, string(b.Status), int64(b.TotalCost),
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

type lockedBooking struct {
	renterID   string
	propertyID string
	status     Status
	total      money.Cents
	ownerID    string
}

// lockForCancel reads the booking row FOR UPDATE together with the owner of
// its property. found is false when no such booking exists.
func lockForCancel(ctx context.Context, q postgres.Querier, id string) (lb lockedBooking, found bool, err error) {
	var (
		status string
		total  int64
	)
	err = q.QueryRow(ctx, `
		SELECT b.renter_id, b.property_id, b.status, b.total_cents, COALESCE(p.owner_id, '')
		FROM bookings b
		LEFT JOIN properties p ON p.id = b.property_id
		WHERE b.id = $1
		FOR UPDATE OF b`, id,
	).Scan(&lb.renterID, &lb.propertyID, &status, &total, &lb.ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return lockedBooking{}, false, nil
	}
	if err != nil {
		return lockedBooking{}, false, fmt.Errorf("lock booking: %w", err)
	}
	lb.status = Status(status)
	lb.total = money.Cents(total)
	return lb, true, nil
}

// markCancelled flips a Confirmed booking to Cancelled. It reports false
// when the row was not Confirmed.
func markCancelled(ctx context.Context, q postgres.Querier, id string) (bool, time.Time, error) {
	var at time.Time
	err := q.QueryRow(ctx, `
		UPDATE bookings SET status = $2, cancelled_at = now()
		WHERE id = $1 AND status = $3
		RETURNING cancelled_at`,
		id, string(StatusCancelled), string(StatusConfirmed),
	).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("cancel booking: %w", err)
	}
	return true, at, nil
}

// confirmedForProperty locks every Confirmed booking of a property, ordered
// by renter so concurrent cascades take budget locks in the same order.
func confirmedForProperty(ctx context.Context, q postgres.Querier, propertyID string) ([]Booking, error) {
	rows, err := q.Query(ctx, `
		SELECT id, renter_id, card_id, start_date, end_date, total_cents, created_at
		FROM bookings
		WHERE property_id = $1 AND status = $2
		ORDER BY renter_id, id
		FOR UPDATE`,
		propertyID, string(StatusConfirmed),
	)
	if err != nil {
		return nil, fmt.Errorf("list property bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var (
			b     Booking
			total int64
		)
		if err := rows.Scan(&b.ID, &b.RenterID, &b.CardID, &b.Start, &b.End, &total, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.PropertyID = propertyID
		b.Status = StatusConfirmed
		b.TotalCost = money.Cents(total)
		out = append(out, b)
	}
	return out, rows.Err()
}

const viewColumns = `
	b.id, b.property_id, b.renter_id, b.card_id, b.start_date, b.end_date, b.status,
	b.total_cents, b.created_at, b.cancelled_at,
	COALESCE(p.address, ''), COALESCE(p.city, ''), COALESCE(p.state, ''), pr.amount_cents`

func listViews(ctx context.Context, q postgres.Querier, sql string, arg string) ([]View, error) {
	rows, err := q.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []View{}
	for rows.Next() {
		var (
			v       View
			status  string
			total   int64
			current *int64
		)
		if err := rows.Scan(
			&v.ID, &v.PropertyID, &v.RenterID, &v.CardID, &v.Start, &v.End, &status,
			&total, &v.CreatedAt, &v.CancelledAt,
			&v.Address, &v.City, &v.State, &current,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		v.Status = Status(status)
		v.TotalCost = money.Cents(total)
		if current != nil {
			c := money.Cents(*current)
			v.CurrentAmount = &c
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func listForRenter(ctx context.Context, q postgres.Querier, renterID string) ([]View, error) {
	return listViews(ctx, q, `SELECT `+viewColumns+`
		FROM bookings b
		LEFT JOIN properties p ON p.id = b.property_id
		LEFT JOIN prices pr ON pr.property_id = b.property_id
		WHERE b.renter_id = $1
		ORDER BY b.start_date DESC, b.id`, renterID)
}

func listForOwner(ctx context.Context, q postgres.Querier, ownerID string) ([]View, error) {
	return listViews(ctx, q, `SELECT `+viewColumns+`
		FROM bookings b
		JOIN properties p ON p.id = b.property_id
		LEFT JOIN prices pr ON pr.property_id = b.property_id
		WHERE p.owner_id = $1
		ORDER BY b.start_date DESC, b.id`, ownerID)
}
