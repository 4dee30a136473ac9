package bookings

import (
	"context"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/budget"
	"github.com/ariefcatur/go-rental-ledger/internal/dates"
	"github.com/ariefcatur/go-rental-ledger/internal/events"
	"github.com/ariefcatur/go-rental-ledger/internal/metrics"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/ariefcatur/go-rental-ledger/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	reasonRequested       = "REQUESTED"
	reasonPropertyDeleted = "PROPERTY_DELETED"
)

// Ledger creates and cancels bookings. Every money movement happens in the
// same serializable transaction as the booking row it belongs to.
type Ledger struct {
	DB     postgres.Querier
	Tx     *postgres.TxRunner
	Events *events.Emitter
}

func NewLedger(db postgres.DB, tx *postgres.TxRunner, ev *events.Emitter) *Ledger {
	return &Ledger{DB: db, Tx: tx, Events: ev}
}

// Create prices the stay, debits the renter and records a Confirmed booking.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (Receipt, error) {
	rec, err := l.create(ctx, in)
	metrics.BookingsTotal.WithLabelValues("create", resultLabel(err)).Inc()
	return rec, err
}

func (l *Ledger) create(ctx context.Context, in CreateInput) (Receipt, error) {
	start, end := dates.Day(in.Start), dates.Day(in.End)
	if !end.After(start) {
		return Receipt{}, apperr.InvalidRange("end date must be after start date")
	}
	if in.PropertyID == "" || in.RenterID == "" || in.CardID == "" {
		return Receipt{}, apperr.Validation("property, renter and card are required", nil)
	}
	if _, err := uuid.Parse(in.PropertyID); err != nil {
		return Receipt{}, apperr.PriceNotFound(in.PropertyID)
	}
	nights := dates.Nights(start, end)

	var rec Receipt
	err := l.Tx.InTx(ctx, func(tx pgx.Tx) error {
		amount, ok, err := pricing.AmountFor(ctx, tx, in.PropertyID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.PriceNotFound(in.PropertyID)
		}
		total, err := amount.Times(nights)
		if err != nil {
			return apperr.Validation("booking cost is out of range", map[string]any{"nights": nights})
		}

		b, err := budget.GetForUpdate(ctx, tx, in.RenterID)
		if err != nil {
			return err
		}
		if b.Balance < total {
			return apperr.InsufficientBudget(in.RenterID, b.Balance.String(), total.String())
		}
		if err := budget.Debit(ctx, tx, in.RenterID, total); err != nil {
			return err
		}

		booking := Booking{
			ID:         uuid.NewString(),
			PropertyID: in.PropertyID,
			RenterID:   in.RenterID,
			CardID:     in.CardID,
			Start:      start,
			End:        end,
			Status:     StatusConfirmed,
			TotalCost:  total,
		}
		if err := insert(ctx, tx, booking); err != nil {
			return err
		}
		rec = Receipt{BookingID: booking.ID, Nights: nights, TotalCost: total}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	_ = l.Events.Emit(events.EventBookingCreated, rec.BookingID, events.BookingCreatedPayload{
		BookingID:  rec.BookingID,
		PropertyID: in.PropertyID,
		RenterID:   in.RenterID,
		Start:      dates.Format(start),
		End:        dates.Format(end),
		Nights:     nights,
		TotalCents: int64(rec.TotalCost),
	})
	return rec, nil
}

// Cancel refunds the stored total cost and marks the booking Cancelled.
// allowed decides who may cancel; callers pass RenterOrOwner, RenterOnly or
// their own rule.
func (l *Ledger) Cancel(ctx context.Context, bookingID, requesterID string, allowed Capability) (money.Cents, error) {
	refund, err := l.cancel(ctx, bookingID, requesterID, allowed)
	metrics.BookingsTotal.WithLabelValues("cancel", resultLabel(err)).Inc()
	return refund, err
}

func (l *Ledger) cancel(ctx context.Context, bookingID, requesterID string, allowed Capability) (money.Cents, error) {
	if allowed == nil {
		allowed = RenterOrOwner
	}
	if _, err := uuid.Parse(bookingID); err != nil {
		return 0, apperr.NotFound("booking", bookingID)
	}

	var lb lockedBooking
	err := l.Tx.InTx(ctx, func(tx pgx.Tx) error {
		var (
			found bool
			err   error
		)
		lb, found, err = lockForCancel(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !found || !CanTransition(lb.status, StatusCancelled) {
			return apperr.NotFound("booking", bookingID)
		}
		if !allowed(requesterID, Parties{RenterID: lb.renterID, OwnerID: lb.ownerID}) {
			return apperr.NotAuthorized("only the renter or the property owner may cancel this booking")
		}
		if err := budget.Credit(ctx, tx, lb.renterID, lb.total); err != nil {
			return err
		}
		ok, _, err := markCancelled(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("booking", bookingID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	_ = l.Events.Emit(events.EventBookingCancelled, bookingID, events.BookingCancelledPayload{
		BookingID:   bookingID,
		PropertyID:  lb.propertyID,
		RenterID:    lb.renterID,
		RefundCents: int64(lb.total),
		CancelledBy: requesterID,
		Reason:      reasonRequested,
	})
	return lb.total, nil
}

// CancelAllForProperty refunds and cancels every Confirmed booking of a
// property inside the caller's transaction. The catalog calls it when a
// property is deleted.
func (l *Ledger) CancelAllForProperty(ctx context.Context, tx pgx.Tx, propertyID string) ([]Booking, error) {
	active, err := confirmedForProperty(ctx, tx, propertyID)
	if err != nil {
		return nil, err
	}
	for i := range active {
		b := &active[i]
		if err := budget.Credit(ctx, tx, b.RenterID, b.TotalCost); err != nil {
			return nil, err
		}
		ok, at, err := markCancelled(ctx, tx, b.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NotFound("booking", b.ID)
		}
		b.Status = StatusCancelled
		b.CancelledAt = &at
	}
	return active, nil
}

// Announce publishes cancellation events for bookings cancelled by a
// property deletion, once that transaction has committed.
func (l *Ledger) Announce(cancelled []Booking, requesterID string) {
	for _, b := range cancelled {
		metrics.BookingsTotal.WithLabelValues("cascade_cancel", "ok").Inc()
		_ = l.Events.Emit(events.EventBookingCancelled, b.ID, events.BookingCancelledPayload{
			BookingID:   b.ID,
			PropertyID:  b.PropertyID,
			RenterID:    b.RenterID,
			RefundCents: int64(b.TotalCost),
			CancelledBy: requesterID,
			Reason:      reasonPropertyDeleted,
		})
	}
}

func (l *Ledger) ListForRenter(ctx context.Context, renterID string) ([]View, error) {
	views, err := listForRenter(ctx, l.DB, renterID)
	if err != nil {
		return nil, apperr.Storage("failed to retrieve bookings", err)
	}
	return views, nil
}

func (l *Ledger) ListForAgent(ctx context.Context, ownerID string) ([]View, error) {
	views, err := listForOwner(ctx, l.DB, ownerID)
	if err != nil {
		return nil, apperr.Storage("failed to retrieve agent bookings", err)
	}
	return views, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}
