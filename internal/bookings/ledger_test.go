package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/events"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	propertyID = "7b1c1a8e-3f0e-4a53-9d53-2f8f3c5f0a11"
	bookingID  = "0f5d2a44-7c2b-4b8e-8a61-5c1a7d9e3b22"
)

var serializable = pgx.TxOptions{IsoLevel: pgx.Serializable}

type recorder struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (r *recorder) Publish(key, value []byte, headers ...kafkago.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func (r *recorder) envelopes(t *testing.T) []events.Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Envelope, 0, len(r.msgs))
	for _, m := range r.msgs {
		var env events.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		out = append(out, env)
	}
	return out
}

func newLedger(t *testing.T) (*Ledger, pgxmock.PgxPoolIface, *recorder) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	rec := &recorder{}
	l := NewLedger(mock, postgres.NewTxRunner(mock, 0), &events.Emitter{Pub: rec, Producer: "test"})
	return l, mock, rec
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func expectPrice(mock pgxmock.PgxPoolIface, cents int64) {
	mock.ExpectQuery("SELECT amount_cents FROM prices").
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"amount_cents"}).AddRow(cents))
}

func expectBudget(mock pgxmock.PgxPoolIface, renterID string, cents int64) {
	mock.ExpectQuery("SELECT balance_cents, updated_at FROM renter_budgets WHERE renter_id = \\$1 FOR UPDATE").
		WithArgs(renterID).
		WillReturnRows(pgxmock.NewRows([]string{"balance_cents", "updated_at"}).AddRow(cents, time.Now()))
}

func TestCreateDebitsAndConfirms(t *testing.T) {
	l, mock, rec := newLedger(t)

	mock.ExpectBeginTx(serializable)
	expectPrice(mock, 5000)
	expectBudget(mock, "r1", 50000)
	mock.ExpectExec("UPDATE renter_budgets SET balance_cents = balance_cents -").
		WithArgs("r1", int64(15000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), propertyID, "r1", "card-1", day("2024-06-01"), day("2024-06-04"), "Confirmed", int64(15000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	receipt, err := l.Create(context.Background(), CreateInput{
		PropertyID: propertyID,
		RenterID:   "r1",
		CardID:     "card-1",
		Start:      day("2024-06-01"),
		End:        day("2024-06-04"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if receipt.Nights != 3 || receipt.TotalCost != 15000 || receipt.BookingID == "" {
		t.Errorf("receipt = %+v", receipt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}

	envs := rec.envelopes(t)
	if len(envs) != 1 || envs[0].EventType != events.EventBookingCreated {
		t.Fatalf("events = %+v", envs)
	}
	p, err := events.Decode[events.BookingCreatedPayload](envs[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalCents != 15000 || p.Start != "2024-06-01" || p.End != "2024-06-04" {
		t.Errorf("payload = %+v", p)
	}
}

func TestCreateInsufficientBudgetWritesNothing(t *testing.T) {
	l, mock, rec := newLedger(t)

	mock.ExpectBeginTx(serializable)
	expectPrice(mock, 5000)
	expectBudget(mock, "r1", 4000)
	mock.ExpectRollback()

	_, err := l.Create(context.Background(), CreateInput{
		PropertyID: propertyID,
		RenterID:   "r1",
		CardID:     "card-1",
		Start:      day("2024-06-01"),
		End:        day("2024-06-04"),
	})
	if !errors.Is(err, apperr.ErrInsufficientBudget) {
		t.Fatalf("expected insufficient budget, got %v", err)
	}
	d := apperr.As(err).Details
	if d["balance"] != "40.00" || d["required"] != "150.00" {
		t.Errorf("details = %v", d)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
	if len(rec.msgs) != 0 {
		t.Errorf("no event expected on failure, got %d", len(rec.msgs))
	}
}

func TestCreateRejects(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateInput
		setup func(pgxmock.PgxPoolIface)
		want  error
	}{
		{
			name: "missing card",
			in:   CreateInput{PropertyID: propertyID, RenterID: "r1", Start: day("2024-06-01"), End: day("2024-06-02")},
			want: apperr.ErrValidation,
		},
		{
			name: "end before start",
			in:   CreateInput{PropertyID: propertyID, RenterID: "r1", CardID: "c", Start: day("2024-06-04"), End: day("2024-06-01")},
			want: apperr.ErrInvalidRange,
		},
		{
			name: "same day",
			in:   CreateInput{PropertyID: propertyID, RenterID: "r1", CardID: "c", Start: day("2024-06-04"), End: day("2024-06-04").Add(5 * time.Hour)},
			want: apperr.ErrInvalidRange,
		},
		{
			name: "range checked before ids",
			in:   CreateInput{PropertyID: "not-a-uuid", Start: day("2025-01-04"), End: day("2025-01-01")},
			want: apperr.ErrInvalidRange,
		},
		{
			name: "malformed property id",
			in:   CreateInput{PropertyID: "nope", RenterID: "r1", CardID: "c", Start: day("2024-06-01"), End: day("2024-06-02")},
			want: apperr.ErrPriceNotFound,
		},
		{
			name: "unpriced property",
			in:   CreateInput{PropertyID: propertyID, RenterID: "r1", CardID: "c", Start: day("2024-06-01"), End: day("2024-06-02")},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(serializable)
				mock.ExpectQuery("SELECT amount_cents FROM prices").
					WithArgs(propertyID).
					WillReturnRows(pgxmock.NewRows([]string{"amount_cents"}))
				mock.ExpectRollback()
			},
			want: apperr.ErrPriceNotFound,
		},
		{
			name: "unknown renter",
			in:   CreateInput{PropertyID: propertyID, RenterID: "ghost", CardID: "c", Start: day("2024-06-01"), End: day("2024-06-02")},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(serializable)
				expectPrice(mock, 5000)
				mock.ExpectQuery("SELECT balance_cents, updated_at FROM renter_budgets").
					WithArgs("ghost").
					WillReturnRows(pgxmock.NewRows([]string{"balance_cents", "updated_at"}))
				mock.ExpectRollback()
			},
			want: apperr.ErrRenterNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, mock, _ := newLedger(t)
			if tt.setup != nil {
				tt.setup(mock)
			}
			_, err := l.Create(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func expectLock(mock pgxmock.PgxPoolIface, status string) {
	mock.ExpectQuery("SELECT b.renter_id, b.property_id, b.status, b.total_cents").
		WithArgs(bookingID).
		WillReturnRows(pgxmock.NewRows([]string{"renter_id", "property_id", "status", "total_cents", "owner_id"}).
			AddRow("r1", propertyID, status, int64(15000), "agent-1"))
}

func TestCancelRefundsStoredTotal(t *testing.T) {
	l, mock, rec := newLedger(t)

	mock.ExpectBeginTx(serializable)
	expectLock(mock, "Confirmed")
	mock.ExpectExec("UPDATE renter_budgets SET balance_cents = balance_cents \\+").
		WithArgs("r1", int64(15000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("UPDATE bookings SET status").
		WithArgs(bookingID, "Cancelled", "Confirmed").
		WillReturnRows(pgxmock.NewRows([]string{"cancelled_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	refund, err := l.Cancel(context.Background(), bookingID, "agent-1", RenterOrOwner)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if refund != 15000 {
		t.Errorf("refund = %s", refund)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}

	envs := rec.envelopes(t)
	if len(envs) != 1 || envs[0].EventType != events.EventBookingCancelled {
		t.Fatalf("events = %+v", envs)
	}
	p, _ := events.Decode[events.BookingCancelledPayload](envs[0].Payload)
	if p.RefundCents != 15000 || p.CancelledBy != "agent-1" || p.Reason != "REQUESTED" {
		t.Errorf("payload = %+v", p)
	}
}

func TestCancelAlreadyCancelled(t *testing.T) {
	l, mock, _ := newLedger(t)

	mock.ExpectBeginTx(serializable)
	expectLock(mock, "Cancelled")
	mock.ExpectRollback()

	_, err := l.Cancel(context.Background(), bookingID, "r1", nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCancelUnknownBooking(t *testing.T) {
	l, mock, _ := newLedger(t)

	if _, err := l.Cancel(context.Background(), "not-a-uuid", "r1", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("malformed id: %v", err)
	}

	mock.ExpectBeginTx(serializable)
	mock.ExpectQuery("SELECT b.renter_id").
		WithArgs(bookingID).
		WillReturnRows(pgxmock.NewRows([]string{"renter_id", "property_id", "status", "total_cents", "owner_id"}))
	mock.ExpectRollback()

	if _, err := l.Cancel(context.Background(), bookingID, "r1", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing row: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCancelByStranger(t *testing.T) {
	tests := []struct {
		name      string
		requester string
		allowed   Capability
	}{
		{"stranger", "someone-else", RenterOrOwner},
		{"owner when renter only", "agent-1", RenterOnly},
		{"anonymous", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, mock, _ := newLedger(t)
			mock.ExpectBeginTx(serializable)
			expectLock(mock, "Confirmed")
			mock.ExpectRollback()

			_, err := l.Cancel(context.Background(), bookingID, tt.requester, tt.allowed)
			if !errors.Is(err, apperr.ErrNotAuthorized) {
				t.Fatalf("expected not authorized, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestCancelAllForProperty(t *testing.T) {
	l, mock, rec := newLedger(t)
	now := time.Now()

	mock.ExpectBeginTx(serializable)
	mock.ExpectQuery("SELECT id, renter_id, card_id, start_date, end_date, total_cents, created_at").
		WithArgs(propertyID, "Confirmed").
		WillReturnRows(pgxmock.NewRows([]string{"id", "renter_id", "card_id", "start_date", "end_date", "total_cents", "created_at"}).
			AddRow("b1", "r1", "c1", day("2024-06-01"), day("2024-06-03"), int64(10000), now).
			AddRow("b2", "r2", "c2", day("2024-07-01"), day("2024-07-02"), int64(5000), now))
	mock.ExpectExec("UPDATE renter_budgets SET balance_cents = balance_cents \\+").
		WithArgs("r1", int64(10000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("UPDATE bookings SET status").
		WithArgs("b1", "Cancelled", "Confirmed").
		WillReturnRows(pgxmock.NewRows([]string{"cancelled_at"}).AddRow(now))
	mock.ExpectExec("UPDATE renter_budgets SET balance_cents = balance_cents \\+").
		WithArgs("r2", int64(5000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("UPDATE bookings SET status").
		WithArgs("b2", "Cancelled", "Confirmed").
		WillReturnRows(pgxmock.NewRows([]string{"cancelled_at"}).AddRow(now))
	mock.ExpectCommit()

	var cancelled []Booking
	err := l.Tx.InTx(context.Background(), func(tx pgx.Tx) error {
		var err error
		cancelled, err = l.CancelAllForProperty(context.Background(), tx, propertyID)
		return err
	})
	if err != nil {
		t.Fatalf("cascade: %v", err)
	}
	if len(cancelled) != 2 {
		t.Fatalf("cancelled = %d", len(cancelled))
	}
	for _, b := range cancelled {
		if b.Status != StatusCancelled || b.CancelledAt == nil {
			t.Errorf("booking %s not marked cancelled: %+v", b.ID, b)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}

	l.Announce(cancelled, "agent-1")
	envs := rec.envelopes(t)
	if len(envs) != 2 {
		t.Fatalf("events = %d", len(envs))
	}
	p, _ := events.Decode[events.BookingCancelledPayload](envs[1].Payload)
	if p.Reason != "PROPERTY_DELETED" || p.RefundCents != 5000 || p.RenterID != "r2" {
		t.Errorf("payload = %+v", p)
	}
}

func TestListForRenterKeepsChargedTotal(t *testing.T) {
	l, mock, _ := newLedger(t)
	now := time.Now()

	mock.ExpectQuery("WHERE b.renter_id = \\$1").
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "property_id", "renter_id", "card_id", "start_date", "end_date", "status",
			"total_cents", "created_at", "cancelled_at", "address", "city", "state", "amount_cents",
		}).AddRow("b1", propertyID, "r1", "c1", day("2024-06-01"), day("2024-06-04"), "Confirmed",
			int64(15000), now, nil, "1 Main St", "Springfield", "IL", nil))

	views, err := l.ListForRenter(context.Background(), "r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d", len(views))
	}
	v := views[0]
	if v.TotalCost != 15000 || v.City != "Springfield" || v.CurrentAmount != nil || v.CancelledAt != nil {
		t.Errorf("view = %+v", v)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListForAgentWrapsFailures(t *testing.T) {
	l, mock, _ := newLedger(t)
	mock.ExpectQuery("WHERE p.owner_id = \\$1").
		WithArgs("agent-1").
		WillReturnError(errors.New("connection reset"))

	if _, err := l.ListForAgent(context.Background(), "agent-1"); !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
