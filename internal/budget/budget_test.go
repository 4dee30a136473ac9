package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestDebitGuardsBalance(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectExec("UPDATE renter_budgets SET balance_cents = balance_cents -").
		WithArgs("r1", int64(15000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT balance_cents, updated_at FROM renter_budgets").
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{"balance_cents", "updated_at"}).AddRow(int64(4000), now))

	err := Debit(context.Background(), mock, "r1", 15000)
	if !errors.Is(err, apperr.ErrInsufficientBudget) {
		t.Fatalf("expected insufficient budget, got %v", err)
	}
	if got := apperr.As(err).Details["balance"]; got != "40.00" {
		t.Errorf("balance detail = %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDebitUnknownRenter(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec("UPDATE renter_budgets").
		WithArgs("ghost", int64(100)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT balance_cents, updated_at FROM renter_budgets").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"balance_cents", "updated_at"}))

	err := Debit(context.Background(), mock, "ghost", 100)
	if !errors.Is(err, apperr.ErrRenterNotFound) {
		t.Fatalf("expected renter not found, got %v", err)
	}
}

func TestDebitAndCredit(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec("UPDATE renter_budgets SET balance_cents = balance_cents -").
		WithArgs("r1", int64(15000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE renter_budgets SET balance_cents = balance_cents \\+").
		WithArgs("r1", int64(15000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := context.Background()
	if err := Debit(ctx, mock, "r1", 15000); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := Credit(ctx, mock, "r1", 15000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNegativeAmountsRejected(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	if err := Debit(ctx, mock, "r1", -1); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Debit(-1) = %v", err)
	}
	if err := Credit(ctx, mock, "r1", -1); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Credit(-1) = %v", err)
	}
}

func TestOpen(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	repo := &Repo{DB: mock}

	mock.ExpectQuery("INSERT INTO renter_budgets").
		WithArgs("r1", int64(50000)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectQuery("INSERT INTO renter_budgets").
		WithArgs("r1", int64(50000)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

	b, err := repo.Open(context.Background(), "r1", 50000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.Balance != 50000 {
		t.Errorf("balance = %s", b.Balance)
	}

	if _, err := repo.Open(context.Background(), "r1", 50000); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("second open = %v, want validation error", err)
	}
	if _, err := repo.Open(context.Background(), "r2", -5); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("negative open = %v, want validation error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
