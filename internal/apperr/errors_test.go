package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("create booking: %w", PriceNotFound("p1"))

	if !errors.Is(err, ErrPriceNotFound) {
		t.Fatalf("expected wrapped error to match ErrPriceNotFound")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("price-not-found must not match generic not-found")
	}
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	e := As(cause)

	if e.Kind != KindStorage {
		t.Fatalf("expected storage kind, got %s", e.Kind)
	}
	if !errors.Is(e, cause) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad", nil), http.StatusUnprocessableEntity},
		{"invalid range", InvalidRange("end before start"), http.StatusBadRequest},
		{"not owner", NotOwner("property", "p1"), http.StatusForbidden},
		{"not authorized", NotAuthorized("nope"), http.StatusForbidden},
		{"not found", NotFound("booking", "b1"), http.StatusNotFound},
		{"price not found", PriceNotFound("p1"), http.StatusNotFound},
		{"renter not found", RenterNotFound("r1"), http.StatusNotFound},
		{"insufficient", InsufficientBudget("r1", "40.00", "150.00"), http.StatusPaymentRequired},
		{"storage", Storage("boom", nil), http.StatusInternalServerError},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
