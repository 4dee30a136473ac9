// Package apperr holds the typed failures returned by the catalog, search and
// booking ledger. Every failure carries a Kind; errors.Is matches on Kind so
// callers can compare against the sentinels below.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotOwner           Kind = "NOT_OWNER"
	KindNotAuthorized      Kind = "NOT_AUTHORIZED"
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidRange       Kind = "INVALID_RANGE"
	KindPriceNotFound      Kind = "PRICE_NOT_FOUND"
	KindRenterNotFound     Kind = "RENTER_NOT_FOUND"
	KindInsufficientBudget Kind = "INSUFFICIENT_BUDGET"
	KindStorage            Kind = "STORAGE_ERROR"
)

type Error struct {
	Kind    Kind           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotOwner           = &Error{Kind: KindNotOwner, Message: "not the owner"}
	ErrNotAuthorized      = &Error{Kind: KindNotAuthorized, Message: "not authorized"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidRange       = &Error{Kind: KindInvalidRange, Message: "invalid date range"}
	ErrPriceNotFound      = &Error{Kind: KindPriceNotFound, Message: "price not found"}
	ErrRenterNotFound     = &Error{Kind: KindRenterNotFound, Message: "renter not found"}
	ErrInsufficientBudget = &Error{Kind: KindInsufficientBudget, Message: "insufficient budget"}
	ErrStorage            = &Error{Kind: KindStorage, Message: "storage failure"}
)

func Validation(message string, details map[string]any) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func NotOwner(resource, id string) *Error {
	return &Error{
		Kind:    KindNotOwner,
		Message: fmt.Sprintf("you do not own this %s", resource),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

func NotAuthorized(message string) *Error {
	return &Error{Kind: KindNotAuthorized, Message: message}
}

func NotFound(resource, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

func InvalidRange(message string) *Error {
	return &Error{Kind: KindInvalidRange, Message: message}
}

func PriceNotFound(propertyID string) *Error {
	return &Error{
		Kind:    KindPriceNotFound,
		Message: "no price found for property",
		Details: map[string]any{"property_id": propertyID},
	}
}

func RenterNotFound(renterID string) *Error {
	return &Error{
		Kind:    KindRenterNotFound,
		Message: "renter budget not found",
		Details: map[string]any{"renter_id": renterID},
	}
}

func InsufficientBudget(renterID string, balance, required string) *Error {
	return &Error{
		Kind:    KindInsufficientBudget,
		Message: "insufficient budget for booking",
		Details: map[string]any{"renter_id": renterID, "balance": balance, "required": required},
	}
}

func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// As returns err as an *Error, wrapping unknown failures as storage errors.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Storage("an unexpected error occurred", err)
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindInvalidRange:
		return http.StatusBadRequest
	case KindNotOwner, KindNotAuthorized:
		return http.StatusForbidden
	case KindNotFound, KindPriceNotFound, KindRenterNotFound:
		return http.StatusNotFound
	case KindInsufficientBudget:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
