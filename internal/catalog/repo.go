// Package catalog stores rental properties. Every property has exactly one
// kind-specific extension row and at most one nightly price.
package catalog

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/bookings"
	"github.com/ariefcatur/go-rental-ledger/internal/events"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/ariefcatur/go-rental-ledger/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingReleaser cancels the live bookings of a property being deleted.
// *bookings.Ledger implements it.
type BookingReleaser interface {
	CancelAllForProperty(ctx context.Context, tx pgx.Tx, propertyID string) ([]bookings.Booking, error)
	Announce(cancelled []bookings.Booking, requesterID string)
}

// Invalidator drops cached search results after a catalog write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Repo struct {
	DB        postgres.Querier
	Tx        *postgres.TxRunner
	Validator *Validator
	Bookings  BookingReleaser
	Cache     Invalidator
	Events    *events.Emitter
}

func NewRepo(db postgres.DB, tx *postgres.TxRunner, releaser BookingReleaser, cache Invalidator, ev *events.Emitter) *Repo {
	return &Repo{
		DB:        db,
		Tx:        tx,
		Validator: NewValidator(),
		Bookings:  releaser,
		Cache:     cache,
		Events:    ev,
	}
}

// CreateProperty inserts the base row, its extension and the optional
// initial price in one transaction.
func (r *Repo) CreateProperty(ctx context.Context, ownerID string, in PropertyInput) (string, error) {
	if ownerID == "" {
		return "", apperr.Validation("owner id is required", nil)
	}
	sub, err := r.Validator.Property(&in)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	err = r.Tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := insertBase(ctx, tx, id, ownerID, in, sub.Kind()); err != nil {
			return err
		}
		if err := writeSubtype(ctx, tx, id, sub); err != nil {
			return err
		}
		if in.Price != nil {
			return pricing.Upsert(ctx, tx, id, *in.Price)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.changed(ctx, events.EventPropertyUpserted, id, ownerID, sub.Kind(), in.Price)
	return id, nil
}

// UpdateProperty replaces the base fields and the extension. Changing the
// kind removes the old extension in the same transaction.
func (r *Repo) UpdateProperty(ctx context.Context, propertyID, ownerID string, in PropertyInput) error {
	if _, err := uuid.Parse(propertyID); err != nil {
		return apperr.NotFound("property", propertyID)
	}
	sub, err := r.Validator.Property(&in)
	if err != nil {
		return err
	}

	err = r.Tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, propertyID, ownerID); err != nil {
			return err
		}
		if err := updateBase(ctx, tx, propertyID, in, sub.Kind()); err != nil {
			return err
		}
		if err := writeSubtype(ctx, tx, propertyID, sub); err != nil {
			return err
		}
		if in.Price != nil {
			return pricing.Upsert(ctx, tx, propertyID, *in.Price)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.changed(ctx, events.EventPropertyUpserted, propertyID, ownerID, sub.Kind(), in.Price)
	return nil
}

// DeleteProperty cancels and refunds every Confirmed booking of the
// property, then removes the property with its extension and price. The
// cancelled bookings are returned.
func (r *Repo) DeleteProperty(ctx context.Context, propertyID, ownerID string) ([]bookings.Booking, error) {
	if _, err := uuid.Parse(propertyID); err != nil {
		return nil, apperr.NotFound("property", propertyID)
	}

	var cancelled []bookings.Booking
	err := r.Tx.InTx(ctx, func(tx pgx.Tx) error {
		cancelled = nil
		if err := lockOwned(ctx, tx, propertyID, ownerID); err != nil {
			return err
		}
		if r.Bookings != nil {
			var err error
			if cancelled, err = r.Bookings.CancelAllForProperty(ctx, tx, propertyID); err != nil {
				return err
			}
		}
		return deleteAll(ctx, tx, propertyID)
	})
	if err != nil {
		return nil, err
	}

	if r.Bookings != nil {
		r.Bookings.Announce(cancelled, ownerID)
	}
	r.changed(ctx, events.EventPropertyDeleted, propertyID, ownerID, "", nil)
	return cancelled, nil
}

// SetPrice creates or replaces the nightly price of a property.
func (r *Repo) SetPrice(ctx context.Context, propertyID string, amount money.Cents) error {
	return r.setPrice(ctx, propertyID, "", false, amount)
}

// SetOwnedPrice is SetPrice restricted to the property's owner.
func (r *Repo) SetOwnedPrice(ctx context.Context, propertyID, ownerID string, amount money.Cents) error {
	return r.setPrice(ctx, propertyID, ownerID, true, amount)
}

func (r *Repo) setPrice(ctx context.Context, propertyID, ownerID string, checkOwner bool, amount money.Cents) error {
	if amount < 0 {
		return apperr.Validation("price must not be negative", map[string]any{"amount": amount.String()})
	}
	if _, err := uuid.Parse(propertyID); err != nil {
		return apperr.NotFound("property", propertyID)
	}

	var owner string
	err := r.Tx.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT owner_id FROM properties WHERE id = $1 FOR UPDATE`, propertyID).Scan(&owner)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("property", propertyID)
		}
		if err != nil {
			return err
		}
		if checkOwner && owner != ownerID {
			return apperr.NotOwner("property", propertyID)
		}
		return pricing.Upsert(ctx, tx, propertyID, amount)
	})
	if err != nil {
		return err
	}

	r.changed(ctx, events.EventPriceChanged, propertyID, owner, "", &amount)
	return nil
}

// AmountFor reads the nightly price through q, which may be a transaction.
func (r *Repo) AmountFor(ctx context.Context, q postgres.Querier, propertyID string) (money.Cents, bool, error) {
	if q == nil {
		q = r.DB
	}
	return pricing.AmountFor(ctx, q, propertyID)
}

func (r *Repo) Get(ctx context.Context, propertyID string) (Property, error) {
	if _, err := uuid.Parse(propertyID); err != nil {
		return Property{}, apperr.NotFound("property", propertyID)
	}
	p, err := scanProperty(r.DB.QueryRow(ctx, selectProperty+` WHERE p.id = $1`, propertyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, apperr.NotFound("property", propertyID)
	}
	if err != nil {
		return Property{}, apperr.Storage("failed to retrieve property", err)
	}
	return p, nil
}

// ListByOwner returns an agent's properties, oldest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]Property, error) {
	rows, err := r.DB.Query(ctx, selectProperty+` WHERE p.owner_id = $1 ORDER BY p.created_at, p.id`, ownerID)
	if err != nil {
		return nil, apperr.Storage("failed to retrieve properties", err)
	}
	defer rows.Close()

	out := []Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, apperr.Storage("failed to retrieve properties", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to retrieve properties", err)
	}
	return out, nil
}

// changed runs after a committed write. Cache and event failures do not
// undo the write.
func (r *Repo) changed(ctx context.Context, eventType, propertyID, ownerID string, kind Kind, price *money.Cents) {
	if r.Cache != nil {
		_ = r.Cache.Invalidate(ctx)
	}
	payload := events.PropertyPayload{PropertyID: propertyID, OwnerID: ownerID, Kind: string(kind)}
	if price != nil {
		cents := int64(*price)
		payload.PriceCents = &cents
	}
	_ = r.Events.Emit(eventType, propertyID, payload)
}
