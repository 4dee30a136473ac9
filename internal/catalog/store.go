package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/ariefcatur/go-rental-ledger/internal/pricing"
	"github.com/jackc/pgx/v5"
)

var subtypeTables = []struct {
	kind  Kind
	table string
}{
	{KindHouse, "houses"},
	{KindApartment, "apartments"},
	{KindCommercial, "commercial_buildings"},
}

func tableFor(k Kind) string {
	for _, t := range subtypeTables {
		if t.kind == k {
			return t.table
		}
	}
	return ""
}

func insertBase(ctx context.Context, q postgres.Querier, id, ownerID string, in PropertyInput, kind Kind) error {
	_, err := q.Exec(ctx, `
		INSERT INTO properties (id, owner_id, address, city, state, description, availability, kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, ownerID, in.Address, in.City, in.State, in.Description, in.available(), string(kind),
	)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

func updateBase(ctx context.Context, q postgres.Querier, id string, in PropertyInput, kind Kind) error {
	_, err := q.Exec(ctx, `
		UPDATE properties
		SET address = $2, city = $3, state = $4, description = $5, availability = $6, kind = $7, updated_at = now()
		WHERE id = $1`,
		id, in.Address, in.City, in.State, in.Description, in.available(), string(kind),
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	return nil
}

// lockOwned locks the base row and checks who owns it.
func lockOwned(ctx context.Context, q postgres.Querier, id, ownerID string) error {
	var owner string
	err := q.QueryRow(ctx, `SELECT owner_id FROM properties WHERE id = $1 FOR UPDATE`, id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("property", id)
	}
	if err != nil {
		return fmt.Errorf("lock property: %w", err)
	}
	if owner != ownerID {
		return apperr.NotOwner("property", id)
	}
	return nil
}

// writeSubtype makes sub the only extension row of the property: rows of the
// other kinds are removed, the declared kind is upserted, and the result is
// counted.
func writeSubtype(ctx context.Context, q postgres.Querier, id string, sub Subtype) error {
	for _, t := range subtypeTables {
		if t.kind == sub.Kind() {
			continue
		}
		if _, err := q.Exec(ctx, `DELETE FROM `+t.table+` WHERE property_id = $1`, id); err != nil {
			return fmt.Errorf("delete %s row: %w", t.table, err)
		}
	}

	var err error
	switch s := sub.(type) {
	case House:
		_, err = q.Exec(ctx, `
			INSERT INTO houses (property_id, rooms, square_feet) VALUES ($1, $2, $3)
			ON CONFLICT (property_id) DO UPDATE SET rooms = EXCLUDED.rooms, square_feet = EXCLUDED.square_feet`,
			id, s.Rooms, s.SquareFeet)
	case Apartment:
		_, err = q.Exec(ctx, `
			INSERT INTO apartments (property_id, rooms, square_feet, building_type) VALUES ($1, $2, $3, $4)
			ON CONFLICT (property_id) DO UPDATE
			SET rooms = EXCLUDED.rooms, square_feet = EXCLUDED.square_feet, building_type = EXCLUDED.building_type`,
			id, s.Rooms, s.SquareFeet, s.BuildingType)
	case Commercial:
		_, err = q.Exec(ctx, `
			INSERT INTO commercial_buildings (property_id, square_feet, business_type) VALUES ($1, $2, $3)
			ON CONFLICT (property_id) DO UPDATE SET square_feet = EXCLUDED.square_feet, business_type = EXCLUDED.business_type`,
			id, s.SquareFeet, s.BusinessType)
	default:
		return apperr.Validation("unknown property type", nil)
	}
	if err != nil {
		return fmt.Errorf("upsert %s row: %w", tableFor(sub.Kind()), err)
	}

	var n int64
	err = q.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM houses WHERE property_id = $1)
		     + (SELECT count(*) FROM apartments WHERE property_id = $1)
		     + (SELECT count(*) FROM commercial_buildings WHERE property_id = $1)`, id,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("count subtype rows: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("property %s has %d subtype rows", id, n)
	}
	return nil
}

func deleteAll(ctx context.Context, q postgres.Querier, id string) error {
	for _, t := range subtypeTables {
		if _, err := q.Exec(ctx, `DELETE FROM `+t.table+` WHERE property_id = $1`, id); err != nil {
			return fmt.Errorf("delete %s row: %w", t.table, err)
		}
	}
	if err := pricing.Remove(ctx, q, id); err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}

const selectProperty = `
	SELECT p.id, p.owner_id, p.address, p.city, p.state, p.description, p.availability, p.kind,
	       p.created_at, p.updated_at,
	       COALESCE(h.rooms, a.rooms, 0),
	       COALESCE(h.square_feet, a.square_feet, c.square_feet, 0),
	       COALESCE(a.building_type, ''),
	       COALESCE(c.business_type, ''),
	       pr.amount_cents IS NOT NULL,
	       COALESCE(pr.amount_cents, 0)
	FROM properties p
	LEFT JOIN houses h ON h.property_id = p.id
	LEFT JOIN apartments a ON a.property_id = p.id
	LEFT JOIN commercial_buildings c ON c.property_id = p.id
	LEFT JOIN prices pr ON pr.property_id = p.id`

func scanProperty(row pgx.Row) (Property, error) {
	var (
		p           Property
		kind        string
		rooms, sqft int
		building    string
		business    string
		priced      bool
		amountCents int64
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Address, &p.City, &p.State, &p.Description, &p.Availability, &kind,
		&p.CreatedAt, &p.UpdatedAt,
		&rooms, &sqft, &building, &business, &priced, &amountCents,
	)
	if err != nil {
		return Property{}, err
	}

	p.Kind = Kind(kind)
	switch p.Kind {
	case KindHouse:
		p.Subtype = House{Rooms: rooms, SquareFeet: sqft}
	case KindApartment:
		p.Subtype = Apartment{Rooms: rooms, SquareFeet: sqft, BuildingType: building}
	case KindCommercial:
		p.Subtype = Commercial{SquareFeet: sqft, BusinessType: business}
	}
	if priced {
		amount := money.Cents(amountCents)
		p.Price = &amount
	}
	return p, nil
}
