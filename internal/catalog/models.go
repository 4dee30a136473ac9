package catalog

import (
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/money"
)

type Property struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Description  string       `json:"description"`
	Availability bool         `json:"availability"`
	Kind         Kind         `json:"type"`
	Subtype      Subtype      `json:"subtypeData"`
	Price        *money.Cents `json:"price,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PropertyInput is what an agent submits to create or replace a listing.
// A nil Availability means available; a nil Price leaves the price alone.
type PropertyInput struct {
	Address      string       `json:"address" validate:"required,max=255"`
	City         string       `json:"city" validate:"required,max=100"`
	State        string       `json:"state" validate:"required,max=100"`
	Description  string       `json:"description" validate:"max=2000"`
	Availability *bool        `json:"availability"`
	Kind         string       `json:"type" validate:"required,oneof=House Apartment CommercialBuilding"`
	SubtypeData  *SubtypeData `json:"subtypeData" validate:"required"`
	Price        *money.Cents `json:"price,omitempty" validate:"omitempty,min=0"`
}

func (in PropertyInput) available() bool {
	return in.Availability == nil || *in.Availability
}
