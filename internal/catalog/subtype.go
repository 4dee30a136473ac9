package catalog

import (
	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
)

type Kind string

const (
	KindHouse      Kind = "House"
	KindApartment  Kind = "Apartment"
	KindCommercial Kind = "CommercialBuilding"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindHouse, KindApartment, KindCommercial:
		return k, true
	}
	return "", false
}

// Subtype is the kind-specific extension of a property. The set of cases is
// closed: House, Apartment and Commercial.
type Subtype interface {
	Kind() Kind
	isSubtype()
}

type House struct {
	Rooms      int `json:"rooms"`
	SquareFeet int `json:"sq_ft"`
}

type Apartment struct {
	Rooms        int    `json:"rooms"`
	SquareFeet   int    `json:"sq_ft"`
	BuildingType string `json:"building_type"`
}

type Commercial struct {
	SquareFeet   int    `json:"sq_ft"`
	BusinessType string `json:"business_type"`
}

func (House) Kind() Kind      { return KindHouse }
func (Apartment) Kind() Kind  { return KindApartment }
func (Commercial) Kind() Kind { return KindCommercial }

func (House) isSubtype()      {}
func (Apartment) isSubtype()  {}
func (Commercial) isSubtype() {}

// SubtypeData is the loose wire form of a subtype. Which fields must be set
// depends on the declared kind.
type SubtypeData struct {
	Rooms        *int    `json:"rooms,omitempty" validate:"omitempty,min=0,max=1000"`
	SquareFeet   *int    `json:"sq_ft,omitempty" validate:"omitempty,min=0"`
	BuildingType *string `json:"building_type,omitempty" validate:"omitempty,max=100"`
	BusinessType *string `json:"business_type,omitempty" validate:"omitempty,max=100"`
}

// For turns the wire form into the subtype of kind k. Fields that belong to
// a different kind are rejected rather than dropped.
func (d SubtypeData) For(k Kind) (Subtype, error) {
	missing := map[string]any{}
	extra := map[string]any{}
	need := func(name string, set bool) {
		if !set {
			missing[name] = "is required for " + string(k)
		}
	}
	deny := func(name string, set bool) {
		if set {
			extra[name] = "does not apply to " + string(k)
		}
	}

	switch k {
	case KindHouse:
		need("rooms", d.Rooms != nil)
		need("sq_ft", d.SquareFeet != nil)
		deny("building_type", d.BuildingType != nil)
		deny("business_type", d.BusinessType != nil)
	case KindApartment:
		need("rooms", d.Rooms != nil)
		need("sq_ft", d.SquareFeet != nil)
		need("building_type", d.BuildingType != nil)
		deny("business_type", d.BusinessType != nil)
	case KindCommercial:
		need("sq_ft", d.SquareFeet != nil)
		need("business_type", d.BusinessType != nil)
		deny("rooms", d.Rooms != nil)
		deny("building_type", d.BuildingType != nil)
	default:
		return nil, apperr.Validation("unknown property type", map[string]any{"type": string(k)})
	}

	if len(missing) > 0 {
		return nil, apperr.Validation("missing subtype data", missing)
	}
	if len(extra) > 0 {
		return nil, apperr.Validation("subtype data does not match property type", extra)
	}

	switch k {
	case KindHouse:
		return House{Rooms: *d.Rooms, SquareFeet: *d.SquareFeet}, nil
	case KindApartment:
		return Apartment{Rooms: *d.Rooms, SquareFeet: *d.SquareFeet, BuildingType: *d.BuildingType}, nil
	default:
		return Commercial{SquareFeet: *d.SquareFeet, BusinessType: *d.BusinessType}, nil
	}
}
