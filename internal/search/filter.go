package search

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/catalog"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
)

type OrderBy string

const (
	OrderDefault  OrderBy = ""
	OrderPrice    OrderBy = "price"
	OrderBedrooms OrderBy = "bedrooms"
)

// Filters narrows a search. Zero values mean "no constraint".
type Filters struct {
	City        string       `json:"city,omitempty"`
	State       string       `json:"state,omitempty"`
	Kind        catalog.Kind `json:"type,omitempty"`
	MinPrice    *money.Cents `json:"min_price,omitempty"`
	MaxPrice    *money.Cents `json:"max_price,omitempty"`
	MinBedrooms *int         `json:"min_bedrooms,omitempty"`
	OrderBy     OrderBy      `json:"order_by,omitempty"`
}

// Normalize trims and lower-cases text filters and checks the rest. Two
// filters that match the same rows normalize to the same value.
func (f Filters) Normalize() (Filters, error) {
	f.City = strings.ToLower(strings.TrimSpace(f.City))
	f.State = strings.ToLower(strings.TrimSpace(f.State))

	if f.Kind != "" {
		if _, ok := catalog.ParseKind(string(f.Kind)); !ok {
			return Filters{}, apperr.Validation("unknown property type", map[string]any{"type": string(f.Kind)})
		}
	}
	switch f.OrderBy {
	case OrderDefault, OrderPrice, OrderBedrooms:
	default:
		return Filters{}, apperr.Validation("order_by must be price or bedrooms", map[string]any{"order_by": string(f.OrderBy)})
	}
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return Filters{}, apperr.Validation("min_price must not be negative", nil)
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return Filters{}, apperr.Validation("max_price must not be negative", nil)
	}
	if f.MinBedrooms != nil && *f.MinBedrooms < 0 {
		return Filters{}, apperr.Validation("min_bedrooms must not be negative", nil)
	}
	return f, nil
}

// Predicates lists one predicate per set filter, after the availability
// baseline.
func (f Filters) Predicates() []Predicate {
	preds := []Predicate{Available()}
	if f.City != "" {
		preds = append(preds, CityContains(f.City))
	}
	if f.State != "" {
		preds = append(preds, StateContains(f.State))
	}
	if f.Kind != "" {
		preds = append(preds, KindIs(f.Kind))
	}
	if f.MinPrice != nil {
		preds = append(preds, PriceAtLeast(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		preds = append(preds, PriceAtMost(*f.MaxPrice))
	}
	if f.MinBedrooms != nil {
		preds = append(preds, RoomsAtLeast(*f.MinBedrooms))
	}
	return preds
}

// FromQuery reads filters from URL query parameters: city, state, type,
// min_price, max_price, min_bedrooms, order_by.
func FromQuery(v url.Values) (Filters, error) {
	f := Filters{
		City:    v.Get("city"),
		State:   v.Get("state"),
		Kind:    catalog.Kind(v.Get("type")),
		OrderBy: OrderBy(v.Get("order_by")),
	}
	var err error
	if f.MinPrice, err = centsParam(v, "min_price"); err != nil {
		return Filters{}, err
	}
	if f.MaxPrice, err = centsParam(v, "max_price"); err != nil {
		return Filters{}, err
	}
	if s := v.Get("min_bedrooms"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Filters{}, apperr.Validation("min_bedrooms must be a whole number", map[string]any{"min_bedrooms": s})
		}
		f.MinBedrooms = &n
	}
	return f, nil
}

func centsParam(v url.Values, name string) (*money.Cents, error) {
	s := v.Get(name)
	if s == "" {
		return nil, nil
	}
	c, err := money.Parse(s)
	if err != nil {
		return nil, apperr.Validation(name+" must be a decimal amount", map[string]any{name: s})
	}
	return &c, nil
}
