package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
)

func TestSubtypeDataFor(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		data    string
		want    Subtype
		wantErr bool
	}{
		{"house", KindHouse, `{"rooms":3,"sq_ft":1200}`, House{Rooms: 3, SquareFeet: 1200}, false},
		{"apartment", KindApartment, `{"rooms":1,"sq_ft":500,"building_type":"walkup"}`, Apartment{Rooms: 1, SquareFeet: 500, BuildingType: "walkup"}, false},
		{"commercial", KindCommercial, `{"sq_ft":9000,"business_type":"office"}`, Commercial{SquareFeet: 9000, BusinessType: "office"}, false},
		{"zero rooms is a value", KindHouse, `{"rooms":0,"sq_ft":0}`, House{}, false},
		{"apartment missing building type", KindApartment, `{"rooms":1,"sq_ft":500}`, nil, true},
		{"commercial with rooms", KindCommercial, `{"rooms":2,"sq_ft":9000,"business_type":"office"}`, nil, true},
		{"unknown kind", Kind("Castle"), `{}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d SubtypeData
			if err := json.Unmarshal([]byte(tt.data), &d); err != nil {
				t.Fatal(err)
			}
			got, err := d.For(tt.kind)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
			if got.Kind() != tt.kind {
				t.Errorf("kind = %s", got.Kind())
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("CommercialBuilding"); !ok || k != KindCommercial {
		t.Errorf("ParseKind = %s, %v", k, ok)
	}
	if _, ok := ParseKind("house"); ok {
		t.Error("kinds are case sensitive")
	}
}
