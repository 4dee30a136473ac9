package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Property checks the base fields and resolves the declared subtype.
func (v *Validator) Property(in *PropertyInput) (Subtype, error) {
	if err := v.validate.Struct(in); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return nil, apperr.Validation("invalid property", translate(validationErrs))
		}
		return nil, apperr.Validation("invalid property", map[string]any{"error": err.Error()})
	}
	kind, _ := ParseKind(in.Kind)
	return in.SubtypeData.For(kind)
}

func translate(errs validator.ValidationErrors) map[string]any {
	details := make(map[string]any, len(errs))
	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		details[err.Field()] = message
	}
	return details
}
