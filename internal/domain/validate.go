package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // validator caches struct metadata; one instance per process
var validate = newValidator()

type enumValue interface {
	Valid() bool
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enumValue)
		return ok && e.Valid()
	})

	return v
}

// validateStruct runs struct-tag validation and converts the result into a
// *ValidationError. Extra carries failures found by hand-written checks.
func validateStruct(s any, extra *ValidationError) error {
	verr := &ValidationError{}

	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), reasonFor(fe))
		}
	}

	if extra != nil {
		verr.Fields = append(verr.Fields, extra.Fields...)
	}

	return verr.OrNil()
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "enum":
		return "has an unrecognized value"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte", "lte":
		return "must be between 0 and 1"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
