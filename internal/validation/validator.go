// Package validation wraps go-playground/validator with the ledger's custom
// types registered, so snapshots and request payloads can be checked by tag.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"financeiro/internal/core"
)

type Validator struct {
	validate *validator.Validate
}

// New builds a validator aware of core.Money, core.Date and month keys.
func New() *Validator {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if m, ok := field.Interface().(core.Money); ok {
			return m.Float64()
		}
		return nil
	}, core.Money{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(core.Date); ok {
			return d.String()
		}
		return nil
	}, core.Date{})

	_ = v.RegisterValidation("monthkey", func(fl validator.FieldLevel) bool {
		return core.MonthKey(fl.Field().String()).Valid()
	})

	// Amounts are compared as floats by the tags above, so whole cents are
	// checked on the exact value at struct level.
	v.RegisterStructValidation(validateCents,
		core.Income{}, core.FixedCost{}, core.Purchase{}, core.Installment{})

	// Report JSON names so messages match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	return &Validator{validate: v}
}

func validateCents(sl validator.StructLevel) {
	var value core.Money
	switch s := sl.Current().Interface().(type) {
	case core.Income:
		value = s.Value
	case core.FixedCost:
		value = s.Value
	case core.Purchase:
		value = s.Value
	case core.Installment:
		value = s.Value
	default:
		return
	}
	if !value.HasCents() {
		sl.ReportError(value, "value", "Value", "cents", "")
	}
}

// Struct runs tag validation on s.
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// Describe flattens validation errors into one line per failing field.
// Errors that are not validation errors are returned as a single entry.
func Describe(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return out
}
