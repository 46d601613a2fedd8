// Package validation checks request payloads against their struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mauv0809/rivalry/internal/failure"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates v and returns a precondition error listing every
// failing field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("failed to validate payload: %w", err)
	}
	fields := ParseError(ve)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = fields[k]
	}
	return failure.Precondition("invalid request: " + strings.Join(msgs, "; "))
}

// ParseError maps each failing field to a readable message.
func ParseError(ve validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "min":
			msg = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			msg = fmt.Sprintf("%s must not exceed %s", fe.Field(), fe.Param())
		case "datetime":
			msg = fmt.Sprintf("%s must match the layout %s", fe.Field(), fe.Param())
		case "timezone":
			msg = fmt.Sprintf("%s must be an IANA time zone", fe.Field())
		default:
			msg = fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
		}
		out[fe.Namespace()] = msg
	}
	return out
}
