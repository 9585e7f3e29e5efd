package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and returns the first failure as a form message.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}
	return errors.New(fieldMessage(fieldErrors[0]))
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: Required", field)
	case "email":
		return "Invalid email"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", upperFirst(field), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", upperFirst(field), fe.Param())
	case "eqfield":
		return "Passwords must match"
	case "gt":
		return fmt.Sprintf("%s must be positive", upperFirst(field))
	default:
		return fmt.Sprintf("%s is invalid", upperFirst(field))
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
