package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Default messages.
const (
	MsgBlank        = "can't be blank"
	MsgTaken        = "has already been taken"
	MsgNotANumber   = "is not a number"
	MsgInvalid      = "is invalid"
	MsgConfirmation = "Should match confirmation"
)

var validate = validator.New()

// Rule checks one constraint and returns the violations it found.
type Rule func() Errors

// Run evaluates rules in order and collects every violation.
func Run(rules ...Rule) Errors {
	var errs Errors
	for _, rule := range rules {
		errs.Merge(rule())
	}
	return errs
}

func single(field, message string) Errors {
	return Errors{{Field: field, Message: message}}
}

// Presence rejects empty or whitespace-only strings.
func Presence(field, value string) Rule {
	return func() Errors {
		if validate.Var(strings.TrimSpace(value), "required") != nil {
			return single(field, MsgBlank)
		}
		return nil
	}
}

// MinLength rejects strings shorter than n characters (inclusive bound).
func MinLength(field, value string, n int) Rule {
	return func() Errors {
		if validate.Var(value, "min="+strconv.Itoa(n)) != nil {
			return single(field, fmt.Sprintf("is too short (minimum is %d characters)", n))
		}
		return nil
	}
}

// Numericality requires a number greater than or equal to min. A nil value is not a number.
func Numericality(field string, value *float64, min float64) Rule {
	return func() Errors {
		if value == nil {
			return single(field, MsgNotANumber)
		}
		bound := strconv.FormatFloat(min, 'f', -1, 64)
		if validate.Var(*value, "gte="+bound) != nil {
			return single(field, "must be greater than or equal to "+bound)
		}
		return nil
	}
}

// LessThan requires a number strictly below limit. A nil value is left to Numericality.
func LessThan(field string, value *float64, limit float64) Rule {
	return func() Errors {
		if value == nil {
			return nil
		}
		bound := strconv.FormatFloat(limit, 'f', -1, 64)
		if validate.Var(*value, "lt="+bound) != nil {
			return single(field, "must be less than "+bound)
		}
		return nil
	}
}

// Inclusion requires value to be one of allowed. Blank values are skipped so they
// are reported only by Presence. The message may reference the submitted value
// with %{value}.
func Inclusion(field, value string, allowed []string, message string) Rule {
	return func() Errors {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		if validate.Var(value, "oneof="+strings.Join(allowed, " ")) != nil {
			return single(field, strings.ReplaceAll(message, "%{value}", value))
		}
		return nil
	}
}

// Confirmation requires confirmation to equal value exactly when value is non-empty.
// The violation is attached to field.
func Confirmation(field, value, confirmation string) Rule {
	return func() Errors {
		if value == "" {
			return nil
		}
		if validate.VarWithValue(value, confirmation, "eqfield") != nil {
			return single(field, MsgConfirmation)
		}
		return nil
	}
}

// Prefix requires value to start with prefix.
func Prefix(field, value, prefix string) Rule {
	return func() Errors {
		if validate.Var(value, "startswith="+prefix) != nil {
			return single(field, MsgInvalid)
		}
		return nil
	}
}
