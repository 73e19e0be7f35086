package validation

import (
	"encoding/json"
	"errors"
	"strings"
)

// FieldError is a single rule violation attached to an attribute.
type FieldError struct {
	Field   string
	Message string
}

// Errors is an ordered list of field errors. A non-empty Errors is the
// validation failure returned by every write path.
type Errors []FieldError

// Add appends a violation for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Merge appends all violations of other.
func (e *Errors) Merge(other Errors) {
	*e = append(*e, other...)
}

// Any reports whether at least one violation was recorded.
func (e Errors) Any() bool {
	return len(e) > 0
}

// On returns the messages recorded for field, in order.
func (e Errors) On(field string) []string {
	var messages []string
	for _, fe := range e {
		if fe.Field == field {
			messages = append(messages, fe.Message)
		}
	}
	return messages
}

// FullMessages renders every violation as "Field message", e.g. "Name can't be blank".
func (e Errors) FullMessages() []string {
	messages := make([]string, 0, len(e))
	for _, fe := range e {
		messages = append(messages, humanize(fe.Field)+" "+fe.Message)
	}
	return messages
}

func (e Errors) Error() string {
	return "validation failed: " + strings.Join(e.FullMessages(), ", ")
}

// MarshalJSON renders the errors as {"field": ["message", ...]}.
func (e Errors) MarshalJSON() ([]byte, error) {
	grouped := make(map[string][]string, len(e))
	for _, fe := range e {
		grouped[fe.Field] = append(grouped[fe.Field], fe.Message)
	}
	return json.Marshal(grouped)
}

// AsErrors extracts validation errors from err, if it carries any.
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
