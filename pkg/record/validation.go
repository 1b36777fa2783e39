package record

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects the rule failures of a single validation pass.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field has at least one error.
func (e ValidationErrors) Has(field string) bool {
	return slices.ContainsFunc(e, func(fe FieldError) bool { return fe.Field == field })
}

// Get returns the messages recorded for field.
func (e ValidationErrors) Get(field string) []string {
	var msgs []string
	for _, fe := range e {
		if fe.Field == field {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}

// Fields returns the distinct failing fields in order of first failure.
func (e ValidationErrors) Fields() []string {
	var fields []string
	for _, fe := range e {
		if !slices.Contains(fields, fe.Field) {
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

func (e ValidationErrors) IsEmpty() bool {
	return len(e) == 0
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// Rule checks one field of a model. Check returns true when the model is valid.
type Rule struct {
	Field   string
	Message string
	Check   func(m *Model) bool
}

// Required fails when the attribute is missing or blank.
func Required(field string) Rule {
	return Rule{
		Field:   field,
		Message: "is required",
		Check: func(m *Model) bool {
			v, ok := m.Get(field)
			return ok && !blank(v)
		},
	}
}

// OneOf fails when a present attribute is not one of values. Missing values pass; pair with Required.
func OneOf(field string, values ...string) Rule {
	return Rule{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(values, ", ")),
		Check: func(m *Model) bool {
			v, ok := m.Get(field)
			if !ok || blank(v) {
				return true
			}
			return slices.Contains(values, fmt.Sprint(v))
		},
	}
}

// MaxLen fails when the string form of the attribute is longer than n runes.
func MaxLen(field string, n int) Rule {
	return Rule{
		Field:   field,
		Message: fmt.Sprintf("must be at most %d characters", n),
		Check: func(m *Model) bool {
			v, ok := m.Get(field)
			if !ok || v == nil {
				return true
			}
			return len([]rune(fmt.Sprint(v))) <= n
		},
	}
}

// Custom wraps an arbitrary check.
func Custom(field, message string, check func(m *Model) bool) Rule {
	return Rule{Field: field, Message: message, Check: check}
}

func apply(m *Model, rules []Rule) ValidationErrors {
	var errs ValidationErrors
	for _, r := range rules {
		if r.Check == nil || r.Check(m) {
			continue
		}
		errs = append(errs, FieldError{Field: r.Field, Message: r.Message})
	}
	return errs
}

func blank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []byte:
		return len(val) == 0
	case fmt.Stringer:
		return strings.TrimSpace(val.String()) == ""
	}
	return false
}
