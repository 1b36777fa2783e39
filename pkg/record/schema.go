package record

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Schema describes a record kind and the attributes it declares statically.
// Only declared attributes have a setter; anything else lives in the dynamic bag.
type Schema struct {
	kind   string
	fields []string
}

// NewSchema creates a schema for kind with the given declared fields.
func NewSchema(kind string, fields ...string) (*Schema, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil, errors.Join(ErrInvalidSchema, fmt.Errorf("kind cannot be empty"))
	}
	s := &Schema{kind: kind}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, errors.Join(ErrInvalidSchema, fmt.Errorf("%s: field name cannot be empty", kind))
		}
		if slices.Contains(s.fields, f) {
			return nil, errors.Join(ErrInvalidSchema, fmt.Errorf("%s: field '%s' declared twice", kind, f))
		}
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema works like NewSchema but panics on error.
func MustSchema(kind string, fields ...string) *Schema {
	s, err := NewSchema(kind, fields...)
	if err != nil {
		panic(fmt.Sprintf("failed to create schema: %v", err))
	}
	return s
}

// Kind returns the record kind.
func (s *Schema) Kind() string {
	return s.kind
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []string {
	return slices.Clone(s.fields)
}

// Declares reports whether name has a static setter.
func (s *Schema) Declares(name string) bool {
	return slices.Contains(s.fields, name)
}
