package record

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrNoSetter      = errors.New("undefined attribute setter")
	ErrInvalidSchema = errors.New("invalid record schema")
	ErrNilStore      = errors.New("record store cannot be nil")
	ErrEmptyID       = errors.New("record id cannot be empty")
)

// NoSetterError is returned by Model.Set for an attribute the schema does not declare.
type NoSetterError struct {
	Kind string
	Name string
}

func (e *NoSetterError) Error() string {
	return fmt.Sprintf("undefined setter '%s=' for %s", e.Name, e.Kind)
}

func (e *NoSetterError) Is(target error) bool {
	return target == ErrNoSetter
}

func IsNoSetterError(err error) bool {
	var e *NoSetterError
	return errors.As(err, &e)
}
