package persistence

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/fsmkit/pkg/record"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

var (
	ErrUnresolvedAttribute = errors.New("unresolved attribute setter")
	ErrRecordInvalid       = errors.New("record invalid")
	ErrNilModel            = errors.New("model cannot be nil")
	ErrNilEngine           = errors.New("engine cannot be nil")
)

// UnresolvedAttributeError is returned for writes to an attribute that has
// neither a declared setter nor a registered machine behind it.
type UnresolvedAttributeError struct {
	Kind string
	Name string
}

func (e *UnresolvedAttributeError) Error() string {
	return fmt.Sprintf("undefined method '%s' for %s", statemachine.SetterName(e.Name), e.Kind)
}

func (e *UnresolvedAttributeError) Is(target error) bool {
	return target == ErrUnresolvedAttribute
}

// RecordInvalidError reports a record whose save was rejected by validation.
type RecordInvalidError struct {
	Record *record.Model
	Errors record.ValidationErrors
}

func (e *RecordInvalidError) Error() string {
	if e.Errors.IsEmpty() {
		return fmt.Sprintf("%s %s is invalid", e.Record.Kind(), e.Record.ID())
	}
	return fmt.Sprintf("%s %s is invalid: %s", e.Record.Kind(), e.Record.ID(), e.Errors.Error())
}

func (e *RecordInvalidError) Is(target error) bool {
	return target == ErrRecordInvalid
}

func (e *RecordInvalidError) Unwrap() error {
	if e.Errors.IsEmpty() {
		return nil
	}
	return e.Errors
}

func IsUnresolvedAttributeError(err error) bool {
	var e *UnresolvedAttributeError
	return errors.As(err, &e)
}

func IsRecordInvalidError(err error) bool {
	var e *RecordInvalidError
	return errors.As(err, &e)
}
