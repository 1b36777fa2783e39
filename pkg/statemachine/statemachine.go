package statemachine

import (
	"context"
)

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Action executes side effects during state transitions. Returning an error prevents the transition.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // All must pass for transition to proceed
	Actions []Action // Executed in order before state change
}

// OwnerType identifies the record type that owns a set of machines.
type OwnerType string

// Persistence is the capability set a record gives the engine so it can read,
// write and persist the current state of its machines.
type Persistence interface {
	// ReadAttribute returns the latest in-memory value of the named slot.
	ReadAttribute(name string) any

	// WriteAttribute sets the named slot. It never fails for a registered
	// machine attribute.
	WriteAttribute(name string, value any) error

	// Save persists the whole record. False means the record was rejected
	// (e.g. failed validation); an error means the storage layer failed.
	Save(ctx context.Context) (bool, error)

	// UpdateColumn persists exactly one attribute, bypassing validation.
	UpdateColumn(ctx context.Context, name string, value any) error

	// SupportsTransactions reports whether the engine may wrap a transition
	// in a rollback-capable transaction.
	SupportsTransactions() bool

	// InvalidRecord returns the failure describing a rejected record.
	InvalidRecord() error
}

// Transactor is implemented by persistence layers able to run a function
// atomically. It is only used when SupportsTransactions reports true.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// StringState provides a simple string-based state implementation for basic use cases.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// StringEvent provides a simple string-based event implementation for basic use cases.
type StringEvent string

func (e StringEvent) Name() string {
	return string(e)
}
