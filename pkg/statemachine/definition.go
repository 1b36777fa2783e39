package statemachine

import (
	"context"
)

// DefaultAttribute is the record attribute used when a definition does not name one.
const DefaultAttribute = "state"

// Definition describes one named machine: the attribute holding its current
// state, its initial state and its transition table.
// Uses a nested map structure for O(1) transition lookups: [fromState][event][]Transition
// A Definition is immutable once NewDefinition returns.
type Definition struct {
	name             string
	attribute        string
	initialState     State
	transitions      map[string]map[string][]Transition
	states           []State
	events           []Event
	whinyPersistence bool
	skipValidation   bool
}

func newDefinition(name string, initialState State) *Definition {
	d := &Definition{
		name:         name,
		attribute:    DefaultAttribute,
		initialState: initialState,
		transitions:  make(map[string]map[string][]Transition),
	}
	d.rememberState(initialState)
	return d
}

// Name returns the machine name, unique per owner type.
func (d *Definition) Name() string {
	return d.name
}

// Attribute returns the name of the record slot holding the current state.
func (d *Definition) Attribute() string {
	return d.attribute
}

// InitialState returns the state written into an empty attribute slot.
func (d *Definition) InitialState() State {
	return d.initialState
}

// WhinyPersistence reports whether a rejected save is returned as an invalid record error.
func (d *Definition) WhinyPersistence() bool {
	return d.whinyPersistence
}

// SkipValidationOnSave reports whether state is persisted with a single column update.
func (d *Definition) SkipValidationOnSave() bool {
	return d.skipValidation
}

// States returns every state referenced by the definition, initial state first.
func (d *Definition) States() []State {
	out := make([]State, len(d.states))
	copy(out, d.states)
	return out
}

// Events returns every event referenced by the definition in declaration order.
func (d *Definition) Events() []Event {
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// HasState reports whether name is one of the definition's states.
func (d *Definition) HasState(name string) bool {
	for _, s := range d.states {
		if s.Name() == name {
			return true
		}
	}
	return false
}

// Transitions returns the transitions declared for the from/event pair.
func (d *Definition) Transitions(from State, event Event) []Transition {
	if from == nil || event == nil {
		return nil
	}
	ts := d.transitions[from.Name()][event.Name()]
	out := make([]Transition, len(ts))
	copy(out, ts)
	return out
}

func (d *Definition) addTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	fromStateName := from.Name()
	eventName := event.Name()

	if _, ok := d.transitions[fromStateName]; !ok {
		d.transitions[fromStateName] = make(map[string][]Transition)
	}

	transition := Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	}

	// Multiple transitions allowed for same from/event to support guard-based branching
	d.transitions[fromStateName][eventName] = append(d.transitions[fromStateName][eventName], transition)
	d.rememberState(from)
	d.rememberState(to)
	d.rememberEvent(event)
	return nil
}

func (d *Definition) rememberState(s State) {
	if s == nil || d.HasState(s.Name()) {
		return
	}
	d.states = append(d.states, s)
}

func (d *Definition) rememberEvent(e Event) {
	for _, known := range d.events {
		if known.Name() == e.Name() {
			return
		}
	}
	d.events = append(d.events, e)
}

// resolve picks the transition to take from the given state.
// First transition with passing guards wins (enables priority ordering).
func (d *Definition) resolve(ctx context.Context, current State, event Event, data any) (*Transition, error) {
	if event == nil {
		return nil, ErrInvalidEvent
	}

	currentStateName := current.Name()
	eventName := event.Name()

	if _, ok := d.transitions[currentStateName]; !ok {
		return nil, NewErrNoTransitionAvailable(currentStateName, eventName)
	}

	transitions, ok := d.transitions[currentStateName][eventName]
	if !ok || len(transitions) == 0 {
		return nil, NewErrNoTransitionAvailable(currentStateName, eventName)
	}

	for i, t := range transitions {
		if guardsPass(ctx, t.Guards, current, event, data) {
			return &transitions[i], nil
		}
	}

	return nil, NewErrTransitionRejected(currentStateName, eventName)
}

func guardsPass(ctx context.Context, guards []Guard, current State, event Event, data any) bool {
	for _, guard := range guards {
		if guard != nil && !guard(ctx, current, event, data) {
			return false
		}
	}
	return true
}
