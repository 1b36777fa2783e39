package statemachine

import (
	"errors"
	"fmt"
	"strings"
)

// Option configures a machine definition during construction.
type Option func(*Definition) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption func(*transitionConfig)

// TransitionDef defines a transition between states.
type TransitionDef struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

type transitionConfig struct {
	guards  []Guard
	actions []Action
}

// NewDefinition creates a named machine definition with the given initial state and options.
func NewDefinition(name string, initialState State, opts ...Option) (*Definition, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Join(ErrInvalidDefinition, fmt.Errorf("machine name cannot be empty"))
	}
	if initialState == nil || initialState.Name() == "" {
		return nil, errors.Join(ErrInvalidDefinition, fmt.Errorf("initial state of machine '%s' cannot be empty", name))
	}

	d := newDefinition(name, initialState)

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// MustDefinition creates a machine definition and panics if any option fails to apply.
func MustDefinition(name string, initialState State, opts ...Option) *Definition {
	d, err := NewDefinition(name, initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine definition: %v", err))
	}
	return d
}

// WithAttribute sets the record attribute that holds the machine's current state.
func WithAttribute(attribute string) Option {
	return func(d *Definition) error {
		attribute = strings.TrimSpace(attribute)
		if attribute == "" {
			return errors.Join(ErrInvalidDefinition, fmt.Errorf("attribute of machine '%s' cannot be empty", d.name))
		}
		d.attribute = attribute
		return nil
	}
}

// WithWhinyPersistence makes a rejected save fail with the record's invalid record error
// instead of reporting false.
func WithWhinyPersistence(enabled bool) Option {
	return func(d *Definition) error {
		d.whinyPersistence = enabled
		return nil
	}
}

// WithSkipValidationOnSave persists the state attribute alone, bypassing record validation.
func WithSkipValidationOnSave(enabled bool) Option {
	return func(d *Definition) error {
		d.skipValidation = enabled
		return nil
	}
}

// WithStates declares states that no transition references yet.
func WithStates(states ...State) Option {
	return func(d *Definition) error {
		for _, s := range states {
			if s == nil || s.Name() == "" {
				return errors.Join(ErrInvalidDefinition, fmt.Errorf("machine '%s' has an empty state", d.name))
			}
			d.rememberState(s)
		}
		return nil
	}
}

// WithTransition adds a single transition to the definition.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(d *Definition) error {
		cfg := &transitionConfig{}
		for _, opt := range opts {
			opt(cfg)
		}

		return d.addTransition(from, to, event, cfg.guards, cfg.actions)
	}
}

// WithTransitions adds multiple transitions to the definition at once.
func WithTransitions(transitions []TransitionDef) Option {
	return func(d *Definition) error {
		for i, t := range transitions {
			if err := d.addTransition(t.From, t.To, t.Event, t.Guards, t.Actions); err != nil {
				// Handle nil states/events safely in error message
				fromName := "<nil>"
				toName := "<nil>"
				eventName := "<nil>"

				if t.From != nil {
					fromName = t.From.Name()
				}
				if t.To != nil {
					toName = t.To.Name()
				}
				if t.Event != nil {
					eventName = t.Event.Name()
				}

				return fmt.Errorf("failed to add transition[%d] %s->%s on %s: %w",
					i, fromName, toName, eventName, err)
			}
		}
		return nil
	}
}

// WithGuard adds a single guard to a transition.
func WithGuard(guard Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithGuards adds multiple guards to a transition.
func WithGuards(guards ...Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		for _, guard := range guards {
			if guard != nil {
				cfg.guards = append(cfg.guards, guard)
			}
		}
	}
}

// WithAction adds a single action to a transition.
func WithAction(action Action) TransitionOption {
	return func(cfg *transitionConfig) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}

// WithActions adds multiple actions to a transition.
func WithActions(actions ...Action) TransitionOption {
	return func(cfg *transitionConfig) {
		for _, action := range actions {
			if action != nil {
				cfg.actions = append(cfg.actions, action)
			}
		}
	}
}
