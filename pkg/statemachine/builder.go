package statemachine

// Builder provides a fluent API for building machine definitions.
type Builder struct {
	name         string
	initialState State
	opts         []Option
	currentFrom  State
	currentEvent Event
	currentTo    State
	guards       []Guard
	actions      []Action
}

// NewBuilder creates a new definition builder.
func NewBuilder(name string, initialState State) *Builder {
	return &Builder{
		name:         name,
		initialState: initialState,
	}
}

// Attribute sets the record attribute holding the current state.
func (b *Builder) Attribute(attribute string) *Builder {
	b.opts = append(b.opts, WithAttribute(attribute))
	return b
}

// WhinyPersistence toggles returning invalid record errors on rejected saves.
func (b *Builder) WhinyPersistence(enabled bool) *Builder {
	b.opts = append(b.opts, WithWhinyPersistence(enabled))
	return b
}

// SkipValidationOnSave toggles single column persistence.
func (b *Builder) SkipValidationOnSave(enabled bool) *Builder {
	b.opts = append(b.opts, WithSkipValidationOnSave(enabled))
	return b
}

// From sets the starting state for a transition.
func (b *Builder) From(state State) *Builder {
	b.reset()
	b.currentFrom = state
	return b
}

// When sets the event that triggers a transition.
func (b *Builder) When(event Event) *Builder {
	b.currentEvent = event
	return b
}

// To sets the target state for a transition.
func (b *Builder) To(state State) *Builder {
	b.currentTo = state
	return b
}

// WithGuard adds a guard function to the current transition.
func (b *Builder) WithGuard(guard Guard) *Builder {
	b.guards = append(b.guards, guard)
	return b
}

// WithAction adds an action function to the current transition.
func (b *Builder) WithAction(action Action) *Builder {
	b.actions = append(b.actions, action)
	return b
}

// Add finalizes the current transition. Invalid transitions surface from Build.
func (b *Builder) Add() *Builder {
	b.opts = append(b.opts, WithTransition(b.currentFrom, b.currentTo, b.currentEvent,
		WithGuards(b.guards...), WithActions(b.actions...)))
	b.reset()
	return b
}

// Build returns the constructed definition.
func (b *Builder) Build() (*Definition, error) {
	return NewDefinition(b.name, b.initialState, b.opts...)
}

// reset clears the current transition configuration.
func (b *Builder) reset() {
	b.currentFrom = nil
	b.currentEvent = nil
	b.currentTo = nil
	b.guards = nil
	b.actions = nil
}
