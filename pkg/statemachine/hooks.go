package statemachine

import "context"

// TransitionEvent describes a transition performed on a record.
type TransitionEvent struct {
	Owner     OwnerType
	Machine   string
	Event     string
	From      string
	To        string
	Persisted bool
}

// InitialStateEvent describes a bootstrap write of a machine's initial state.
type InitialStateEvent struct {
	Owner   OwnerType
	Machine string
	State   string
}

// Hooks defines callbacks for engine observability. Nil callbacks are skipped.
type Hooks struct {
	// OnTransition is called after the new state was written (and persisted, when requested).
	OnTransition func(ctx context.Context, e TransitionEvent)

	// OnPersistFailure is called when persisting a transition failed and the state was rolled back.
	OnPersistFailure func(ctx context.Context, e TransitionEvent, err error)

	// OnInitialState is called when a machine entered its initial state.
	OnInitialState func(ctx context.Context, e InitialStateEvent)
}

func (h Hooks) transition(ctx context.Context, e TransitionEvent) {
	if h.OnTransition != nil {
		h.OnTransition(ctx, e)
	}
}

func (h Hooks) persistFailure(ctx context.Context, e TransitionEvent, err error) {
	if h.OnPersistFailure != nil {
		h.OnPersistFailure(ctx, e, err)
	}
}

func (h Hooks) initialState(ctx context.Context, e InitialStateEvent) {
	if h.OnInitialState != nil {
		h.OnInitialState(ctx, e)
	}
}

// Merge combines hooks so that each callback of a runs before the one of b.
func Merge(a, b Hooks) Hooks {
	return Hooks{
		OnTransition: func(ctx context.Context, e TransitionEvent) {
			a.transition(ctx, e)
			b.transition(ctx, e)
		},
		OnPersistFailure: func(ctx context.Context, e TransitionEvent, err error) {
			a.persistFailure(ctx, e, err)
			b.persistFailure(ctx, e, err)
		},
		OnInitialState: func(ctx context.Context, e InitialStateEvent) {
			a.initialState(ctx, e)
			b.initialState(ctx, e)
		},
	}
}
