package persistence

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/record"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

// Adapter lets the state machine engine persist state through a record.Model.
// It owns no state of its own: reads and writes go straight to the model.
type Adapter struct {
	model  *record.Model
	owner  statemachine.OwnerType
	handle *statemachine.Handle
	logger *slog.Logger
}

var _ statemachine.Persistence = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for adapter diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// Bind attaches the machines registered for owner to model. It installs
// initial-state enforcement as a before-validation check, so every Save
// fills blank machine attributes first.
func Bind(engine *statemachine.Engine, owner statemachine.OwnerType, model *record.Model, opts ...Option) (*Adapter, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if model == nil {
		return nil, ErrNilModel
	}
	if owner == "" {
		owner = statemachine.OwnerType(model.Kind())
	}

	a := &Adapter{
		model:  model,
		owner:  owner,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}

	h, err := engine.For(owner, a)
	if err != nil {
		return nil, err
	}
	a.handle = h
	model.BeforeValidation(a.EnsureInitialState)
	return a, nil
}

// Model returns the bound record.
func (a *Adapter) Model() *record.Model {
	return a.model
}

// Handle returns the engine handle driving the record's machines.
func (a *Adapter) Handle() *statemachine.Handle {
	return a.handle
}

// ReadAttribute returns the latest in-memory value of name.
func (a *Adapter) ReadAttribute(name string) any {
	v, _ := a.model.Get(name)
	return v
}

// WriteAttribute sets name through the model's declared setter. Without one,
// the write lands in the dynamic attribute bag, but only for attributes
// backed by a registered machine; anything else is an error.
func (a *Adapter) WriteAttribute(name string, value any) error {
	if a.model.Schema().Declares(name) {
		return a.model.Set(name, value)
	}
	if a.handle.Machines().HasSetter(statemachine.SetterName(name)) {
		a.model.Attributes()[name] = value
		return nil
	}
	return &UnresolvedAttributeError{Kind: a.model.Kind(), Name: name}
}

// Save runs validations and stores the record.
func (a *Adapter) Save(ctx context.Context) (bool, error) {
	return a.model.Save(ctx)
}

// UpdateColumn writes name through WriteAttribute and persists that single
// attribute without validation. Storage errors are returned as is.
func (a *Adapter) UpdateColumn(ctx context.Context, name string, value any) error {
	if err := a.WriteAttribute(name, value); err != nil {
		return err
	}
	return a.model.UpdateAttributes(ctx, map[string]any{name: value})
}

// SupportsTransactions is always false: transitions are not atomic across
// concurrent writers of the same record.
func (a *Adapter) SupportsTransactions() bool {
	return false
}

// InvalidRecord returns the error describing the last rejected save.
func (a *Adapter) InvalidRecord() error {
	return &RecordInvalidError{Record: a.model, Errors: a.model.Errors()}
}

// EnsureInitialState fills blank machine attributes with their initial states.
func (a *Adapter) EnsureInitialState(ctx context.Context) error {
	if err := a.handle.EnsureInitialState(ctx); err != nil {
		a.logger.ErrorContext(ctx, "failed to ensure initial state",
			logger.Owner(string(a.owner)),
			logger.RecordID(a.model.ID()),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// Current returns the current state of machine.
func (a *Adapter) Current(machine string) (statemachine.State, error) {
	return a.handle.Current(machine)
}

// CanFire reports whether event can fire on machine.
func (a *Adapter) CanFire(ctx context.Context, machine string, event statemachine.Event, data any) bool {
	return a.handle.CanFire(ctx, machine, event, data)
}

// Fire transitions machine in memory only.
func (a *Adapter) Fire(ctx context.Context, machine string, event statemachine.Event, data any) error {
	return a.handle.Fire(ctx, machine, event, data)
}

// FireAndSave transitions machine and persists the record.
func (a *Adapter) FireAndSave(ctx context.Context, machine string, event statemachine.Event, data any) (bool, error) {
	ok, err := a.handle.FireAndSave(ctx, machine, event, data)
	if err != nil {
		a.logger.DebugContext(ctx, "transition not persisted",
			logger.Owner(string(a.owner)),
			logger.RecordID(a.model.ID()),
			logger.Machine(machine),
			logger.Event(eventName(event)),
			logger.Error(err),
		)
	}
	return ok, err
}

func eventName(e statemachine.Event) string {
	if e == nil {
		return ""
	}
	return e.Name()
}
