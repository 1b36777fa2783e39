package statemachine

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
)

// Handle drives the machines of one record. It is not safe for concurrent use:
// the record it wraps is expected to be owned by a single goroutine.
type Handle struct {
	engine *Engine
	owner  OwnerType
	set    *MachineSet
	p      Persistence
}

// Owner returns the owner type the handle was bound with.
func (h *Handle) Owner() OwnerType {
	return h.owner
}

// Machines returns the machine set resolved for the owner type.
func (h *Handle) Machines() *MachineSet {
	return h.set
}

func (h *Handle) machine(name string) (*Definition, error) {
	d, ok := h.set.Machine(name)
	if !ok {
		return nil, NewErrUnknownMachine(h.owner, name)
	}
	return d, nil
}

// Current returns the state held in the machine's attribute. A blank attribute
// reads as the initial state without writing it.
func (h *Handle) Current(machine string) (State, error) {
	d, err := h.machine(machine)
	if err != nil {
		return nil, err
	}
	return h.current(d), nil
}

func (h *Handle) current(d *Definition) State {
	v := h.p.ReadAttribute(d.Attribute())
	if IsBlank(v) {
		return d.InitialState()
	}
	return stateOf(v)
}

// EnterInitialState writes the machine's initial state into its attribute.
// No guards or actions run and nothing is persisted.
func (h *Handle) EnterInitialState(ctx context.Context, machine string) error {
	d, err := h.machine(machine)
	if err != nil {
		return err
	}
	if err := h.p.WriteAttribute(d.Attribute(), d.InitialState().Name()); err != nil {
		return err
	}

	h.engine.logger.DebugContext(ctx, "entered initial state",
		logger.Owner(string(h.owner)),
		logger.Machine(d.Name()),
		logger.State(d.InitialState().Name()),
	)
	h.engine.hooks.initialState(ctx, InitialStateEvent{
		Owner:   h.owner,
		Machine: d.Name(),
		State:   d.InitialState().Name(),
	})
	return nil
}

// EnsureInitialState fills every blank machine attribute with its initial state.
// Attributes holding any non-blank value, valid or not, are left untouched.
func (h *Handle) EnsureInitialState(ctx context.Context) error {
	for _, name := range h.set.Names() {
		d, _ := h.set.Machine(name)
		if !IsBlank(h.p.ReadAttribute(d.Attribute())) {
			continue
		}
		if err := h.EnterInitialState(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// CanFire reports whether event has a transition whose guards pass from the current state.
func (h *Handle) CanFire(ctx context.Context, machine string, event Event, data any) bool {
	d, err := h.machine(machine)
	if err != nil {
		return false
	}
	_, err = d.resolve(ctx, h.current(d), event, data)
	return err == nil
}

// Fire performs the transition for event and writes the new state without persisting it.
func (h *Handle) Fire(ctx context.Context, machine string, event Event, data any) error {
	d, err := h.machine(machine)
	if err != nil {
		return err
	}

	from := h.current(d)
	t, err := h.transition(ctx, d, from, event, data)
	if err != nil {
		return err
	}
	if err := h.p.WriteAttribute(d.Attribute(), t.To.Name()); err != nil {
		return err
	}

	h.engine.hooks.transition(ctx, h.event(d, t, false))
	return nil
}

// FireAndSave performs the transition for event, writes the new state and persists it.
//
// The state is persisted with UpdateColumn when the definition skips validation
// and with Save otherwise. When persisting fails the attribute is rolled back to
// its previous value. A rejected save reports false, or the record's invalid
// record error when the definition has whiny persistence. Storage errors are
// returned wrapped with ErrPersistenceFailure and are never retried.
//
// The step runs inside a transaction only when the persistence supports
// transactions and implements Transactor; otherwise it is not atomic.
func (h *Handle) FireAndSave(ctx context.Context, machine string, event Event, data any) (bool, error) {
	d, err := h.machine(machine)
	if err != nil {
		return false, err
	}

	var saved bool
	step := func(ctx context.Context) error {
		var err error
		saved, err = h.fireAndSave(ctx, d, event, data)
		return err
	}

	if h.p.SupportsTransactions() {
		if tx, ok := h.p.(Transactor); ok {
			err := tx.Transaction(ctx, step)
			return saved, err
		}
	}

	h.engine.logger.DebugContext(ctx, "persistence does not support transactions, transition is not atomic",
		logger.Owner(string(h.owner)),
		logger.Machine(d.Name()),
	)
	err = step(ctx)
	return saved, err
}

func (h *Handle) fireAndSave(ctx context.Context, d *Definition, event Event, data any) (bool, error) {
	attr := d.Attribute()
	old := h.p.ReadAttribute(attr)

	from := h.current(d)
	t, err := h.transition(ctx, d, from, event, data)
	if err != nil {
		return false, err
	}
	if err := h.p.WriteAttribute(attr, t.To.Name()); err != nil {
		return false, err
	}

	ev := h.event(d, t, false)

	var ok bool
	var perr error
	if d.SkipValidationOnSave() {
		perr = h.p.UpdateColumn(ctx, attr, t.To.Name())
		ok = perr == nil
	} else {
		ok, perr = h.p.Save(ctx)
	}

	if perr != nil {
		h.rollback(ctx, d, old)
		err := fmt.Errorf("%w: %w", ErrPersistenceFailure, perr)
		h.engine.hooks.persistFailure(ctx, ev, err)
		return false, err
	}

	if !ok {
		h.rollback(ctx, d, old)
		invalid := h.p.InvalidRecord()
		h.engine.hooks.persistFailure(ctx, ev, invalid)
		if d.WhinyPersistence() {
			return false, invalid
		}
		return false, nil
	}

	ev.Persisted = true
	h.engine.hooks.transition(ctx, ev)
	return true, nil
}

// transition resolves the transition and runs its actions. Any action failure aborts it.
func (h *Handle) transition(ctx context.Context, d *Definition, from State, event Event, data any) (*Transition, error) {
	t, err := d.resolve(ctx, from, event, data)
	if err != nil {
		return nil, err
	}

	for _, action := range t.Actions {
		if action != nil {
			if err := action(ctx, from, t.To, event, data); err != nil {
				return nil, fmt.Errorf("action failed: %w", err)
			}
		}
	}
	return t, nil
}

func (h *Handle) rollback(ctx context.Context, d *Definition, old any) {
	if err := h.p.WriteAttribute(d.Attribute(), old); err != nil {
		h.engine.logger.ErrorContext(ctx, "failed to roll back state attribute",
			logger.Owner(string(h.owner)),
			logger.Machine(d.Name()),
			logger.Error(err),
		)
	}
}

func (h *Handle) event(d *Definition, t *Transition, persisted bool) TransitionEvent {
	return TransitionEvent{
		Owner:     h.owner,
		Machine:   d.Name(),
		Event:     t.Event.Name(),
		From:      t.From.Name(),
		To:        t.To.Name(),
		Persisted: persisted,
	}
}
