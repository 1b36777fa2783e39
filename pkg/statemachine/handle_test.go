package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

func newHandle(t *testing.T, p statemachine.Persistence, defs ...*statemachine.Definition) *statemachine.Handle {
	t.Helper()
	if len(defs) == 0 {
		defs = []*statemachine.Definition{statusDefinition()}
	}
	registry := statemachine.NewRegistry()
	require.NoError(t, registry.Register("order", defs...))

	h, err := statemachine.NewEngine(registry).For("order", p)
	require.NoError(t, err)
	return h
}

func TestEngine_For(t *testing.T) {
	t.Parallel()

	engine := statemachine.NewEngine(nil)
	require.NotNil(t, engine.Registry())

	_, err := engine.For("order", nil)
	assert.ErrorIs(t, err, statemachine.ErrNilPersistence)

	_, err = engine.For("order", newFakeRecord())
	assert.ErrorIs(t, err, statemachine.ErrOwnerNotRegistered)
}

func TestHandle_Current(t *testing.T) {
	t.Parallel()

	rec := newFakeRecord()
	h := newHandle(t, rec)

	state, err := h.Current("status")
	require.NoError(t, err)
	assert.Equal(t, Open, state, "blank attribute reads as the initial state")
	assert.Nil(t, rec.attrs["status"], "reading must not write the initial state")

	rec.attrs["status"] = "closed"
	state, err = h.Current("status")
	require.NoError(t, err)
	assert.Equal(t, "closed", state.Name())

	_, err = h.Current("missing")
	assert.True(t, statemachine.IsUnknownMachineError(err))
}

func TestHandle_EnsureInitialState(t *testing.T) {
	t.Parallel()

	payment := statemachine.MustDefinition("payment", statemachine.StringState("pending"),
		statemachine.WithAttribute("payment_state"),
	)

	t.Run("fills every blank machine", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		rec.attrs["payment_state"] = "  "
		h := newHandle(t, rec, statusDefinition(), payment)

		require.NoError(t, h.EnsureInitialState(context.Background()))
		assert.Equal(t, "open", rec.attrs["status"])
		assert.Equal(t, "pending", rec.attrs["payment_state"])
		assert.Zero(t, rec.saves, "enforcement never persists")
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		h := newHandle(t, rec, statusDefinition(), payment)

		require.NoError(t, h.EnsureInitialState(context.Background()))
		first := map[string]any{"status": rec.attrs["status"], "payment_state": rec.attrs["payment_state"]}
		require.NoError(t, h.EnsureInitialState(context.Background()))
		assert.Equal(t, first, rec.attrs)
	})

	t.Run("keeps existing values even if unknown", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		rec.attrs["status"] = "bogus"
		h := newHandle(t, rec)

		require.NoError(t, h.EnsureInitialState(context.Background()))
		assert.Equal(t, "bogus", rec.attrs["status"])
	})

	t.Run("does not run guards or actions", func(t *testing.T) {
		t.Parallel()
		called := false
		d := statemachine.MustDefinition("status", Open,
			statemachine.WithAttribute("status"),
			statemachine.WithTransition(Open, Closed, CloseEvent,
				statemachine.WithGuard(func(context.Context, statemachine.State, statemachine.Event, any) bool {
					called = true
					return false
				}),
			),
		)
		rec := newFakeRecord()
		h := newHandle(t, rec, d)

		require.NoError(t, h.EnsureInitialState(context.Background()))
		assert.False(t, called)
	})

	t.Run("write failure propagates unmodified", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		rec.writeErr = errors.New("no such slot")
		h := newHandle(t, rec)

		err := h.EnsureInitialState(context.Background())
		assert.Same(t, rec.writeErr, err)
	})
}

func TestHandle_Fire(t *testing.T) {
	t.Parallel()

	t.Run("writes without persisting", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		h := newHandle(t, rec)
		ctx := context.Background()

		assert.True(t, h.CanFire(ctx, "status", CloseEvent, nil))
		assert.False(t, h.CanFire(ctx, "status", ArchiveEvent, nil))
		assert.False(t, h.CanFire(ctx, "missing", CloseEvent, nil))

		require.NoError(t, h.Fire(ctx, "status", CloseEvent, nil))
		assert.Equal(t, "closed", rec.attrs["status"])
		assert.Zero(t, rec.saves)
		assert.Zero(t, rec.updates)
	})

	t.Run("no transition available", func(t *testing.T) {
		t.Parallel()
		h := newHandle(t, newFakeRecord())

		err := h.Fire(context.Background(), "status", ArchiveEvent, nil)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))

		err = h.Fire(context.Background(), "status", nil, nil)
		assert.ErrorIs(t, err, statemachine.ErrInvalidEvent)
	})

	t.Run("guards choose the first passing transition", func(t *testing.T) {
		t.Parallel()
		isVIP := func(ctx context.Context, from statemachine.State, event statemachine.Event, data any) bool {
			vip, _ := data.(bool)
			return vip
		}
		d := statemachine.MustDefinition("status", Open,
			statemachine.WithAttribute("status"),
			statemachine.WithTransition(Open, Archived, CloseEvent, statemachine.WithGuard(isVIP)),
			statemachine.WithTransition(Open, Closed, CloseEvent),
		)

		rec := newFakeRecord()
		require.NoError(t, newHandle(t, rec, d).Fire(context.Background(), "status", CloseEvent, true))
		assert.Equal(t, "archived", rec.attrs["status"])

		rec = newFakeRecord()
		require.NoError(t, newHandle(t, rec, d).Fire(context.Background(), "status", CloseEvent, false))
		assert.Equal(t, "closed", rec.attrs["status"])
	})

	t.Run("guards reject", func(t *testing.T) {
		t.Parallel()
		d := statemachine.MustDefinition("status", Open,
			statemachine.WithAttribute("status"),
			statemachine.WithTransition(Open, Closed, CloseEvent,
				statemachine.WithGuard(func(context.Context, statemachine.State, statemachine.Event, any) bool { return false }),
			),
		)
		rec := newFakeRecord()
		err := newHandle(t, rec, d).Fire(context.Background(), "status", CloseEvent, nil)
		assert.True(t, statemachine.IsTransitionRejectedError(err))
		assert.Nil(t, rec.attrs["status"])
	})

	t.Run("action failure aborts", func(t *testing.T) {
		t.Parallel()
		var seen []string
		d := statemachine.MustDefinition("status", Open,
			statemachine.WithAttribute("status"),
			statemachine.WithTransition(Open, Closed, CloseEvent,
				statemachine.WithActions(
					func(ctx context.Context, from, to statemachine.State, event statemachine.Event, data any) error {
						seen = append(seen, from.Name()+"->"+to.Name())
						return nil
					},
					func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
						return errors.New("boom")
					},
				),
			),
		)
		rec := newFakeRecord()
		err := newHandle(t, rec, d).Fire(context.Background(), "status", CloseEvent, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "action failed")
		assert.Equal(t, []string{"open->closed"}, seen)
		assert.Nil(t, rec.attrs["status"])
	})
}

func TestHandle_FireAndSave(t *testing.T) {
	t.Parallel()

	t.Run("saves the record", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		rec.attrs["status"] = "open"
		h := newHandle(t, rec)

		saved, err := h.FireAndSave(context.Background(), "status", CloseEvent, nil)
		require.NoError(t, err)
		assert.True(t, saved)
		assert.Equal(t, 1, rec.saves)
		assert.Zero(t, rec.updates)
		assert.Equal(t, "closed", rec.persisted["status"])
	})

	t.Run("skip validation uses update column", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		rec.attrs["status"] = "open"
		h := newHandle(t, rec, statusDefinition(statemachine.WithSkipValidationOnSave(true)))

		saved, err := h.FireAndSave(context.Background(), "status", CloseEvent, nil)
		require.NoError(t, err)
		assert.True(t, saved)
		assert.Zero(t, rec.saves)
		assert.Equal(t, 1, rec.updates)
		assert.Equal(t, "closed", rec.persisted["status"])
	})

	t.Run("rejected save rolls back and reports false", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		rec.attrs["status"] = "open"
		rec.rejectSave = true
		h := newHandle(t, rec)

		saved, err := h.FireAndSave(context.Background(), "status", CloseEvent, nil)
		require.NoError(t, err)
		assert.False(t, saved)
		assert.Equal(t, "open", rec.attrs["status"])
	})

	t.Run("whiny persistence returns invalid record", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		rec.rejectSave = true
		h := newHandle(t, rec, statusDefinition(statemachine.WithWhinyPersistence(true)))

		saved, err := h.FireAndSave(context.Background(), "status", CloseEvent, nil)
		assert.False(t, saved)
		assert.ErrorIs(t, err, errInvalidRecord)
		assert.Nil(t, rec.attrs["status"], "rolled back to the blank value")
	})

	t.Run("storage error is wrapped and not retried", func(t *testing.T) {
		t.Parallel()
		storageErr := errors.New("connection reset")
		rec := newFakeRecord()
		rec.attrs["status"] = "open"
		rec.saveErr = storageErr
		h := newHandle(t, rec, statusDefinition(statemachine.WithWhinyPersistence(true)))

		saved, err := h.FireAndSave(context.Background(), "status", CloseEvent, nil)
		assert.False(t, saved)
		assert.ErrorIs(t, err, statemachine.ErrPersistenceFailure)
		assert.ErrorIs(t, err, storageErr)
		assert.NotErrorIs(t, err, errInvalidRecord)
		assert.Equal(t, 1, rec.saves)
		assert.Equal(t, "open", rec.attrs["status"])
	})

	t.Run("update column error propagates", func(t *testing.T) {
		t.Parallel()
		updateErr := errors.New("record not found")
		rec := newFakeRecord()
		rec.attrs["status"] = "open"
		rec.updateErr = updateErr
		h := newHandle(t, rec, statusDefinition(statemachine.WithSkipValidationOnSave(true)))

		saved, err := h.FireAndSave(context.Background(), "status", CloseEvent, nil)
		assert.False(t, saved)
		assert.ErrorIs(t, err, updateErr)
		assert.Equal(t, "open", rec.attrs["status"])
	})

	t.Run("transactions only when supported", func(t *testing.T) {
		t.Parallel()
		rec := txRecord{newFakeRecord()}
		rec.attrs["status"] = "open"
		h := newHandle(t, rec)

		_, err := h.FireAndSave(context.Background(), "status", CloseEvent, nil)
		require.NoError(t, err)
		assert.Zero(t, rec.txRuns, "flag is false, no transaction")

		rec.txSupport = true
		saved, err := h.FireAndSave(context.Background(), "status", ReopenEvent, nil)
		require.NoError(t, err)
		assert.True(t, saved)
		assert.Equal(t, 1, rec.txRuns)
		assert.Equal(t, "open", rec.persisted["status"])
	})

	t.Run("transaction flag without transactor runs directly", func(t *testing.T) {
		t.Parallel()
		rec := newFakeRecord()
		rec.txSupport = true
		h := newHandle(t, rec)

		saved, err := h.FireAndSave(context.Background(), "status", CloseEvent, nil)
		require.NoError(t, err)
		assert.True(t, saved)
	})
}

func TestHandle_Hooks(t *testing.T) {
	t.Parallel()

	var transitions []statemachine.TransitionEvent
	var failures []error
	var initial []statemachine.InitialStateEvent

	hooks := statemachine.Hooks{
		OnTransition: func(ctx context.Context, e statemachine.TransitionEvent) {
			transitions = append(transitions, e)
		},
		OnPersistFailure: func(ctx context.Context, e statemachine.TransitionEvent, err error) {
			failures = append(failures, err)
		},
	}
	var merged int
	hooks = statemachine.Merge(hooks, statemachine.Hooks{
		OnInitialState: func(ctx context.Context, e statemachine.InitialStateEvent) {
			initial = append(initial, e)
		},
		OnTransition: func(context.Context, statemachine.TransitionEvent) { merged++ },
	})

	registry := statemachine.NewRegistry()
	require.NoError(t, registry.Register("order", statusDefinition()))
	rec := newFakeRecord()
	h, err := statemachine.NewEngine(registry, statemachine.WithHooks(hooks)).For("order", rec)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, h.EnsureInitialState(ctx))
	require.NoError(t, h.Fire(ctx, "status", CloseEvent, nil))

	rec.rejectSave = true
	_, err = h.FireAndSave(ctx, "status", ArchiveEvent, nil)
	require.NoError(t, err)

	require.Len(t, initial, 1)
	assert.Equal(t, statemachine.InitialStateEvent{Owner: "order", Machine: "status", State: "open"}, initial[0])
	require.Len(t, transitions, 1)
	assert.Equal(t, statemachine.TransitionEvent{Owner: "order", Machine: "status", Event: "close", From: "open", To: "closed"}, transitions[0])
	assert.Equal(t, 1, merged)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], errInvalidRecord)
}
