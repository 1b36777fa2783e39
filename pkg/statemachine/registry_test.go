package statemachine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

func TestRegistry_RegisterAndFetch(t *testing.T) {
	t.Parallel()

	registry := statemachine.NewRegistry()
	payment := statemachine.MustDefinition("payment", statemachine.StringState("pending"),
		statemachine.WithAttribute("payment_state"),
	)
	require.NoError(t, registry.Register("order", statusDefinition(), payment))

	set, err := registry.Fetch("order", false)
	require.NoError(t, err)
	assert.Equal(t, statemachine.OwnerType("order"), set.Owner())
	assert.Equal(t, []string{"status", "payment"}, set.Names())
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"status", "payment_state"}, set.AttributeNames())
	assert.Equal(t, []string{"status=", "payment_state="}, set.Setters())
	assert.True(t, set.HasSetter("status="))
	assert.False(t, set.HasSetter("status"), "setter must carry the assignment marker")
	assert.False(t, set.HasSetter("title="))
	assert.True(t, set.HasAttribute("payment_state"))

	d, ok := set.Machine("payment")
	require.True(t, ok)
	assert.Equal(t, "payment_state", d.Attribute())

	_, ok = set.Machine("missing")
	assert.False(t, ok)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty owner", func(t *testing.T) {
		t.Parallel()
		err := statemachine.NewRegistry().Register("", statusDefinition())
		assert.ErrorIs(t, err, statemachine.ErrInvalidDefinition)
	})

	t.Run("duplicate machine name", func(t *testing.T) {
		t.Parallel()
		registry := statemachine.NewRegistry()
		require.NoError(t, registry.Register("order", statusDefinition()))

		err := registry.Register("order", statusDefinition())
		assert.ErrorIs(t, err, statemachine.ErrInvalidDefinition)
	})

	t.Run("duplicate attribute", func(t *testing.T) {
		t.Parallel()
		other := statemachine.MustDefinition("other", Open, statemachine.WithAttribute("status"))
		err := statemachine.NewRegistry().Register("order", statusDefinition(), other)
		assert.ErrorIs(t, err, statemachine.ErrInvalidDefinition)
	})

	t.Run("failed registration keeps previous set", func(t *testing.T) {
		t.Parallel()
		registry := statemachine.NewRegistry()
		require.NoError(t, registry.Register("order", statusDefinition()))

		extra := statemachine.MustDefinition("extra", Open, statemachine.WithAttribute("extra"))
		require.Error(t, registry.Register("order", extra, nil))

		set, err := registry.Fetch("order", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"status"}, set.Names())
	})

	t.Run("MustRegister panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			statemachine.NewRegistry().MustRegister("", statusDefinition())
		})
	})
}

func TestRegistry_FetchFallback(t *testing.T) {
	t.Parallel()

	registry := statemachine.NewRegistry()
	require.NoError(t, registry.Register("base", statusDefinition()))
	require.NoError(t, registry.Extend("order", "base"))
	require.NoError(t, registry.Extend("rush_order", "order"))

	_, err := registry.Fetch("rush_order", false)
	assert.ErrorIs(t, err, statemachine.ErrOwnerNotRegistered)

	set, err := registry.Fetch("rush_order", true)
	require.NoError(t, err)
	assert.Equal(t, statemachine.OwnerType("base"), set.Owner())

	_, err = registry.Fetch("unknown", true)
	assert.ErrorIs(t, err, statemachine.ErrOwnerNotRegistered)

	assert.ErrorIs(t, registry.Extend("base", "rush_order"), statemachine.ErrInvalidDefinition, "cycles are rejected")
	assert.ErrorIs(t, registry.Extend("base", "base"), statemachine.ErrInvalidDefinition)
	assert.ElementsMatch(t, []statemachine.OwnerType{"base"}, registry.Owners())
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	registry := statemachine.NewRegistry()
	require.NoError(t, registry.Register("order", statusDefinition()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				set, err := registry.Fetch("order", true)
				if assert.NoError(t, err) {
					assert.Equal(t, 1, set.Len())
				}
			}
		}()
	}
	wg.Wait()
}
