package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine/metrics"
)

func TestCollector_Hooks(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector("fsmkit", reg)
	require.NoError(t, err)

	hooks := c.Hooks()
	ctx := context.Background()
	hooks.OnInitialState(ctx, statemachine.InitialStateEvent{Owner: "order", Machine: "status", State: "open"})
	hooks.OnTransition(ctx, statemachine.TransitionEvent{Owner: "order", Machine: "status", Event: "close", From: "open", To: "closed", Persisted: true})
	hooks.OnTransition(ctx, statemachine.TransitionEvent{Owner: "order", Machine: "status", Event: "close", From: "open", To: "closed", Persisted: true})
	hooks.OnPersistFailure(ctx, statemachine.TransitionEvent{Owner: "order", Machine: "status", Event: "archive"}, assert.AnError)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["fsmkit_state_transitions_total"])
	assert.Equal(t, 1.0, values["fsmkit_state_persist_failures_total"])
	assert.Equal(t, 1.0, values["fsmkit_state_initial_entries_total"])

	count, err := testutil.GatherAndCount(reg, "fsmkit_state_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "one label set for both transitions")
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := metrics.NewCollector("fsmkit", reg)
	require.NoError(t, err)

	_, err = metrics.NewCollector("fsmkit", reg)
	assert.Error(t, err)

	_, err = metrics.NewCollector("fsmkit", nil)
	assert.NoError(t, err)
}
