// Package metrics exposes state machine lifecycle hooks as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

// Collector counts transitions, persistence failures and initial state writes.
type Collector struct {
	transitions     *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	initialStates   *prometheus.CounterVec
}

// NewCollector creates the metric vectors under the given namespace and
// registers them with reg. A nil registerer skips registration.
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Total number of state transitions performed",
			},
			[]string{"owner", "machine", "event", "from", "to", "persisted"},
		),
		persistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_persist_failures_total",
				Help:      "Total number of transitions whose state could not be persisted",
			},
			[]string{"owner", "machine", "event"},
		),
		initialStates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_initial_entries_total",
				Help:      "Total number of machines that entered their initial state",
			},
			[]string{"owner", "machine", "state"},
		),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.transitions, c.persistFailures, c.initialStates} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Hooks returns engine hooks feeding the collector.
func (c *Collector) Hooks() statemachine.Hooks {
	return statemachine.Hooks{
		OnTransition: func(ctx context.Context, e statemachine.TransitionEvent) {
			persisted := "false"
			if e.Persisted {
				persisted = "true"
			}
			c.transitions.WithLabelValues(string(e.Owner), e.Machine, e.Event, e.From, e.To, persisted).Inc()
		},
		OnPersistFailure: func(ctx context.Context, e statemachine.TransitionEvent, err error) {
			c.persistFailures.WithLabelValues(string(e.Owner), e.Machine, e.Event).Inc()
		},
		OnInitialState: func(ctx context.Context, e statemachine.InitialStateEvent) {
			c.initialStates.WithLabelValues(string(e.Owner), e.Machine, e.State).Inc()
		},
	}
}
