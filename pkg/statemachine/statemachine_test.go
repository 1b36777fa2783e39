package statemachine_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

func TestDefinition(t *testing.T) {
	t.Parallel()
	// Define states
	const (
		Draft     = statemachine.StringState("draft")
		InReview  = statemachine.StringState("in_review")
		Approved  = statemachine.StringState("approved")
		Published = statemachine.StringState("published")
	)

	// Define events
	const (
		Submit  = statemachine.StringEvent("submit")
		Approve = statemachine.StringEvent("approve")
		Publish = statemachine.StringEvent("publish")
	)

	t.Run("Defaults", func(t *testing.T) {
		t.Parallel()
		d := statemachine.MustDefinition("review", Draft,
			statemachine.WithTransition(Draft, InReview, Submit),
		)

		if d.Name() != "review" {
			t.Fatalf("Expected name review, got %s", d.Name())
		}
		if d.Attribute() != statemachine.DefaultAttribute {
			t.Fatalf("Expected default attribute %s, got %s", statemachine.DefaultAttribute, d.Attribute())
		}
		if d.InitialState() != Draft {
			t.Fatalf("Expected initial state %s, got %s", Draft, d.InitialState())
		}
		if d.WhinyPersistence() || d.SkipValidationOnSave() {
			t.Fatal("Expected persistence policies to be disabled by default")
		}
	})

	t.Run("States And Events", func(t *testing.T) {
		t.Parallel()
		d := statemachine.MustDefinition("review", Draft,
			statemachine.WithStates(Published),
			statemachine.WithTransition(Draft, InReview, Submit),
			statemachine.WithTransition(InReview, Approved, Approve),
			statemachine.WithTransition(Approved, Published, Publish),
		)

		var names []string
		for _, s := range d.States() {
			names = append(names, s.Name())
		}
		if got := strings.Join(names, ","); got != "draft,published,in_review,approved" {
			t.Fatalf("Unexpected states order: %s", got)
		}
		if len(d.Events()) != 3 {
			t.Fatalf("Expected 3 events, got %d", len(d.Events()))
		}
		if !d.HasState("approved") || d.HasState("rejected") {
			t.Fatal("HasState returned unexpected result")
		}
		if len(d.Transitions(Draft, Submit)) != 1 {
			t.Fatal("Expected one transition from draft on submit")
		}
		if d.Transitions(nil, Submit) != nil {
			t.Fatal("Expected nil transitions for nil state")
		}
	})

	t.Run("Error Handling", func(t *testing.T) {
		t.Parallel()

		if _, err := statemachine.NewDefinition("review", nil); !errors.Is(err, statemachine.ErrInvalidDefinition) {
			t.Fatalf("Expected ErrInvalidDefinition for nil initial state, got: %v", err)
		}
		if _, err := statemachine.NewDefinition("", Draft); !errors.Is(err, statemachine.ErrInvalidDefinition) {
			t.Fatalf("Expected ErrInvalidDefinition for empty name, got: %v", err)
		}
		if _, err := statemachine.NewDefinition("review", Draft, statemachine.WithAttribute(" ")); !errors.Is(err, statemachine.ErrInvalidDefinition) {
			t.Fatalf("Expected ErrInvalidDefinition for empty attribute, got: %v", err)
		}

		_, err := statemachine.NewDefinition("review", Draft,
			statemachine.WithTransition(nil, InReview, Submit),
		)
		if !errors.Is(err, statemachine.ErrInvalidTransition) {
			t.Fatalf("Expected ErrInvalidTransition, got: %v", err)
		}
	})

	t.Run("MustDefinition Panic", func(t *testing.T) {
		t.Parallel()
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("Expected MustDefinition to panic with nil initial state")
			}
		}()

		_ = statemachine.MustDefinition("review", nil)
	})
}

func TestOptionsPattern(t *testing.T) {
	t.Parallel()
	const (
		Idle    = statemachine.StringState("idle")
		Running = statemachine.StringState("running")
		Paused  = statemachine.StringState("paused")
		Start   = statemachine.StringEvent("start")
		Pause   = statemachine.StringEvent("pause")
	)

	t.Run("WithTransitions Bulk", func(t *testing.T) {
		t.Parallel()
		d, err := statemachine.NewDefinition("worker", Idle,
			statemachine.WithTransitions([]statemachine.TransitionDef{
				{From: Idle, To: Running, Event: Start},
				{From: Running, To: Paused, Event: Pause},
				{From: Paused, To: Running, Event: Start},
			}),
		)
		if err != nil {
			t.Fatalf("Failed to create definition: %v", err)
		}
		if len(d.Transitions(Paused, Start)) != 1 {
			t.Fatal("Expected paused -> running transition")
		}
	})

	t.Run("Invalid Transition in WithTransitions", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.NewDefinition("worker", Idle,
			statemachine.WithTransitions([]statemachine.TransitionDef{
				{From: Idle, To: Running, Event: Start},
				{From: Running, To: nil, Event: Pause},
			}),
		)
		if err == nil {
			t.Fatal("Expected error for invalid transition")
		}
		if !strings.Contains(err.Error(), "transition[1] running-><nil> on pause") {
			t.Fatalf("Unexpected error message: %v", err)
		}
	})

	t.Run("Nil Guards And Actions Are Dropped", func(t *testing.T) {
		t.Parallel()
		d := statemachine.MustDefinition("worker", Idle,
			statemachine.WithTransition(Idle, Running, Start,
				statemachine.WithGuard(nil),
				statemachine.WithGuards(nil, nil),
				statemachine.WithAction(nil),
				statemachine.WithActions(nil),
			),
		)
		tr := d.Transitions(Idle, Start)[0]
		if len(tr.Guards) != 0 || len(tr.Actions) != 0 {
			t.Fatalf("Expected nil guards and actions to be dropped, got %d/%d", len(tr.Guards), len(tr.Actions))
		}
	})
}

func TestBuilder(t *testing.T) {
	t.Parallel()
	const (
		Pending  = statemachine.StringState("pending")
		Paid     = statemachine.StringState("paid")
		Refunded = statemachine.StringState("refunded")
		Pay      = statemachine.StringEvent("pay")
		Refund   = statemachine.StringEvent("refund")
	)

	var actionCalled bool
	d, err := statemachine.NewBuilder("payment", Pending).
		Attribute("payment_state").
		WhinyPersistence(true).
		SkipValidationOnSave(true).
		From(Pending).When(Pay).To(Paid).
		WithGuard(func(ctx context.Context, from statemachine.State, event statemachine.Event, data any) bool {
			return true
		}).
		WithAction(func(ctx context.Context, from, to statemachine.State, event statemachine.Event, data any) error {
			actionCalled = true
			return nil
		}).
		Add().
		From(Paid).When(Refund).To(Refunded).Add().
		Build()
	if err != nil {
		t.Fatalf("Failed to build definition: %v", err)
	}

	if d.Attribute() != "payment_state" || !d.WhinyPersistence() || !d.SkipValidationOnSave() {
		t.Fatalf("Builder options not applied: %+v", d)
	}

	pay := d.Transitions(Pending, Pay)
	if len(pay) != 1 || len(pay[0].Guards) != 1 || len(pay[0].Actions) != 1 {
		t.Fatalf("Unexpected pay transition: %+v", pay)
	}
	if err := pay[0].Actions[0](context.Background(), Pending, Paid, Pay, nil); err != nil || !actionCalled {
		t.Fatal("Expected builder action to be kept")
	}
	if refund := d.Transitions(Paid, Refund); len(refund) != 1 || len(refund[0].Guards) != 0 {
		t.Fatalf("Expected guards to reset between transitions, got %+v", refund)
	}

	if _, err := statemachine.NewBuilder("payment", Pending).From(Pending).When(Pay).Add().Build(); !errors.Is(err, statemachine.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition for missing target, got: %v", err)
	}
}

func TestIsBlank(t *testing.T) {
	t.Parallel()
	empty := ""
	value := "open"

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"whitespace", "  \t", true},
		{"empty bytes", []byte{}, true},
		{"nil string pointer", (*string)(nil), true},
		{"empty string pointer", &empty, true},
		{"empty state", statemachine.StringState(""), true},
		{"string", "open", false},
		{"string pointer", &value, false},
		{"state", statemachine.StringState("open"), false},
		{"number", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := statemachine.IsBlank(tt.value); got != tt.want {
				t.Fatalf("IsBlank(%#v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
