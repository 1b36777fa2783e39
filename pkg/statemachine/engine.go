package statemachine

import (
	"fmt"
	"log/slog"
	"strings"
)

// Engine executes transitions for records whose machines are registered in a Registry.
// It never caches state: every read and write goes through the record's Persistence.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
	hooks    Hooks
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger configures a logger for engine diagnostics.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an engine backed by registry.
func NewEngine(registry *Registry, opts ...EngineOption) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	e := &Engine{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine reads machine definitions from.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// For binds a record's persistence to the machines of its owner type.
// Owners without their own registration resolve through their parents.
func (e *Engine) For(owner OwnerType, p Persistence) (*Handle, error) {
	if p == nil {
		return nil, ErrNilPersistence
	}
	set, err := e.registry.Fetch(owner, true)
	if err != nil {
		return nil, err
	}
	return &Handle{
		engine: e,
		owner:  owner,
		set:    set,
		p:      p,
	}, nil
}

// IsBlank reports whether a stored attribute value counts as "not set":
// nil, an empty or whitespace-only string, an empty byte slice or a State with an empty name.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []byte:
		return len(strings.TrimSpace(string(val))) == 0
	case *string:
		return val == nil || strings.TrimSpace(*val) == ""
	case State:
		return val == nil || strings.TrimSpace(val.Name()) == ""
	}
	return false
}

// stateOf converts a raw attribute value into a State.
func stateOf(v any) State {
	switch val := v.(type) {
	case State:
		return val
	case string:
		return StringState(val)
	case *string:
		return StringState(*val)
	case []byte:
		return StringState(string(val))
	case fmt.Stringer:
		return StringState(val.String())
	}
	return StringState(fmt.Sprint(v))
}
