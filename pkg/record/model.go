package record

import (
	"context"
	"maps"

	"github.com/google/uuid"
)

// Attributes is the dynamic attribute bag of a model, keyed by plain attribute name.
type Attributes map[string]any

// Check runs before validation, in registration order.
// A returned error aborts validation and propagates unmodified.
type Check func(ctx context.Context) error

// Model is an in-memory record: declared slots plus a dynamic attribute bag.
// A Model is not safe for concurrent use.
type Model struct {
	schema *Schema
	store  Store

	id        string
	values    map[string]any
	attrs     Attributes
	checks    []Check
	rules     []Rule
	errors    ValidationErrors
	persisted bool
}

// Option configures a Model.
type Option func(*Model)

// WithID sets the record id instead of generating one.
func WithID(id string) Option {
	return func(m *Model) {
		if id != "" {
			m.id = id
		}
	}
}

// WithValues presets declared slots or bag entries. Undeclared names go to the bag.
func WithValues(values map[string]any) Option {
	return func(m *Model) {
		for k, v := range values {
			m.assign(k, v)
		}
	}
}

// New creates a new, unsaved model of the schema's kind.
func New(schema *Schema, store Store, opts ...Option) *Model {
	m := &Model{
		schema: schema,
		store:  store,
		id:     uuid.New().String(),
		values: make(map[string]any),
		attrs:  make(Attributes),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads a persisted model. Stored keys the schema declares fill the
// declared slots; all others are restored into the dynamic bag.
func Load(ctx context.Context, schema *Schema, store Store, id string) (*Model, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if id == "" {
		return nil, ErrEmptyID
	}
	data, err := store.Load(ctx, schema.Kind(), id)
	if err != nil {
		return nil, err
	}
	m := New(schema, store, WithID(id), WithValues(data))
	m.persisted = true
	return m, nil
}

func (m *Model) ID() string {
	return m.id
}

func (m *Model) Kind() string {
	return m.schema.Kind()
}

func (m *Model) Schema() *Schema {
	return m.schema
}

// Get returns the declared slot for declared names and the bag entry otherwise.
func (m *Model) Get(name string) (any, bool) {
	if m.schema.Declares(name) {
		v, ok := m.values[name]
		return v, ok
	}
	v, ok := m.attrs[name]
	return v, ok
}

// Set writes a declared slot. Undeclared names have no setter.
func (m *Model) Set(name string, value any) error {
	if !m.schema.Declares(name) {
		return &NoSetterError{Kind: m.schema.Kind(), Name: name}
	}
	m.values[name] = value
	return nil
}

// Attributes returns the live dynamic bag. Writes to it are seen by the model.
func (m *Model) Attributes() Attributes {
	return m.attrs
}

// BeforeValidation appends a check to run before validations.
func (m *Model) BeforeValidation(check Check) {
	if check != nil {
		m.checks = append(m.checks, check)
	}
}

// Validate appends validation rules.
func (m *Model) Validate(rules ...Rule) {
	m.rules = append(m.rules, rules...)
}

// Valid runs the before-validation checks and then the rules.
// The error is non-nil only when a check fails.
func (m *Model) Valid(ctx context.Context) (bool, error) {
	for _, check := range m.checks {
		if err := check(ctx); err != nil {
			return false, err
		}
	}
	m.errors = apply(m, m.rules)
	return m.errors.IsEmpty(), nil
}

// Errors returns the failures of the last validation pass.
func (m *Model) Errors() ValidationErrors {
	return m.errors
}

// Save validates the model and stores its full snapshot.
// An invalid model is not stored and reports false with a nil error.
func (m *Model) Save(ctx context.Context) (bool, error) {
	if m.store == nil {
		return false, ErrNilStore
	}
	ok, err := m.Valid(ctx)
	if err != nil || !ok {
		return false, err
	}
	if err := m.store.Save(ctx, m.Kind(), m.id, m.Snapshot()); err != nil {
		return false, err
	}
	m.persisted = true
	return true, nil
}

// UpdateAttributes assigns fields in memory and persists exactly those keys,
// skipping validation and before-validation checks.
func (m *Model) UpdateAttributes(ctx context.Context, fields map[string]any) error {
	if m.store == nil {
		return ErrNilStore
	}
	for k, v := range fields {
		m.assign(k, v)
	}
	return m.store.UpdateFields(ctx, m.Kind(), m.id, maps.Clone(fields))
}

// Delete removes the stored record.
func (m *Model) Delete(ctx context.Context) error {
	if m.store == nil {
		return ErrNilStore
	}
	if err := m.store.Delete(ctx, m.Kind(), m.id); err != nil {
		return err
	}
	m.persisted = false
	return nil
}

// NewRecord reports whether the model has never been stored.
func (m *Model) NewRecord() bool {
	return !m.persisted
}

func (m *Model) Persisted() bool {
	return m.persisted
}

// Snapshot merges declared slots and the bag into one map.
func (m *Model) Snapshot() map[string]any {
	out := make(map[string]any, len(m.values)+len(m.attrs))
	maps.Copy(out, m.attrs)
	maps.Copy(out, m.values)
	return out
}

func (m *Model) assign(name string, value any) {
	if m.schema.Declares(name) {
		m.values[name] = value
		return
	}
	m.attrs[name] = value
}
