// Package record is a small record framework used as the host for state machines.
//
// A Schema names a record kind and the attributes it declares statically; only
// declared attributes have a setter (Model.Set). Every other value a model
// carries lives in its dynamic attribute bag (Model.Attributes), which is
// stored alongside the declared slots and restored into the bag on Load.
//
// Save runs the ordered before-validation checks, then the validation rules,
// and writes the full snapshot through a Store. UpdateAttributes writes only
// the given keys and skips validation.
//
//	schema := record.MustSchema("order", "title")
//	m := record.New(schema, record.NewMemoryStore())
//	m.Validate(record.Required("title"))
//	_ = m.Set("title", "first")
//	saved, err := m.Save(ctx)
//
// Store implementations live in the backend packages (sqlite, pg, mongo,
// redis); recordtest holds the behavior every Store must satisfy.
package record
