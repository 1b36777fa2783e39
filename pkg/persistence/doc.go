// Package persistence connects record.Model hosts to the statemachine engine.
//
// Bind resolves the machines registered for a record's owner type and installs
// initial-state enforcement as a before-validation check, so a record never
// reaches storage with a blank machine attribute:
//
//	m := record.New(schema, store)
//	a, err := persistence.Bind(engine, "order", m)
//	if err != nil {
//	    return err
//	}
//	saved, err := a.FireAndSave(ctx, "status", Close, nil)
//
// Writes go through the model's declared setter when the schema has one.
// Attributes without a declared setter are written to the model's dynamic
// attribute bag, but only when a registered machine stores its state there;
// any other write fails with ErrUnresolvedAttribute.
//
// The adapter does not support transactions. A failing save is reported, not
// retried, and the engine rolls the attribute back in memory.
package persistence
