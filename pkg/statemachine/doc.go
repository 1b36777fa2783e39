// Package statemachine provides a storage-neutral finite-state-machine engine.
//
// Machine definitions describe states, events and transitions independently of
// any storage technology. A record takes part by implementing Persistence, the
// narrow contract through which the engine reads the current state, writes a
// new one, persists it and learns about rejected records.
//
// The package revolves around a few types:
//  1. Definition – one named machine: the record attribute holding its
//     state, its initial state and its transition table (immutable).
//  2. Registry – maps an OwnerType to the ordered MachineSet registered for it,
//     with optional parent fallback.
//  3. Engine – binds a record's Persistence to its machines and returns a Handle.
//  4. Handle – reads current state, enters initial states, fires events with
//     or without persisting the result.
//
// # Usage
//
//	const (
//	    Open   = statemachine.StringState("open")
//	    Closed = statemachine.StringState("closed")
//	    Close  = statemachine.StringEvent("close")
//	)
//
//	status := statemachine.MustDefinition("status", Open,
//	    statemachine.WithAttribute("status"),
//	    statemachine.WithWhinyPersistence(true),
//	    statemachine.WithTransition(Open, Closed, Close),
//	)
//
//	registry := statemachine.NewRegistry()
//	registry.MustRegister("order", status)
//
//	engine := statemachine.NewEngine(registry)
//	h, err := engine.For("order", persistence)
//	if err != nil {
//	    return err
//	}
//	if err := h.EnsureInitialState(ctx); err != nil {
//	    return err
//	}
//	saved, err := h.FireAndSave(ctx, "status", Close, nil)
//
// # Guards and Actions
//
// Guards veto a transition based on runtime data; the first transition whose
// guards all pass wins. Actions run after the guards and before the new state
// is written; an action error aborts the transition.
//
// # Persistence
//
// FireAndSave persists with Persistence.Save, or with Persistence.UpdateColumn
// when the definition skips validation. A failed persist rolls the attribute
// back to its previous value. Storage errors wrap ErrPersistenceFailure;
// rejected saves report false or, with whiny persistence, the record's
// InvalidRecord error. Transactions are used only when the persistence reports
// support for them and implements Transactor.
//
// # Error Handling
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* ... */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* ... */ }
//	if errors.Is(err, statemachine.ErrPersistenceFailure) { /* ... */ }
//
// # Concurrency
//
// Registry uses a RWMutex and is safe for concurrent readers once populated.
// A Handle wraps a single record and must not be shared between goroutines.
package statemachine
