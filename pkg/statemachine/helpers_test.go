package statemachine_test

import (
	"context"
	"errors"
	"maps"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

var errInvalidRecord = errors.New("record invalid")

// fakeRecord is an in-memory Persistence used by engine tests.
type fakeRecord struct {
	attrs     map[string]any
	persisted map[string]any

	rejectSave bool
	saveErr    error
	updateErr  error
	writeErr   error
	txSupport  bool

	saves   int
	updates int
	txRuns  int
}

func newFakeRecord() *fakeRecord {
	return &fakeRecord{
		attrs:     make(map[string]any),
		persisted: make(map[string]any),
	}
}

func (r *fakeRecord) ReadAttribute(name string) any {
	return r.attrs[name]
}

func (r *fakeRecord) WriteAttribute(name string, value any) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.attrs[name] = value
	return nil
}

func (r *fakeRecord) Save(ctx context.Context) (bool, error) {
	r.saves++
	if r.saveErr != nil {
		return false, r.saveErr
	}
	if r.rejectSave {
		return false, nil
	}
	r.persisted = maps.Clone(r.attrs)
	return true, nil
}

func (r *fakeRecord) UpdateColumn(ctx context.Context, name string, value any) error {
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	r.attrs[name] = value
	r.persisted[name] = value
	return nil
}

func (r *fakeRecord) SupportsTransactions() bool {
	return r.txSupport
}

func (r *fakeRecord) InvalidRecord() error {
	return errInvalidRecord
}

// txRecord additionally implements statemachine.Transactor.
type txRecord struct {
	*fakeRecord
}

func (r txRecord) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txRuns++
	snapshot := maps.Clone(r.persisted)
	if err := fn(ctx); err != nil {
		r.persisted = snapshot
		return err
	}
	return nil
}

const (
	Open     = statemachine.StringState("open")
	Closed   = statemachine.StringState("closed")
	Archived = statemachine.StringState("archived")

	CloseEvent   = statemachine.StringEvent("close")
	ReopenEvent  = statemachine.StringEvent("reopen")
	ArchiveEvent = statemachine.StringEvent("archive")
)

func statusDefinition(opts ...statemachine.Option) *statemachine.Definition {
	base := []statemachine.Option{
		statemachine.WithAttribute("status"),
		statemachine.WithTransition(Open, Closed, CloseEvent),
		statemachine.WithTransition(Closed, Open, ReopenEvent),
		statemachine.WithTransition(Closed, Archived, ArchiveEvent),
	}
	return statemachine.MustDefinition("status", Open, append(base, opts...)...)
}
