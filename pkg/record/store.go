package record

import (
	"context"
	"maps"
	"sync"
)

// Store persists record attribute maps keyed by kind and id.
type Store interface {
	// Save replaces the stored attributes of a record, creating it if needed.
	Save(ctx context.Context, kind, id string, attrs map[string]any) error
	// UpdateFields changes only the given keys of a stored record.
	// It returns ErrNotFound when the record was never saved.
	UpdateFields(ctx context.Context, kind, id string, fields map[string]any) error
	// Load returns the stored attributes or ErrNotFound.
	Load(ctx context.Context, kind, id string) (map[string]any, error)
	// Delete removes a record. Deleting a missing record returns ErrNotFound.
	Delete(ctx context.Context, kind, id string) error
}

type memoryKey struct {
	kind string
	id   string
}

// MemoryStore is an in-process Store. Maps are copied on the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[memoryKey]map[string]any
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memoryKey]map[string]any)}
}

func (s *MemoryStore) Save(ctx context.Context, kind, id string, attrs map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[memoryKey{kind, id}] = cloneAttrs(attrs)
	return nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, kind, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[memoryKey{kind, id}]
	if !ok {
		return ErrNotFound
	}
	maps.Copy(rec, fields)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, kind, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[memoryKey{kind, id}]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAttrs(rec), nil
}

func (s *MemoryStore) Delete(ctx context.Context, kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey{kind, id}
	if _, ok := s.records[key]; !ok {
		return ErrNotFound
	}
	delete(s.records, key)
	return nil
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	maps.Copy(out, attrs)
	return out
}
