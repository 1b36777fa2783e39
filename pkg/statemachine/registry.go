package statemachine

import (
	"errors"
	"fmt"
	"sync"
)

// MachineSet is the ordered collection of machines registered for one owner type.
type MachineSet struct {
	owner    OwnerType
	names    []string
	machines map[string]*Definition
}

func newMachineSet(owner OwnerType) *MachineSet {
	return &MachineSet{
		owner:    owner,
		machines: make(map[string]*Definition),
	}
}

// Owner returns the owner type the set was registered for.
func (s *MachineSet) Owner() OwnerType {
	return s.owner
}

// Names returns machine names in registration order.
func (s *MachineSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of registered machines.
func (s *MachineSet) Len() int {
	return len(s.names)
}

// Machine looks up a definition by machine name.
func (s *MachineSet) Machine(name string) (*Definition, bool) {
	d, ok := s.machines[name]
	return d, ok
}

// AttributeNames returns the attribute of every machine in registration order.
func (s *MachineSet) AttributeNames() []string {
	out := make([]string, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.machines[name].Attribute())
	}
	return out
}

// HasAttribute reports whether attribute belongs to one of the machines.
func (s *MachineSet) HasAttribute(attribute string) bool {
	for _, name := range s.names {
		if s.machines[name].Attribute() == attribute {
			return true
		}
	}
	return false
}

// Setters returns the assignment names ("<attribute>=") of every machine attribute.
func (s *MachineSet) Setters() []string {
	out := make([]string, 0, len(s.names))
	for _, attr := range s.AttributeNames() {
		out = append(out, SetterName(attr))
	}
	return out
}

// HasSetter reports whether method is exactly the assignment name of a machine attribute.
func (s *MachineSet) HasSetter(method string) bool {
	for _, setter := range s.Setters() {
		if setter == method {
			return true
		}
	}
	return false
}

func (s *MachineSet) add(d *Definition) error {
	if d == nil {
		return errors.Join(ErrInvalidDefinition, fmt.Errorf("nil definition for '%s'", s.owner))
	}
	if _, exists := s.machines[d.Name()]; exists {
		return errors.Join(ErrInvalidDefinition, fmt.Errorf("machine '%s' already registered for '%s'", d.Name(), s.owner))
	}
	if s.HasAttribute(d.Attribute()) {
		return errors.Join(ErrInvalidDefinition, fmt.Errorf("attribute '%s' of machine '%s' is already used by another machine of '%s'", d.Attribute(), d.Name(), s.owner))
	}
	s.names = append(s.names, d.Name())
	s.machines[d.Name()] = d
	return nil
}

// SetterName returns the assignment name for an attribute.
func SetterName(attribute string) string {
	return attribute + "="
}

// Registry maps owner types to their machine sets.
// Registration happens at startup; lookups are safe for concurrent readers.
type Registry struct {
	mu      sync.RWMutex
	sets    map[OwnerType]*MachineSet
	parents map[OwnerType]OwnerType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sets:    make(map[OwnerType]*MachineSet),
		parents: make(map[OwnerType]OwnerType),
	}
}

// Register adds machine definitions to an owner type.
// Machine names and attributes must be unique per owner.
func (r *Registry) Register(owner OwnerType, defs ...*Definition) error {
	if owner == "" {
		return errors.Join(ErrInvalidDefinition, fmt.Errorf("owner type cannot be empty"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy-on-write: a failed registration leaves the previous set untouched
	set := newMachineSet(owner)
	if existing, ok := r.sets[owner]; ok {
		for _, name := range existing.names {
			set.names = append(set.names, name)
			set.machines[name] = existing.machines[name]
		}
	}
	for _, d := range defs {
		if err := set.add(d); err != nil {
			return err
		}
	}
	r.sets[owner] = set
	return nil
}

// MustRegister works like Register but panics on error.
func (r *Registry) MustRegister(owner OwnerType, defs ...*Definition) {
	if err := r.Register(owner, defs...); err != nil {
		panic(fmt.Sprintf("failed to register state machines: %v", err))
	}
}

// Extend declares parent as the owner type child falls back to on lookup.
func (r *Registry) Extend(child, parent OwnerType) error {
	if child == "" || parent == "" || child == parent {
		return errors.Join(ErrInvalidDefinition, fmt.Errorf("invalid inheritance '%s' -> '%s'", child, parent))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Reject cycles
	for p, ok := parent, true; ok; p, ok = r.parents[p] {
		if p == child {
			return errors.Join(ErrInvalidDefinition, fmt.Errorf("inheritance cycle between '%s' and '%s'", child, parent))
		}
	}
	r.parents[child] = parent
	return nil
}

// Fetch returns the machine set of owner. With fallback, an owner without its
// own registration resolves through its parent chain.
func (r *Registry) Fetch(owner OwnerType, fallback bool) (*MachineSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if set, ok := r.sets[owner]; ok {
		return set, nil
	}
	if fallback {
		for p, ok := r.parents[owner]; ok; p, ok = r.parents[p] {
			if set, found := r.sets[p]; found {
				return set, nil
			}
		}
	}
	return nil, errors.Join(ErrOwnerNotRegistered, fmt.Errorf("owner type '%s'", owner))
}

// Owners returns all owner types with their own registration.
func (r *Registry) Owners() []OwnerType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]OwnerType, 0, len(r.sets))
	for owner := range r.sets {
		out = append(out, owner)
	}
	return out
}
