package statemachine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// definitionsFile is the YAML layout accepted by LoadRegistry.
//
//	owners:
//	  order:
//	    extends: base
//	    machines:
//	      - name: status
//	        attribute: status
//	        initial: open
//	        whiny_persistence: true
//	        transitions:
//	          - event: close
//	            from: [open]
//	            to: closed
type definitionsFile struct {
	Owners map[string]ownerSpec `yaml:"owners"`
}

type ownerSpec struct {
	Extends  string        `yaml:"extends"`
	Machines []machineSpec `yaml:"machines"`
}

type machineSpec struct {
	Name                 string           `yaml:"name"`
	Attribute            string           `yaml:"attribute"`
	Initial              string           `yaml:"initial"`
	States               []string         `yaml:"states"`
	WhinyPersistence     bool             `yaml:"whiny_persistence"`
	SkipValidationOnSave bool             `yaml:"skip_validation_on_save"`
	Transitions          []transitionSpec `yaml:"transitions"`
}

type transitionSpec struct {
	Event string   `yaml:"event"`
	From  []string `yaml:"from"`
	To    string   `yaml:"to"`
}

// LoadRegistryFile reads machine definitions from a YAML file.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions file: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}

// LoadRegistry builds a registry from YAML machine definitions.
// Guards and actions cannot be expressed in YAML and must be added in code.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var file definitionsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrInvalidDefinition, fmt.Errorf("failed to decode definitions: %w", err))
	}

	registry := NewRegistry()

	// Sorted for deterministic error reporting
	owners := make([]string, 0, len(file.Owners))
	for owner := range file.Owners {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	for _, owner := range owners {
		spec := file.Owners[owner]
		defs := make([]*Definition, 0, len(spec.Machines))
		for _, m := range spec.Machines {
			d, err := m.definition()
			if err != nil {
				return nil, fmt.Errorf("owner '%s': %w", owner, err)
			}
			defs = append(defs, d)
		}
		if len(defs) > 0 {
			if err := registry.Register(OwnerType(owner), defs...); err != nil {
				return nil, err
			}
		}
	}

	for _, owner := range owners {
		if parent := file.Owners[owner].Extends; parent != "" {
			if err := registry.Extend(OwnerType(owner), OwnerType(parent)); err != nil {
				return nil, err
			}
		}
	}

	return registry, nil
}

func (m machineSpec) definition() (*Definition, error) {
	opts := []Option{
		WithWhinyPersistence(m.WhinyPersistence),
		WithSkipValidationOnSave(m.SkipValidationOnSave),
	}
	if m.Attribute != "" {
		opts = append(opts, WithAttribute(m.Attribute))
	}
	for _, s := range m.States {
		opts = append(opts, WithStates(StringState(s)))
	}
	for _, t := range m.Transitions {
		if len(t.From) == 0 {
			return nil, errors.Join(ErrInvalidDefinition, fmt.Errorf("machine '%s': transition on '%s' has no source state", m.Name, t.Event))
		}
		if t.Event == "" || t.To == "" {
			return nil, errors.Join(ErrInvalidDefinition, fmt.Errorf("machine '%s': transition needs an event and a target state", m.Name))
		}
		for _, from := range t.From {
			opts = append(opts, WithTransition(StringState(from), StringState(t.To), StringEvent(t.Event)))
		}
	}
	return NewDefinition(m.Name, StringState(m.Initial), opts...)
}
