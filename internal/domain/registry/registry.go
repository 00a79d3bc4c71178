// Package registry holds the static table of step definitions.
//
// A Registry is validated once when it is built and is read-only afterwards,
// so it can be shared by any number of concurrent plan builds.
package registry

import (
	"fmt"
	"strings"
	"text/template"
)

// Registry maps step names to definitions and remembers insertion order.
type Registry struct {
	steps map[string]StepDefinition
	index map[string]int
	order []string
}

// New builds a Registry from definitions in declaration order.
// Returns a configuration error for invalid names, duplicates, empty or
// unparsable command templates, and references to undefined steps.
func New(defs ...StepDefinition) (*Registry, error) {
	r := &Registry{
		steps: make(map[string]StepDefinition, len(defs)),
		index: make(map[string]int, len(defs)),
		order: make([]string, 0, len(defs)),
	}

	for _, def := range defs {
		name, err := ValidateStepName(def.name)
		if err != nil {
			return nil, NewConfigurationError(def.name, "invalid step name").WithUnderlying(err)
		}
		def.name = name

		if _, exists := r.steps[name]; exists {
			return nil, NewDuplicateStepError(name)
		}

		if strings.TrimSpace(def.commandTemplate) == "" {
			return nil, NewConfigurationError(name, "command template is empty")
		}
		if _, err := template.New(name).Option("missingkey=error").Parse(def.commandTemplate); err != nil {
			return nil, NewConfigurationError(name, "command template does not parse").WithUnderlying(err)
		}
		if def.timeout < 0 {
			return nil, NewConfigurationError(name, "timeout must not be negative")
		}

		r.steps[name] = def
		r.index[name] = len(r.order)
		r.order = append(r.order, name)
	}

	if err := r.validateReferences(); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew is like New but panics on error.
// Use this for compile-time known registries that should never fail validation.
func MustNew(defs ...StepDefinition) *Registry {
	r, err := New(defs...)
	if err != nil {
		panic("invalid registry: " + err.Error())
	}
	return r
}

// validateReferences checks that every precondition and rollback names a defined step.
func (r *Registry) validateReferences() error {
	for _, name := range r.order {
		def := r.steps[name]
		for _, dep := range def.preconditions {
			if _, ok := r.steps[dep]; !ok {
				return NewConfigurationError(name, fmt.Sprintf("requires undefined step %q", dep))
			}
		}
		if def.rollbackStep == "" {
			continue
		}
		if def.rollbackStep == name {
			return NewConfigurationError(name, "step cannot be its own rollback")
		}
		if _, ok := r.steps[def.rollbackStep]; !ok {
			return NewConfigurationError(name, fmt.Sprintf("rollback references undefined step %q", def.rollbackStep))
		}
	}
	return nil
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (StepDefinition, error) {
	def, ok := r.steps[name]
	if !ok {
		return StepDefinition{}, NewUnknownStepError(name)
	}
	return def, nil
}

// Has returns true if name is defined.
func (r *Registry) Has(name string) bool {
	_, ok := r.steps[name]
	return ok
}

// Position returns the insertion index of name, used for deterministic ordering.
func (r *Registry) Position(name string) (int, bool) {
	i, ok := r.index[name]
	if !ok {
		return -1, false
	}
	return i, true
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns step names in insertion order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Definitions returns all definitions in insertion order.
func (r *Registry) Definitions() []StepDefinition {
	defs := make([]StepDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.steps[name])
	}
	return defs
}
