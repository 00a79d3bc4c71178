package execution

import (
	"time"

	"github.com/blinders/blinders-cli/internal/domain/registry"
)

// PlanEntry represents a single step's planned execution.
type PlanEntry struct {
	definition  registry.StepDefinition
	simulate    bool
	rollback    registry.StepDefinition
	hasRollback bool
}

// NewPlanEntry creates a new PlanEntry without a rollback.
func NewPlanEntry(definition registry.StepDefinition, simulate bool) PlanEntry {
	return PlanEntry{
		definition: definition,
		simulate:   simulate,
	}
}

// WithRollback returns a copy of the entry with a resolved rollback definition.
func (e PlanEntry) WithRollback(rollback registry.StepDefinition) PlanEntry {
	e.rollback = rollback
	e.hasRollback = true
	return e
}

// Definition returns the step to be executed.
func (e PlanEntry) Definition() registry.StepDefinition {
	return e.definition
}

// Name returns the step name.
func (e PlanEntry) Name() string {
	return e.definition.Name()
}

// Simulate returns true if the adapter must run this step in simulate mode.
func (e PlanEntry) Simulate() bool {
	return e.simulate
}

// Rollback returns the compensating step, if any.
func (e PlanEntry) Rollback() (registry.StepDefinition, bool) {
	return e.rollback, e.hasRollback
}

// Plan is an ordered, resolved sequence of steps for one request.
// A Plan is never mutated after the builder returns it.
type Plan struct {
	requestID string
	request   DeploymentRequest
	entries   []PlanEntry
	createdAt time.Time
}

// RequestID returns the opaque id shared by the plan and its report.
func (p *Plan) RequestID() string {
	return p.requestID
}

// Request returns the request the plan was built for.
func (p *Plan) Request() DeploymentRequest {
	return p.request
}

// CreatedAt returns when the plan was built.
func (p *Plan) CreatedAt() time.Time {
	return p.createdAt
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// IsEmpty returns true if there are no entries.
func (p *Plan) IsEmpty() bool {
	return len(p.entries) == 0
}

// Entries returns a copy of the plan entries in execution order.
func (p *Plan) Entries() []PlanEntry {
	entries := make([]PlanEntry, len(p.entries))
	copy(entries, p.entries)
	return entries
}

// StepNames returns step names in execution order.
func (p *Plan) StepNames() []string {
	names := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		names = append(names, e.Name())
	}
	return names
}

// Simulated returns true if every step runs in simulate mode.
func (p *Plan) Simulated() bool {
	for _, e := range p.entries {
		if !e.simulate {
			return false
		}
	}
	return true
}
