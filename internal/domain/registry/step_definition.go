package registry

import "time"

// StepDefinition describes one unit of provisioning work.
// Definitions are values; a registry never hands out shared mutable state.
type StepDefinition struct {
	name            string
	commandTemplate string
	preconditions   []string
	rollbackStep    string
	timeout         time.Duration
}

// NewStepDefinition creates a definition with the given name and command template.
func NewStepDefinition(name, commandTemplate string) StepDefinition {
	return StepDefinition{
		name:            name,
		commandTemplate: commandTemplate,
	}
}

// Name returns the unique registry key.
func (d StepDefinition) Name() string {
	return d.name
}

// CommandTemplate returns the text/template source rendered by the tool adapter.
func (d StepDefinition) CommandTemplate() string {
	return d.commandTemplate
}

// Preconditions returns the names of steps that must succeed first.
func (d StepDefinition) Preconditions() []string {
	out := make([]string, len(d.preconditions))
	copy(out, d.preconditions)
	return out
}

// RollbackStep returns the compensating step name, or "" if none.
func (d StepDefinition) RollbackStep() string {
	return d.rollbackStep
}

// HasRollback returns true if a compensating step is defined.
func (d StepDefinition) HasRollback() bool {
	return d.rollbackStep != ""
}

// Timeout returns the per-step timeout override, or zero to use the engine default.
func (d StepDefinition) Timeout() time.Duration {
	return d.timeout
}

// Requires returns a copy of the definition with preconditions set.
func (d StepDefinition) Requires(names ...string) StepDefinition {
	d.preconditions = append([]string(nil), names...)
	return d
}

// WithRollback returns a copy of the definition with a rollback step.
func (d StepDefinition) WithRollback(name string) StepDefinition {
	d.rollbackStep = name
	return d
}

// WithTimeout returns a copy of the definition with a timeout override.
func (d StepDefinition) WithTimeout(timeout time.Duration) StepDefinition {
	d.timeout = timeout
	return d
}
