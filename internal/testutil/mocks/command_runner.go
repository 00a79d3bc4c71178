// Package mocks provides hand-written doubles for the ports interfaces.
package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/blinders/blinders-cli/internal/ports"
)

type commandOutcome struct {
	result ports.CommandResult
	err    error
}

// CommandRunner answers Run from canned outcomes keyed by command line.
// It is safe for concurrent use.
type CommandRunner struct {
	mu       sync.Mutex
	outcomes map[string]commandOutcome
	calls    []ports.CommandSpec
}

// NewCommandRunner returns a runner with no canned outcomes.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{outcomes: make(map[string]commandOutcome)}
}

// AddResult makes command with args return result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.set(command, args, commandOutcome{result: result})
}

// AddError makes command with args fail to start with err.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.set(command, args, commandOutcome{result: ports.CommandResult{ExitCode: -1}, err: err})
}

func (m *CommandRunner) set(command string, args []string, o commandOutcome) {
	key := ports.CommandSpec{Command: command, Args: args}.String()
	m.mu.Lock()
	m.outcomes[key] = o
	m.mu.Unlock()
}

// Run records spec and returns its canned outcome. Stdout is copied to
// spec.Echo when one is set.
func (m *CommandRunner) Run(ctx context.Context, spec ports.CommandSpec) (ports.CommandResult, error) {
	m.mu.Lock()
	recorded := spec
	recorded.Echo = nil
	m.calls = append(m.calls, recorded)
	o, ok := m.outcomes[spec.String()]
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ports.CommandResult{ExitCode: -1}, err
	}
	if !ok {
		return ports.CommandResult{}, fmt.Errorf("mocks: no outcome for %q", spec.String())
	}
	if o.err == nil && spec.Echo != nil && o.result.Stdout != "" {
		_, _ = io.WriteString(spec.Echo, o.result.Stdout)
	}
	return o.result, o.err
}

// Calls returns the specs passed to Run, in order, without their Echo writers.
func (m *CommandRunner) Calls() []ports.CommandSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.CommandSpec(nil), m.calls...)
}

// Reset drops canned outcomes and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = make(map[string]commandOutcome)
	m.calls = nil
}

var _ ports.CommandRunner = (*CommandRunner)(nil)
