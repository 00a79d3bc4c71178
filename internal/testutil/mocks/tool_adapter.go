package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/blinders/blinders-cli/internal/ports"
)

// ToolCall records one adapter invocation.
type ToolCall struct {
	Step     string
	Template string
	Simulate bool
	Context  ports.ToolContext
}

// ToolOutcome scripts how the adapter answers for one step.
type ToolOutcome struct {
	Result ports.ToolResult
	Err    error
	// Delay holds the call for this long, or until ctx is done.
	Delay time.Duration
	// Block holds the call until ctx is done and returns ctx.Err().
	Block bool
	// IgnoreCancel makes Delay run to completion even if ctx is done.
	IgnoreCancel bool
	// After runs once the call has been recorded, before it returns.
	After func()
}

// ToolAdapter is a thread-safe recording test double for ports.ToolAdapter.
// Steps without a scripted outcome succeed with exit code 0.
type ToolAdapter struct {
	mu       sync.RWMutex
	outcomes map[string]ToolOutcome
	calls    []ToolCall
}

// NewToolAdapter creates a new ToolAdapter mock.
func NewToolAdapter() *ToolAdapter {
	return &ToolAdapter{
		outcomes: make(map[string]ToolOutcome),
		calls:    make([]ToolCall, 0),
	}
}

// On scripts the outcome for a step.
func (m *ToolAdapter) On(step string, outcome ToolOutcome) *ToolAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[step] = outcome
	return m
}

// Fail scripts a non-zero exit for a step.
func (m *ToolAdapter) Fail(step string, exitCode int) *ToolAdapter {
	return m.On(step, ToolOutcome{Result: ports.ToolResult{ExitCode: exitCode, Stderr: "Error: " + step + " failed"}})
}

// Execute records the call and returns the scripted outcome.
func (m *ToolAdapter) Execute(ctx context.Context, commandTemplate string, tc ports.ToolContext) (ports.ToolResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ToolCall{
		Step:     tc.Step,
		Template: commandTemplate,
		Simulate: tc.Simulate,
		Context:  tc,
	})
	outcome, ok := m.outcomes[tc.Step]
	m.mu.Unlock()

	if !ok {
		return ports.ToolResult{Stdout: tc.Step + " ok\n", Simulated: tc.Simulate}, nil
	}

	if outcome.After != nil {
		defer outcome.After()
	}

	if outcome.Block {
		<-ctx.Done()
		return ports.ToolResult{ExitCode: -1}, ctx.Err()
	}

	if outcome.Delay > 0 {
		timer := time.NewTimer(outcome.Delay)
		defer timer.Stop()
		if outcome.IgnoreCancel {
			<-timer.C
		} else {
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ports.ToolResult{ExitCode: -1}, ctx.Err()
			}
		}
	}

	result := outcome.Result
	result.Simulated = tc.Simulate
	return result, outcome.Err
}

// Calls returns all recorded invocations in call order.
func (m *ToolAdapter) Calls() []ToolCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ToolCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Steps returns the step names of all recorded invocations.
func (m *ToolAdapter) Steps() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	steps := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		steps = append(steps, c.Step)
	}
	return steps
}

// Reset clears all scripted outcomes and recorded calls.
func (m *ToolAdapter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = make(map[string]ToolOutcome)
	m.calls = make([]ToolCall, 0)
}

// Ensure ToolAdapter implements ports.ToolAdapter.
var _ ports.ToolAdapter = (*ToolAdapter)(nil)
