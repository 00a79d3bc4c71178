package ports

import "context"

// ToolContext carries the values a command template is rendered with.
type ToolContext struct {
	RequestID   string
	Environment string
	Action      string
	Step        string
	WorkDir     string
	Vars        map[string]string
	// Env holds extra variables exported to the tool process.
	Env map[string]string
	// Simulate asks the adapter to validate only and perform no irreversible action.
	Simulate bool
}

// ToolResult is the outcome of one tool invocation.
type ToolResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Simulated is true when the result was synthesized without running the tool.
	Simulated bool
}

// Success returns true if the tool exited with code 0.
func (r ToolResult) Success() bool {
	return r.ExitCode == 0
}

// ToolAdapter is the boundary to the external infrastructure-automation tool.
// Implementations must release every process and handle they acquire before
// returning, including when ctx is cancelled or times out.
type ToolAdapter interface {
	Execute(ctx context.Context, commandTemplate string, tc ToolContext) (ToolResult, error)
}
