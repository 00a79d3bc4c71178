// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"io"
	"strings"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandSpec describes one process invocation.
type CommandSpec struct {
	Command string
	Args    []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the parent environment as KEY=VALUE pairs.
	Env []string
	// Echo, when set, receives output lines as they are produced.
	Echo io.Writer
}

// String returns the command line for logs.
func (s CommandSpec) String() string {
	if len(s.Args) == 0 {
		return s.Command
	}
	return s.Command + " " + strings.Join(s.Args, " ")
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(ctx context.Context, spec CommandSpec) (CommandResult, error)
}
