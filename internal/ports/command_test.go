package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandResult_Success(t *testing.T) {
	t.Parallel()

	assert.True(t, CommandResult{ExitCode: 0, Stdout: "output"}.Success())
	assert.False(t, CommandResult{ExitCode: 1, Stderr: "error"}.Success())
}

func TestCommandSpec_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		spec     CommandSpec
		expected string
	}{
		{"no args", CommandSpec{Command: "terraform"}, "terraform"},
		{"with args", CommandSpec{Command: "sh", Args: []string{"-c", "terraform init"}}, "sh -c terraform init"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.spec.String())
		})
	}
}

func TestToolResult_Success(t *testing.T) {
	t.Parallel()

	assert.True(t, ToolResult{ExitCode: 0}.Success())
	assert.False(t, ToolResult{ExitCode: 2, Stderr: "Error: Invalid reference"}.Success())
}
