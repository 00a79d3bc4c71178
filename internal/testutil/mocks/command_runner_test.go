package mocks

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/blinders/blinders-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRunner_AddResult(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("terraform", []string{"version"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "Terraform v1.9.5",
	})

	result, err := runner.Run(context.Background(), ports.CommandSpec{Command: "terraform", Args: []string{"version"}})
	require.NoError(t, err)
	assert.Equal(t, "Terraform v1.9.5", result.Stdout)
}

func TestCommandRunner_NotFound(t *testing.T) {
	runner := NewCommandRunner()

	_, err := runner.Run(context.Background(), ports.CommandSpec{Command: "unknown", Args: []string{"command"}})
	assert.Error(t, err)
}

func TestCommandRunner_AddError(t *testing.T) {
	runner := NewCommandRunner()
	boom := errors.New("exec: not found")
	runner.AddError("terraform", nil, boom)

	_, err := runner.Run(context.Background(), ports.CommandSpec{Command: "terraform"})
	assert.ErrorIs(t, err, boom)
}

func TestCommandRunner_RecordsCalls(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("sh", []string{"-c", "terraform init"}, ports.CommandResult{})

	_, _ = runner.Run(context.Background(), ports.CommandSpec{
		Command: "sh",
		Args:    []string{"-c", "terraform init"},
		Dir:     "infra/dev",
		Env:     []string{"AWS_PROFILE=dev"},
	})

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sh", calls[0].Command)
	assert.Equal(t, "infra/dev", calls[0].Dir)
	assert.Equal(t, []string{"AWS_PROFILE=dev"}, calls[0].Env)
}

func TestCommandRunner_Echo(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("echo", []string{"hi"}, ports.CommandResult{Stdout: "hi\n"})

	var buf bytes.Buffer
	_, err := runner.Run(context.Background(), ports.CommandSpec{Command: "echo", Args: []string{"hi"}, Echo: &buf})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", buf.String())
}

func TestCommandRunner_CancelledContext(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("sleep", []string{"1"}, ports.CommandResult{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Run(ctx, ports.CommandSpec{Command: "sleep", Args: []string{"1"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, -1, result.ExitCode)
}

func TestCommandRunner_Reset(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("echo", nil, ports.CommandResult{})
	_, _ = runner.Run(context.Background(), ports.CommandSpec{Command: "echo"})

	runner.Reset()

	assert.Empty(t, runner.Calls())
	_, err := runner.Run(context.Background(), ports.CommandSpec{Command: "echo"})
	assert.Error(t, err)
}

func TestCommandRunner_Concurrent(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("echo", nil, ports.CommandResult{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = runner.Run(context.Background(), ports.CommandSpec{Command: "echo"})
		}()
	}
	wg.Wait()

	assert.Len(t, runner.Calls(), 20)
}
