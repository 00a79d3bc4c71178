package mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blinders/blinders-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolAdapter_DefaultSuccess(t *testing.T) {
	t.Parallel()

	adapter := NewToolAdapter()
	result, err := adapter.Execute(context.Background(), "terraform init", ports.ToolContext{Step: "init"})

	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "init ok\n", result.Stdout)
}

func TestToolAdapter_ScriptedOutcomes(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	adapter := NewToolAdapter().
		Fail("apply", 2).
		On("plan", ToolOutcome{Err: boom})

	result, err := adapter.Execute(context.Background(), "terraform apply", ports.ToolContext{Step: "apply"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ExitCode)
	assert.Contains(t, result.Stderr, "apply failed")

	_, err = adapter.Execute(context.Background(), "terraform plan", ports.ToolContext{Step: "plan"})
	assert.ErrorIs(t, err, boom)
}

func TestToolAdapter_RecordsSimulate(t *testing.T) {
	t.Parallel()

	adapter := NewToolAdapter()
	_, _ = adapter.Execute(context.Background(), "terraform init", ports.ToolContext{Step: "init", Simulate: true})
	_, _ = adapter.Execute(context.Background(), "terraform apply", ports.ToolContext{Step: "apply"})

	calls := adapter.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].Simulate)
	assert.False(t, calls[1].Simulate)
	assert.Equal(t, "terraform apply", calls[1].Template)
	assert.Equal(t, []string{"init", "apply"}, adapter.Steps())
}

func TestToolAdapter_Block(t *testing.T) {
	t.Parallel()

	adapter := NewToolAdapter().On("apply", ToolOutcome{Block: true})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := adapter.Execute(ctx, "terraform apply", ports.ToolContext{Step: "apply"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestToolAdapter_After(t *testing.T) {
	t.Parallel()

	called := false
	adapter := NewToolAdapter().On("init", ToolOutcome{After: func() { called = true }})

	_, err := adapter.Execute(context.Background(), "terraform init", ports.ToolContext{Step: "init"})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestToolAdapter_Reset(t *testing.T) {
	t.Parallel()

	adapter := NewToolAdapter().Fail("init", 1)
	_, _ = adapter.Execute(context.Background(), "terraform init", ports.ToolContext{Step: "init"})

	adapter.Reset()

	assert.Empty(t, adapter.Calls())
	result, err := adapter.Execute(context.Background(), "terraform init", ports.ToolContext{Step: "init"})
	require.NoError(t, err)
	assert.True(t, result.Success())
}
