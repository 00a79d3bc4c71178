package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *UserError
		expected string
	}{
		{
			name:     "simple message",
			err:      &UserError{Code: ErrCodeConfigNotFound, Message: "config file not found"},
			expected: "config file not found",
		},
		{
			name: "message with context",
			err: &UserError{
				Code:    ErrCodeConfigNotFound,
				Message: "config file not found",
				Context: "blinders.yaml",
			},
			expected: "config file not found (at blinders.yaml)",
		},
		{
			name: "suggestion is not part of Error",
			err: &UserError{
				Code:       ErrCodeConfigNotFound,
				Message:    "config file not found",
				Context:    "blinders.yaml",
				Suggestion: "pass --config",
			},
			expected: "config file not found (at blinders.yaml)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUserError_Format(t *testing.T) {
	t.Parallel()

	err := NewConfigParseError("blinders.yaml", errors.New("yaml: line 3: did not find expected key"))
	out := err.Format()

	assert.Contains(t, out, "[CONFIG_PARSE] failed to parse configuration file")
	assert.Contains(t, out, "Location: blinders.yaml")
	assert.Contains(t, out, "Suggestion: Check your YAML syntax")
	assert.Contains(t, out, "Cause: yaml: line 3")
}

func TestUserError_IsAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := fmt.Errorf("loading: %w", NewConfigParseError("x.yaml", cause))

	assert.True(t, errors.Is(err, ErrConfigParse))
	assert.False(t, errors.Is(err, ErrConfigNotFound))
	assert.True(t, errors.Is(err, cause))

	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "x.yaml", ue.Context)
	assert.False(t, errors.As(cause, &ue))
}

func TestUserError_WithUnderlyingCopies(t *testing.T) {
	t.Parallel()

	base := &UserError{Code: ErrCodeConfigInvalid, Message: "bad"}
	cause := errors.New("cause")

	derived := base.WithUnderlying(cause)

	assert.Nil(t, base.Underlying)
	assert.Same(t, cause, derived.Underlying)
	assert.Equal(t, base.Message, derived.Message)
}

func TestNewEnvironmentNotAllowedError(t *testing.T) {
	t.Parallel()

	err := NewEnvironmentNotAllowedError("qa", []string{"dev", "production", "staging"})

	assert.Equal(t, ErrCodeEnvironmentNotAllowed, err.Code)
	assert.Contains(t, err.Error(), "environment 'qa' is not allowed")
	assert.Equal(t, "Available environments: dev, production, staging", err.Suggestion)

	empty := NewEnvironmentNotAllowedError("qa", nil)
	assert.Contains(t, empty.Suggestion, "environments")
}

func TestErrorList(t *testing.T) {
	t.Parallel()

	l := NewErrorList()
	assert.False(t, l.HasErrors())
	assert.NoError(t, l.AsError())
	assert.Empty(t, l.Error())
	assert.Empty(t, l.Format())

	l.Add(nil)
	assert.Equal(t, 0, l.Len())

	l.AddValidation("deploy.concurrency", "must be at least 1", "")
	assert.Equal(t, "deploy.concurrency: must be at least 1 (at deploy.concurrency)", l.Error())

	l.AddValidation("deploy.shell", "must not be empty", "Use sh or bash.")
	require.Equal(t, 2, l.Len())

	err := l.AsError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 configuration errors:")
	assert.Contains(t, err.Error(), "1. deploy.concurrency")
	assert.Contains(t, err.Error(), "2. deploy.shell")
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Contains(t, l.Format(), "--- Error 2 ---")

	errs := l.Errors()
	errs[0] = nil
	assert.NotNil(t, l.Errors()[0])
}
