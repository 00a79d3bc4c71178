package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStepName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"simple", "apply", "apply", nil},
		{"trimmed", "  init ", "init", nil},
		{"hyphen and underscore", "plan-stage_2", "plan-stage_2", nil},
		{"empty", "", "", ErrEmptyStepName},
		{"whitespace", "   ", "", ErrEmptyStepName},
		{"uppercase", "Apply", "", ErrInvalidStepName},
		{"space inside", "apply now", "", ErrInvalidStepName},
		{"leading hyphen", "-apply", "", ErrInvalidStepName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateStepName(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_PreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	r, err := New(
		NewStepDefinition("init", "terraform init"),
		NewStepDefinition("apply", "terraform apply").Requires("init").WithRollback("revert"),
		NewStepDefinition("revert", "terraform apply -refresh-only"),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"init", "apply", "revert"}, r.Names())

	pos, ok := r.Position("revert")
	assert.True(t, ok)
	assert.Equal(t, 2, pos)

	_, ok = r.Position("missing")
	assert.False(t, ok)
}

func TestNew_DuplicateNameIsConfigurationError(t *testing.T) {
	t.Parallel()

	_, err := New(
		NewStepDefinition("init", "terraform init"),
		NewStepDefinition("init", "terraform init -upgrade"),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	var regErr *Error
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, "init", regErr.Step)
}

func TestNew_InvalidDefinitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		defs []StepDefinition
	}{
		{"bad name", []StepDefinition{NewStepDefinition("Bad Name", "echo")}},
		{"empty command", []StepDefinition{NewStepDefinition("init", "  ")}},
		{"unparsable template", []StepDefinition{NewStepDefinition("init", "terraform {{.WorkDir")}},
		{"negative timeout", []StepDefinition{NewStepDefinition("init", "echo").WithTimeout(-time.Second)}},
		{"unknown precondition", []StepDefinition{NewStepDefinition("apply", "echo").Requires("init")}},
		{"unknown rollback", []StepDefinition{NewStepDefinition("apply", "echo").WithRollback("revert")}},
		{"self rollback", []StepDefinition{NewStepDefinition("apply", "echo").WithRollback("apply")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.defs...)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := MustNew(NewStepDefinition("init", "terraform init"))

	def, err := r.Lookup("init")
	require.NoError(t, err)
	assert.Equal(t, "terraform init", def.CommandTemplate())
	assert.True(t, r.Has("init"))

	_, err = r.Lookup("destroyall")
	assert.ErrorIs(t, err, ErrUnknownStep)
	assert.False(t, errors.Is(err, ErrConfiguration))
}

func TestRegistry_DefinitionsAreCopies(t *testing.T) {
	t.Parallel()

	r := MustNew(
		NewStepDefinition("init", "terraform init"),
		NewStepDefinition("apply", "terraform apply").Requires("init"),
	)

	def, err := r.Lookup("apply")
	require.NoError(t, err)

	pre := def.Preconditions()
	pre[0] = "mutated"

	again, err := r.Lookup("apply")
	require.NoError(t, err)
	assert.Equal(t, []string{"init"}, again.Preconditions())
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustNew(NewStepDefinition("", "echo"))
	})
}

func TestDefault(t *testing.T) {
	t.Parallel()

	r := Default()

	for _, name := range []string{StepInit, StepValidate, StepPlan, StepApply, StepRevert, StepDestroy, StepEcho} {
		assert.True(t, r.Has(name), "default registry should define %q", name)
	}

	apply, err := r.Lookup(StepApply)
	require.NoError(t, err)
	assert.Equal(t, StepRevert, apply.RollbackStep())
	assert.Equal(t, []string{StepPlan}, apply.Preconditions())
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	err := NewUnknownStepError("destroyall").WithUnderlying(errors.New("lookup failed"))

	assert.Equal(t, `step "destroyall": no such step in the registry`, err.Error())
	formatted := err.Format()
	assert.Contains(t, formatted, "[UNKNOWN_STEP]")
	assert.Contains(t, formatted, "Suggestion: Run 'blinders steps'")
	assert.Contains(t, formatted, "Cause: lookup failed")

	cyc := NewCyclicPreconditionError([]string{"a", "b", "a"})
	assert.Equal(t, "cyclic precondition detected: a → b → a", cyc.Error())
	assert.ErrorIs(t, cyc, ErrCyclicPrecondition)
}
