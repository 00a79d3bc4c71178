package execution

import (
	"fmt"
	"strings"
	"time"
)

// Error codes for step execution failures.
const (
	ErrCodeStepExecution = "STEP_EXECUTION"
	ErrCodeTimeout       = "TIMEOUT"
	ErrCodeCancelled     = "CANCELLED"
)

// Sentinels for errors.Is comparisons. A timeout also matches ErrStepExecution.
var (
	ErrStepExecution = &StepError{Code: ErrCodeStepExecution}
	ErrTimeout       = &StepError{Code: ErrCodeTimeout}
	ErrCancellation  = &StepError{Code: ErrCodeCancelled}
)

// StepError describes why a step did not succeed.
type StepError struct {
	Code       string
	Step       string
	Message    string
	Suggestion string
	Underlying error
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("step %q: %s", e.Step, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Underlying
}

// Is matches by code; TIMEOUT errors are also STEP_EXECUTION errors.
func (e *StepError) Is(target error) bool {
	t, ok := target.(*StepError)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return e.Code == ErrCodeTimeout && t.Code == ErrCodeStepExecution
}

// Format returns a fully formatted error with all details.
func (e *StepError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Step != "" {
		fmt.Fprintf(&b, "\n  Step: %s", e.Step)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %s", e.Underlying.Error())
	}

	return b.String()
}

// NewExitCodeError creates an error for a tool that exited non-zero.
func NewExitCodeError(step string, exitCode int, stderr string) *StepError {
	msg := fmt.Sprintf("tool exited with code %d", exitCode)
	if s := strings.TrimSpace(stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return &StepError{
		Code:    ErrCodeStepExecution,
		Step:    step,
		Message: msg,
	}
}

// NewInvocationError creates an error for a tool that could not be run at all.
func NewInvocationError(step string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeStepExecution,
		Step:       step,
		Message:    "tool invocation failed",
		Suggestion: "Check that the tool is installed and the command template renders.",
		Underlying: err,
	}
}

// NewTimeoutError creates an error for a step that exceeded its timeout.
func NewTimeoutError(step string, timeout time.Duration) *StepError {
	return &StepError{
		Code:       ErrCodeTimeout,
		Step:       step,
		Message:    fmt.Sprintf("step exceeded its timeout of %s", timeout),
		Suggestion: "Raise deploy.step_timeout or the step's own timeout.",
	}
}

// NewCancellationError creates an error for a step stopped by cancellation.
func NewCancellationError(step string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeCancelled,
		Step:       step,
		Message:    "step was cancelled",
		Underlying: err,
	}
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
