package registry

import (
	"fmt"
	"strings"
)

// Error codes for registry and plan-building operations.
const (
	ErrCodeConfiguration      = "CONFIGURATION"
	ErrCodeUnknownStep        = "UNKNOWN_STEP"
	ErrCodeCyclicPrecondition = "CYCLIC_PRECONDITION"
)

// Sentinels for errors.Is comparisons; matching is by code.
var (
	ErrConfiguration      = &Error{Code: ErrCodeConfiguration}
	ErrUnknownStep        = &Error{Code: ErrCodeUnknownStep}
	ErrCyclicPrecondition = &Error{Code: ErrCodeCyclicPrecondition}
)

// Error represents a user-friendly registry error with actionable suggestions.
type Error struct {
	Code       string // Error code for categorization
	Message    string // User-friendly error message
	Step       string // Step name if applicable
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("step %q: %s", e.Step, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *Error) Format() string {
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

// WithUnderlying returns a new Error wrapping another error.
func (e *Error) WithUnderlying(err error) *Error {
	return &Error{
		Code:       e.Code,
		Message:    e.Message,
		Step:       e.Step,
		Suggestion: e.Suggestion,
		Underlying: err,
	}
}

// NewConfigurationError creates an error for an invalid registry definition.
func NewConfigurationError(step, message string) *Error {
	return &Error{
		Code:       ErrCodeConfiguration,
		Message:    message,
		Step:       step,
		Suggestion: "Fix the steps file referenced by deploy.registry, or unset it to use the built-in steps.",
	}
}

// NewDuplicateStepError creates an error for a step name defined twice.
func NewDuplicateStepError(step string) *Error {
	return &Error{
		Code:       ErrCodeConfiguration,
		Message:    "step is defined more than once",
		Step:       step,
		Suggestion: "Each step must have a unique name. Remove or rename the duplicate entry.",
	}
}

// NewUnknownStepError creates an error for a lookup of an undefined step.
func NewUnknownStepError(step string) *Error {
	return &Error{
		Code:       ErrCodeUnknownStep,
		Message:    "no such step in the registry",
		Step:       step,
		Suggestion: "Run 'blinders steps' to list the available steps.",
	}
}

// NewUnknownActionError creates an error for a deploy action outside the
// supported set. It matches ErrUnknownStep.
func NewUnknownActionError(action string, supported []string) *Error {
	return &Error{
		Code:       ErrCodeUnknownStep,
		Message:    "not a deploy action",
		Step:       action,
		Suggestion: fmt.Sprintf("Use one of: %s.", strings.Join(supported, ", ")),
	}
}

// NewCyclicPreconditionError creates an error for a precondition cycle.
func NewCyclicPreconditionError(cycle []string) *Error {
	return &Error{
		Code:       ErrCodeCyclicPrecondition,
		Message:    fmt.Sprintf("cyclic precondition detected: %s", strings.Join(cycle, " → ")),
		Suggestion: "Review the requires lists of these steps to break the circular chain.",
	}
}
