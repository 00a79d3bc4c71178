package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound        = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse           = "CONFIG_PARSE"
	ErrCodeConfigInvalid         = "CONFIG_INVALID"
	ErrCodeValidationFailed      = "VALIDATION_FAILED"
	ErrCodeEnvironmentNotAllowed = "ENVIRONMENT_NOT_ALLOWED"
)

// Sentinels for errors.Is comparisons; matching is by code.
var (
	ErrConfigNotFound        = &UserError{Code: ErrCodeConfigNotFound}
	ErrConfigParse           = &UserError{Code: ErrCodeConfigParse}
	ErrConfigInvalid         = &UserError{Code: ErrCodeConfigInvalid}
	ErrValidationFailed      = &UserError{Code: ErrCodeValidationFailed}
	ErrEnvironmentNotAllowed = &UserError{Code: ErrCodeEnvironmentNotAllowed}
)

// UserError represents a user-friendly error with actionable suggestions.
type UserError struct {
	Code       string // Error code for categorization (e.g., "CONFIG_PARSE")
	Message    string // User-friendly error message
	Context    string // File path, config key, or other location context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %s", e.Underlying.Error())
	}

	return b.String()
}

// WithUnderlying returns a new UserError wrapping another error.
func (e *UserError) WithUnderlying(err error) *UserError {
	c := *e
	c.Underlying = err
	return &c
}

// ErrorList accumulates validation errors so they can be reported together.
type ErrorList struct {
	errors []*UserError
}

// NewErrorList creates an empty ErrorList.
func NewErrorList() *ErrorList {
	return &ErrorList{errors: make([]*UserError, 0)}
}

// Add adds an error to the list.
func (l *ErrorList) Add(err *UserError) {
	if err != nil {
		l.errors = append(l.errors, err)
	}
}

// AddValidation adds a validation error for a config key.
func (l *ErrorList) AddValidation(key, message, suggestion string) {
	l.Add(&UserError{
		Code:       ErrCodeValidationFailed,
		Message:    fmt.Sprintf("%s: %s", key, message),
		Context:    key,
		Suggestion: suggestion,
	})
}

// HasErrors returns true if there are any errors.
func (l *ErrorList) HasErrors() bool {
	return len(l.errors) > 0
}

// Len returns the number of errors.
func (l *ErrorList) Len() int {
	return len(l.errors)
}

// Errors returns the list of errors.
func (l *ErrorList) Errors() []*UserError {
	result := make([]*UserError, len(l.errors))
	copy(result, l.errors)
	return result
}

// Error implements the error interface for ErrorList.
func (l *ErrorList) Error() string {
	switch len(l.errors) {
	case 0:
		return ""
	case 1:
		return l.errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d configuration errors:", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, err.Error())
	}
	return b.String()
}

// Is reports whether any error in the list matches target.
func (l *ErrorList) Is(target error) bool {
	for _, err := range l.errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Format returns a detailed formatted output of all errors.
func (l *ErrorList) Format() string {
	if len(l.errors) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d error(s):\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "\n--- Error %d ---\n", i+1)
		b.WriteString(err.Format())
		b.WriteString("\n")
	}
	return b.String()
}

// AsError returns the ErrorList as an error, or nil if empty.
func (l *ErrorList) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// NewConfigNotFoundError creates an error for a missing config file.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    fmt.Sprintf("configuration file not found: %s", path),
		Context:    path,
		Suggestion: "Check the --config path, or omit it to use blinders.yaml from the current directory.",
	}
}

// NewConfigParseError creates an error for config file parsing failures.
func NewConfigParseError(path string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    "failed to parse configuration file",
		Context:    path,
		Suggestion: "Check your YAML syntax. Common issues: incorrect indentation, missing colons, or unquoted special characters.",
		Underlying: err,
	}
}

// NewConfigInvalidError creates an error for values that cannot be decoded.
func NewConfigInvalidError(err error) *UserError {
	return &UserError{
		Code:       ErrCodeConfigInvalid,
		Message:    "configuration values have the wrong type",
		Suggestion: "Durations use Go syntax such as 30s or 10m; counts must be integers.",
		Underlying: err,
	}
}

// NewEnvironmentNotAllowedError creates an error for an environment that is
// not in the configured allow-list.
func NewEnvironmentNotAllowedError(name string, available []string) *UserError {
	suggestion := "Add the environment under 'environments' in blinders.yaml."
	if len(available) > 0 {
		suggestion = fmt.Sprintf("Available environments: %s", strings.Join(available, ", "))
	}
	return &UserError{
		Code:       ErrCodeEnvironmentNotAllowed,
		Message:    fmt.Sprintf("environment '%s' is not allowed", name),
		Context:    "environments",
		Suggestion: suggestion,
	}
}
