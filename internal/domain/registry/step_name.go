package registry

import (
	"errors"
	"regexp"
	"strings"
)

// Errors for step name validation.
var (
	ErrEmptyStepName   = errors.New("step name cannot be empty")
	ErrInvalidStepName = errors.New("step name format invalid: must be lowercase alphanumeric with hyphens or underscores")
)

// stepNamePattern validates step names.
// Allows: lowercase alphanumeric, hyphens, underscores. Must start with a letter or digit.
var stepNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateStepName checks that name is a usable registry key and returns it trimmed.
func ValidateStepName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrEmptyStepName
	}

	if !stepNamePattern.MatchString(trimmed) {
		return "", ErrInvalidStepName
	}

	return trimmed, nil
}
