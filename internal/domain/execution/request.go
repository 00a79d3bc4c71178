// Package execution builds deployment plans and runs them against the tool adapter.
package execution

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blinders/blinders-cli/internal/domain/registry"
)

// Action is the deployment operation a request asks for.
// Each action names the registry step the plan is built from.
type Action string

const (
	// ActionPlan previews infrastructure changes.
	ActionPlan Action = "plan"
	// ActionApply provisions infrastructure.
	ActionApply Action = "apply"
	// ActionDestroy tears infrastructure down.
	ActionDestroy Action = "destroy"
	// ActionEcho runs the connectivity smoke step.
	ActionEcho Action = "echo"
)

// Errors for request validation.
var (
	ErrUnknownAction         = errors.New("unknown action")
	ErrEmptyEnvironment      = errors.New("environment cannot be empty")
	ErrEnvironmentNotAllowed = errors.New("environment is not in the configured allow-list")
	ErrNoEnvironmentsAllowed = errors.New("no environments are configured")
)

// Actions returns the supported actions in display order.
func Actions() []Action {
	return []Action{ActionPlan, ActionApply, ActionDestroy, ActionEcho}
}

// ParseAction converts user input to an Action. Registry steps that are not
// actions, such as init or revert, are rejected with an error matching both
// ErrUnknownAction and registry.ErrUnknownStep.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, 0, len(Actions()))
	for _, known := range Actions() {
		if a == known {
			return a, nil
		}
		names = append(names, known.String())
	}
	return "", registry.NewUnknownActionError(a.String(), names).
		WithUnderlying(fmt.Errorf("%w: %q", ErrUnknownAction, s))
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// StepName returns the registry step the plan for this action starts from.
func (a Action) StepName() string {
	return string(a)
}

// IsDestructive returns true for actions that remove infrastructure.
func (a Action) IsDestructive() bool {
	return a == ActionDestroy
}

// DeploymentRequest is an immutable request to run one action in one environment.
type DeploymentRequest struct {
	environment string
	action      Action
	dryRun      bool
}

// NewDeploymentRequest validates the environment against allowed and builds a request.
// Callers parse user input with ParseAction; plan building reports actions
// the registry does not define.
func NewDeploymentRequest(environment string, action Action, dryRun bool, allowed []string) (DeploymentRequest, error) {
	env := strings.TrimSpace(environment)
	if env == "" {
		return DeploymentRequest{}, ErrEmptyEnvironment
	}
	if len(allowed) == 0 {
		return DeploymentRequest{}, ErrNoEnvironmentsAllowed
	}

	permitted := false
	for _, name := range allowed {
		if name == env {
			permitted = true
			break
		}
	}
	if !permitted {
		return DeploymentRequest{}, fmt.Errorf("%w: %q (allowed: %s)", ErrEnvironmentNotAllowed, env, strings.Join(allowed, ", "))
	}

	return DeploymentRequest{
		environment: env,
		action:      action,
		dryRun:      dryRun,
	}, nil
}

// Environment returns the target environment name.
func (r DeploymentRequest) Environment() string {
	return r.environment
}

// Action returns the requested action.
func (r DeploymentRequest) Action() Action {
	return r.action
}

// DryRun returns true if the request must not mutate infrastructure.
func (r DeploymentRequest) DryRun() bool {
	return r.dryRun
}
