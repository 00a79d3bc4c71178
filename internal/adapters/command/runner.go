// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/blinders/blinders-cli/internal/ports"
)

// DefaultWaitDelay bounds how long Run waits for output pipes to close after
// the process has been killed.
const DefaultWaitDelay = 5 * time.Second

// RealRunner executes actual processes.
//
// Each process runs in its own process group. When ctx is done the whole
// group is killed, so shell wrappers do not leave orphaned children behind.
type RealRunner struct {
	waitDelay time.Duration
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{waitDelay: DefaultWaitDelay}
}

// WithWaitDelay returns a runner with a different pipe wait delay.
func (r *RealRunner) WithWaitDelay(d time.Duration) *RealRunner {
	return &RealRunner{waitDelay: d}
}

// Run executes the command and returns its result. A non-zero exit is
// reported through ExitCode, not as an error. When ctx ends first the result
// carries ExitCode -1 and ctx.Err() is returned.
func (r *RealRunner) Run(ctx context.Context, spec ports.CommandSpec) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.WaitDelay = r.waitDelay
	configureProcess(cmd)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var echo *lineEcho
	if spec.Echo != nil {
		echo = newLineEcho(spec.Echo)
		cmd.Stdout = io.MultiWriter(&stdout, echo.stream())
		cmd.Stderr = io.MultiWriter(&stderr, echo.stream())
	}

	err := cmd.Run()
	if echo != nil {
		echo.flush()
	}

	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.ExitCode = -1
			return result, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, err
	}

	return result, nil
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)
