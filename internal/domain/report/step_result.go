// Package report aggregates step results into deployment reports.
package report

import (
	"time"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepName    string
	status      StepStatus
	cause       Cause
	exitCode    int
	duration    time.Duration
	stdoutTail  string
	rollbackFor string
	err         error
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepName string, status StepStatus) StepResult {
	return StepResult{
		stepName: stepName,
		status:   status,
	}
}

// StepName returns the name of the step that was executed.
func (r StepResult) StepName() string {
	return r.stepName
}

// Status returns the final status of the step.
func (r StepResult) Status() StepStatus {
	return r.status
}

// Cause returns why the step ended in its status.
func (r StepResult) Cause() Cause {
	return r.cause
}

// ExitCode returns the tool's exit code, or -1 when the tool did not exit normally.
func (r StepResult) ExitCode() int {
	return r.exitCode
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// DurationMs returns the duration in whole milliseconds.
func (r StepResult) DurationMs() int64 {
	return r.duration.Milliseconds()
}

// StdoutTail returns the bounded tail of the tool's standard output.
func (r StepResult) StdoutTail() string {
	return r.stdoutTail
}

// RollbackFor returns the name of the failed step this result compensates,
// or an empty string when the result is not a rollback.
func (r StepResult) RollbackFor() string {
	return r.rollbackFor
}

// IsRollback returns true if this result belongs to a rollback step.
func (r StepResult) IsRollback() bool {
	return r.rollbackFor != ""
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Success returns true if the step completed successfully.
func (r StepResult) Success() bool {
	return r.status == StatusSuccess
}

// WithStatus returns a copy of the result with a different status.
func (r StepResult) WithStatus(s StepStatus) StepResult {
	r.status = s
	return r
}

// WithCause returns a new StepResult with the cause set.
func (r StepResult) WithCause(c Cause) StepResult {
	r.cause = c
	return r
}

// WithExitCode returns a new StepResult with the exit code set.
func (r StepResult) WithExitCode(code int) StepResult {
	r.exitCode = code
	return r
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// WithStdoutTail returns a new StepResult with the stdout tail set.
func (r StepResult) WithStdoutTail(tail string) StepResult {
	r.stdoutTail = tail
	return r
}

// WithRollbackFor returns a new StepResult marked as the rollback of stepName.
func (r StepResult) WithRollbackFor(stepName string) StepResult {
	r.rollbackFor = stepName
	return r
}

// WithError returns a new StepResult carrying err.
func (r StepResult) WithError(err error) StepResult {
	r.err = err
	return r
}
