package report

// StepStatus is the recorded outcome of a single step.
type StepStatus string

const (
	// StatusSuccess indicates the step ran and exited cleanly.
	StatusSuccess StepStatus = "success"
	// StatusFailed indicates the step ran and failed, timed out, or could not be started.
	StatusFailed StepStatus = "failed"
	// StatusSkipped indicates the step was not run because a precondition did not succeed
	// or an earlier step failed.
	StatusSkipped StepStatus = "skipped"
	// StatusRolledBack indicates a rollback step ran and compensated its failed step.
	StatusRolledBack StepStatus = "rolled-back"
	// StatusAborted indicates the step was cancelled before it could complete.
	StatusAborted StepStatus = "aborted"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// IsSuccess reports whether downstream steps may rely on this result.
func (s StepStatus) IsSuccess() bool {
	return s == StatusSuccess
}

// Cause explains why a step ended in its status.
type Cause string

const (
	// CauseNone is used for successful steps.
	CauseNone Cause = ""
	// CauseExitCode indicates the tool exited with a non-zero code.
	CauseExitCode Cause = "exit-code"
	// CauseError indicates the tool could not be invoked.
	CauseError Cause = "error"
	// CauseTimeout indicates the per-step timeout elapsed.
	CauseTimeout Cause = "timeout"
	// CauseCancelled indicates an external cancellation.
	CauseCancelled Cause = "cancelled"
	// CausePrecondition indicates a precondition did not succeed.
	CausePrecondition Cause = "precondition"
	// CauseHalted indicates an earlier failure stopped the run.
	CauseHalted Cause = "halted"
)

// String returns the string representation of the cause.
func (c Cause) String() string {
	return string(c)
}

// OverallStatus is the aggregate outcome of a deployment.
type OverallStatus string

const (
	// OverallSuccess means every recorded step succeeded.
	OverallSuccess OverallStatus = "success"
	// OverallPartialFailure means a failed step's rollback itself failed.
	OverallPartialFailure OverallStatus = "partial-failure"
	// OverallFailed means a step failed and nothing left infrastructure half-reverted.
	OverallFailed OverallStatus = "failed"
	// OverallAborted means the run was cancelled before completion.
	OverallAborted OverallStatus = "aborted"
)

// String returns the string representation of the overall status.
func (s OverallStatus) String() string {
	return string(s)
}
