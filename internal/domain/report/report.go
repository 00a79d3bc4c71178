package report

// DeploymentReport is the finalized outcome of one deployment request.
type DeploymentReport struct {
	requestID     string
	overallStatus OverallStatus
	results       []StepResult
}

// Summary provides aggregate statistics about a report.
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	Skipped    int
	RolledBack int
	Aborted    int
}

// Summarize builds a DeploymentReport from results in execution order.
// It is a pure function: the same results always produce the same report.
func Summarize(requestID string, results []StepResult) *DeploymentReport {
	owned := make([]StepResult, len(results))
	copy(owned, results)

	return &DeploymentReport{
		requestID:     requestID,
		overallStatus: OverallStatusOf(owned),
		results:       owned,
	}
}

// OverallStatusOf derives the aggregate status from step results.
//
// Aborted wins over everything else. A failed rollback makes the run a
// partial failure. Any other failure, or a step that never ran, is Failed.
func OverallStatusOf(results []StepResult) OverallStatus {
	var failed, rollbackFailed, incomplete bool

	for _, r := range results {
		switch r.status {
		case StatusAborted:
			return OverallAborted
		case StatusFailed:
			if r.IsRollback() {
				rollbackFailed = true
			} else {
				failed = true
			}
		case StatusSkipped:
			incomplete = true
		case StatusSuccess, StatusRolledBack:
		}
	}

	switch {
	case rollbackFailed:
		return OverallPartialFailure
	case failed, incomplete:
		return OverallFailed
	default:
		return OverallSuccess
	}
}

// RequestID returns the opaque id of the request this report belongs to.
func (r *DeploymentReport) RequestID() string {
	return r.requestID
}

// OverallStatus returns the aggregate outcome.
func (r *DeploymentReport) OverallStatus() OverallStatus {
	return r.overallStatus
}

// Results returns a copy of the step results in execution order.
func (r *DeploymentReport) Results() []StepResult {
	results := make([]StepResult, len(r.results))
	copy(results, r.results)
	return results
}

// Len returns the number of recorded results.
func (r *DeploymentReport) Len() int {
	return len(r.results)
}

// Summary returns aggregate statistics.
func (r *DeploymentReport) Summary() Summary {
	summary := Summary{Total: len(r.results)}
	for _, res := range r.results {
		switch res.status {
		case StatusSuccess:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		case StatusRolledBack:
			summary.RolledBack++
		case StatusAborted:
			summary.Aborted++
		}
	}
	return summary
}

// ToMap returns the machine-readable form of the report. cause and
// rollback_for are present only when set.
func (r *DeploymentReport) ToMap() map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(r.results))
	for _, res := range r.results {
		m := map[string]interface{}{
			"step_name":   res.stepName,
			"exit_code":   res.exitCode,
			"duration_ms": res.DurationMs(),
			"stdout_tail": res.stdoutTail,
			"status":      res.status.String(),
		}
		if res.cause != CauseNone {
			m["cause"] = res.cause.String()
		}
		if res.rollbackFor != "" {
			m["rollback_for"] = res.rollbackFor
		}
		results = append(results, m)
	}

	return map[string]interface{}{
		"request_id":     r.requestID,
		"overall_status": r.overallStatus.String(),
		"results":        results,
	}
}
