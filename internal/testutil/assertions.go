package testutil

import (
	"testing"
	"time"

	"github.com/blinders/blinders-cli/internal/domain/report"
	"github.com/blinders/blinders-cli/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

// StepOutcome is an expected step name and status pair.
type StepOutcome struct {
	Step   string
	Status report.StepStatus
}

// Outcome builds a StepOutcome.
func Outcome(step string, status report.StepStatus) StepOutcome {
	return StepOutcome{Step: step, Status: status}
}

// AssertOutcomes asserts the report's results match expected, in order.
func AssertOutcomes(t testing.TB, rep *report.DeploymentReport, expected ...StepOutcome) bool {
	t.Helper()

	actual := make([]StepOutcome, 0, rep.Len())
	for _, r := range rep.Results() {
		actual = append(actual, StepOutcome{Step: r.StepName(), Status: r.Status()})
	}
	return assert.Equal(t, expected, actual)
}

// AssertOverall asserts the report's overall status and that it agrees with
// a fresh summary of its own results.
func AssertOverall(t testing.TB, rep *report.DeploymentReport, expected report.OverallStatus) bool {
	t.Helper()

	ok := assert.Equal(t, expected, rep.OverallStatus(), "overall status")
	resummarized := report.Summarize(rep.RequestID(), rep.Results())
	return assert.Equal(t, rep.OverallStatus(), resummarized.OverallStatus(), "summary must agree with the report") && ok
}

// AssertAllSimulated asserts every recorded adapter call was in simulate mode.
func AssertAllSimulated(t testing.TB, adapter *mocks.ToolAdapter) bool {
	t.Helper()

	ok := true
	for _, call := range adapter.Calls() {
		ok = assert.True(t, call.Simulate, "step %q ran outside simulate mode", call.Step) && ok
	}
	return ok
}

// AssertYAMLEquals asserts that two YAML strings are semantically equal.
func AssertYAMLEquals(t testing.TB, expected, actual string, msgAndArgs ...interface{}) bool {
	t.Helper()

	var expectedDoc, actualDoc interface{}
	if !assert.NoError(t, yaml.Unmarshal([]byte(expected), &expectedDoc), "failed to parse expected YAML") {
		return false
	}
	if !assert.NoError(t, yaml.Unmarshal([]byte(actual), &actualDoc), "failed to parse actual YAML") {
		return false
	}
	return assert.Equal(t, expectedDoc, actualDoc, msgAndArgs...)
}

// AssertEventually asserts that a condition becomes true within a timeout.
// waitFor and tick are in milliseconds.
func AssertEventually(t testing.TB, condition func() bool, waitForMs, tickMs int, msgAndArgs ...interface{}) bool {
	t.Helper()

	waitFor := time.Duration(waitForMs) * time.Millisecond
	tick := time.Duration(tickMs) * time.Millisecond

	return assert.Eventually(t, condition, waitFor, tick, msgAndArgs...)
}
