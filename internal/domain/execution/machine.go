package execution

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State is the lifecycle state of one engine run.
type State string

const (
	// StatePending means the run has not started.
	StatePending State = "pending"
	// StateRunning means steps are being dispatched.
	StateRunning State = "running"
	// StateCompleted means every step was processed without a halt.
	StateCompleted State = "completed"
	// StateAborted means the run stopped early on failure or cancellation.
	StateAborted State = "aborted"
)

// Event types for the run state machine.
const (
	EventStart  = "START"
	EventFinish = "FINISH"
	EventFail   = "FAIL"
	EventCancel = "CANCEL"
)

const (
	runMachineID  = "blinders-run"
	statePending  = "pending"
	stateRunning  = "running"
	stateComplete = "completed"
	stateAborted  = "aborted"
)

type runContext struct{}

// newRunMachine builds the Pending → Running → {Completed, Aborted} machine.
// The definition is static, so a build error is a programming error.
func newRunMachine() *statekit.Interpreter[runContext] {
	machine, err := statekit.NewMachine[runContext](runMachineID).
		WithInitial(statePending).
		WithContext(runContext{}).
		State(statePending).
		On(EventStart).Target(stateRunning).
		On(EventCancel).Target(stateAborted).Done().
		State(stateRunning).
		On(EventFinish).Target(stateComplete).
		On(EventFail).Target(stateAborted).
		On(EventCancel).Target(stateAborted).Done().
		State(stateComplete).Done().
		State(stateAborted).Done().
		Build()
	if err != nil {
		panic(fmt.Sprintf("execution: invalid run machine: %v", err))
	}

	return statekit.NewInterpreter(machine)
}
