package execution

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinders/blinders-cli/internal/domain/registry"
	"github.com/blinders/blinders-cli/internal/domain/report"
	"github.com/blinders/blinders-cli/internal/ports"
	"github.com/felixgeelhaar/statekit"
)

// Environment variables exported to every tool invocation.
const (
	EnvRequestID   = "BLINDERS_REQUEST_ID"
	EnvStep        = "BLINDERS_STEP"
	EnvEnvironment = "BLINDERS_ENVIRONMENT"
)

var errForceTerminated = errors.New("grace period elapsed")

// Target holds the per-environment values a step is rendered and run with.
type Target struct {
	WorkDir string
	Vars    map[string]string
	Env     map[string]string
}

// EngineConfig configures the execution engine.
type EngineConfig struct {
	// StepTimeout bounds a step that declares no timeout of its own.
	StepTimeout time.Duration
	// GracePeriod is how long in-flight steps may run after cancellation.
	GracePeriod time.Duration
	// Concurrency is the worker pool size; 1 runs steps strictly in order.
	Concurrency int
	// TailBytes bounds the stdout kept per step.
	TailBytes int
	// Targets maps environment names to their settings.
	Targets map[string]Target
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StepTimeout: 10 * time.Minute,
		GracePeriod: 30 * time.Second,
		Concurrency: 1,
		TailBytes:   4096,
	}
}

// Engine runs a Plan against a ToolAdapter and reports the outcome.
// Use one Engine per request.
type Engine struct {
	adapter      ports.ToolAdapter
	config       EngineConfig
	logger       ports.Logger
	onTransition func(from, to State)

	mu    sync.RWMutex
	state State
}

// NewEngine creates a new Engine.
func NewEngine(adapter ports.ToolAdapter, config EngineConfig) *Engine {
	defaults := DefaultEngineConfig()
	if config.StepTimeout <= 0 {
		config.StepTimeout = defaults.StepTimeout
	}
	if config.GracePeriod < 0 {
		config.GracePeriod = 0
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	return &Engine{
		adapter: adapter,
		config:  config,
		logger:  discardLogger{},
		state:   StatePending,
	}
}

// WithLogger sets the logger used when the run context carries none.
func (e *Engine) WithLogger(logger ports.Logger) *Engine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// OnTransition registers a callback for run state changes.
func (e *Engine) OnTransition(fn func(from, to State)) *Engine {
	e.onTransition = fn
	return e
}

// State returns the state of the most recent run.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Run executes the plan and returns its report. Failures are captured in the
// report; Run itself never fails.
func (e *Engine) Run(ctx context.Context, plan *Plan) *report.DeploymentReport {
	logger := ports.LoggerFrom(ctx, e.logger).With(ports.F("request_id", plan.RequestID()))

	interp := newRunMachine()
	interp.Start()
	defer interp.Stop()
	e.setState(StatePending)
	e.send(interp, EventStart)

	req := plan.Request()
	logger.Info(ctx, "deployment started",
		ports.F("environment", req.Environment()),
		ports.F("action", req.Action().String()),
		ports.F("dry_run", req.DryRun()),
		ports.F("steps", plan.Len()),
	)

	entries := plan.Entries()
	index := make(map[string]int, len(entries))
	for i, entry := range entries {
		index[entry.Name()] = i
	}

	slots := make([][]report.StepResult, len(entries))
	done := make([]chan struct{}, len(entries))
	for i := range done {
		done[i] = make(chan struct{})
	}

	record := func(i int, res report.StepResult) {
		slots[i] = []report.StepResult{res}
		close(done[i])
		logger.Debug(ctx, "step not dispatched",
			ports.F("step", res.StepName()),
			ports.F("status", res.Status().String()),
			ports.F("cause", res.Cause().String()),
		)
	}

	sem := make(chan struct{}, e.config.Concurrency)
	var wg sync.WaitGroup
	var halted atomic.Bool

	for i, entry := range entries {
		for _, dep := range entry.Definition().Preconditions() {
			if j, ok := index[dep]; ok {
				<-done[j]
			}
		}

		if res, blocked := e.gate(ctx, entry, index, slots, &halted); blocked {
			record(i, res)
			continue
		}

		acquired := false
		select {
		case sem <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}

		if res, blocked := e.gate(ctx, entry, index, slots, &halted); blocked {
			if acquired {
				<-sem
			}
			record(i, res)
			continue
		}

		wg.Add(1)
		go func(i int, entry PlanEntry) {
			defer wg.Done()
			defer func() { <-sem }()
			defer close(done[i])
			slots[i] = e.execute(ctx, plan, entry, &halted, logger)
		}(i, entry)
	}

	wg.Wait()

	results := make([]report.StepResult, 0, len(entries))
	for _, slot := range slots {
		results = append(results, slot...)
	}
	rep := report.Summarize(plan.RequestID(), results)

	switch {
	case rep.OverallStatus() == report.OverallAborted || ctx.Err() != nil:
		e.send(interp, EventCancel)
	case halted.Load() || rep.OverallStatus() != report.OverallSuccess:
		e.send(interp, EventFail)
	default:
		e.send(interp, EventFinish)
	}

	logger.Info(ctx, "deployment finished",
		ports.F("status", rep.OverallStatus().String()),
		ports.F("state", string(e.State())),
	)

	return rep
}

// gate decides whether entry may be dispatched. When it may not, the returned
// result records why.
func (e *Engine) gate(ctx context.Context, entry PlanEntry, index map[string]int, slots [][]report.StepResult, halted *atomic.Bool) (report.StepResult, bool) {
	name := entry.Name()

	// A run already halted by a failure keeps its skips when a cancellation
	// arrives later, so the report stays Failed rather than Aborted.
	if halted.Load() {
		return report.NewStepResult(name, report.StatusSkipped).
			WithCause(report.CauseHalted).
			WithExitCode(-1), true
	}

	if err := ctx.Err(); err != nil {
		return report.NewStepResult(name, report.StatusAborted).
			WithCause(report.CauseCancelled).
			WithExitCode(-1).
			WithError(NewCancellationError(name, err)), true
	}

	for _, dep := range entry.Definition().Preconditions() {
		j, ok := index[dep]
		if !ok || len(slots[j]) == 0 {
			continue
		}
		if slots[j][0].Status() != report.StatusSuccess {
			return report.NewStepResult(name, report.StatusSkipped).
				WithCause(report.CausePrecondition).
				WithExitCode(-1), true
		}
	}

	return report.StepResult{}, false
}

// execute runs one entry and, when it fails, its rollback step.
func (e *Engine) execute(ctx context.Context, plan *Plan, entry PlanEntry, halted *atomic.Bool, logger ports.Logger) []report.StepResult {
	def := entry.Definition()
	res := e.invoke(ctx, plan, def, entry.Simulate(), logger)

	if res.Status() != report.StatusFailed {
		return []report.StepResult{res}
	}

	halted.Store(true)
	out := []report.StepResult{res}

	rollback, ok := entry.Rollback()
	if !ok {
		return out
	}

	if err := ctx.Err(); err != nil {
		logger.Warn(ctx, "rollback not dispatched after cancellation",
			ports.F("step", rollback.Name()),
			ports.F("rollback_for", def.Name()),
		)
		return append(out, report.NewStepResult(rollback.Name(), report.StatusAborted).
			WithCause(report.CauseCancelled).
			WithExitCode(-1).
			WithRollbackFor(def.Name()).
			WithError(NewCancellationError(rollback.Name(), err)))
	}

	logger.Info(ctx, "running rollback",
		ports.F("step", rollback.Name()),
		ports.F("rollback_for", def.Name()),
	)

	rb := e.invoke(ctx, plan, rollback, entry.Simulate(), logger).WithRollbackFor(def.Name())
	if rb.Status() == report.StatusSuccess {
		rb = rb.WithStatus(report.StatusRolledBack)
	}
	return append(out, rb)
}

// invoke calls the adapter for one step definition, bounded by the step
// timeout. Cancellation of ctx lets the call run for the grace period before
// its context is cancelled.
func (e *Engine) invoke(ctx context.Context, plan *Plan, def registry.StepDefinition, simulate bool, logger ports.Logger) report.StepResult {
	name := def.Name()
	timeout := def.Timeout()
	if timeout <= 0 {
		timeout = e.config.StepTimeout
	}

	base, force := context.WithCancelCause(context.WithoutCancel(ctx))
	defer force(nil)
	stepCtx, stop := context.WithTimeout(base, timeout)
	defer stop()

	finished := make(chan struct{})
	defer close(finished)
	go e.watch(ctx, finished, force, name, logger)

	logger.Debug(ctx, "dispatching step",
		ports.F("step", name),
		ports.F("simulate", simulate),
		ports.F("timeout", timeout.String()),
	)

	start := time.Now()
	out, err := e.adapter.Execute(stepCtx, def.CommandTemplate(), e.toolContext(plan, name, simulate))
	elapsed := time.Since(start)

	res := report.NewStepResult(name, report.StatusSuccess).
		WithDuration(elapsed).
		WithExitCode(out.ExitCode).
		WithStdoutTail(tail(out.Stdout, e.config.TailBytes))

	switch {
	case errors.Is(context.Cause(base), errForceTerminated):
		res = res.WithStatus(report.StatusAborted).
			WithCause(report.CauseCancelled).
			WithExitCode(-1).
			WithError(NewCancellationError(name, ctx.Err()))
	case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
		res = res.WithStatus(report.StatusFailed).
			WithCause(report.CauseTimeout).
			WithExitCode(-1).
			WithError(NewTimeoutError(name, timeout))
	case err != nil:
		res = res.WithStatus(report.StatusFailed).
			WithCause(report.CauseError).
			WithExitCode(-1).
			WithError(NewInvocationError(name, err))
	case out.ExitCode != 0:
		res = res.WithStatus(report.StatusFailed).
			WithCause(report.CauseExitCode).
			WithError(NewExitCodeError(name, out.ExitCode, out.Stderr))
	}

	fields := []ports.Field{
		ports.F("step", name),
		ports.F("status", res.Status().String()),
		ports.F("exit_code", res.ExitCode()),
		ports.F("duration_ms", res.DurationMs()),
	}
	if res.Error() != nil {
		logger.Error(ctx, "step failed", append(fields, ports.F("error", res.Error().Error()))...)
	} else {
		logger.Info(ctx, "step completed", fields...)
	}

	return res
}

// watch force-cancels an in-flight step when ctx is cancelled and the step
// has not finished within the grace period.
func (e *Engine) watch(ctx context.Context, finished <-chan struct{}, force context.CancelCauseFunc, step string, logger ports.Logger) {
	select {
	case <-finished:
		return
	case <-ctx.Done():
	}

	logger.Warn(ctx, "cancellation requested, waiting for in-flight step",
		ports.F("step", step),
		ports.F("grace_period", e.config.GracePeriod.String()),
	)

	timer := time.NewTimer(e.config.GracePeriod)
	defer timer.Stop()

	select {
	case <-finished:
	case <-timer.C:
		logger.Warn(ctx, "grace period elapsed, terminating step", ports.F("step", step))
		force(errForceTerminated)
	}
}

func (e *Engine) toolContext(plan *Plan, step string, simulate bool) ports.ToolContext {
	req := plan.Request()
	target := e.config.Targets[req.Environment()]

	vars := make(map[string]string, len(target.Vars))
	for k, v := range target.Vars {
		vars[k] = v
	}

	env := make(map[string]string, len(target.Env)+3)
	for k, v := range target.Env {
		env[k] = v
	}
	env[EnvRequestID] = plan.RequestID()
	env[EnvStep] = step
	env[EnvEnvironment] = req.Environment()

	return ports.ToolContext{
		RequestID:   plan.RequestID(),
		Environment: req.Environment(),
		Action:      req.Action().String(),
		Step:        step,
		WorkDir:     target.WorkDir,
		Vars:        vars,
		Env:         env,
		Simulate:    simulate,
	}
}

func (e *Engine) send(interp *statekit.Interpreter[runContext], event string) {
	interp.Send(statekit.Event{Type: statekit.EventType(event)})
	e.setState(State(interp.State().Value))
}

func (e *Engine) setState(to State) {
	e.mu.Lock()
	from := e.state
	e.state = to
	fn := e.onTransition
	e.mu.Unlock()

	if fn != nil && from != to {
		fn(from, to)
	}
}

type discardLogger struct{}

func (discardLogger) Debug(context.Context, string, ...ports.Field) {}
func (discardLogger) Info(context.Context, string, ...ports.Field)  {}
func (discardLogger) Warn(context.Context, string, ...ports.Field)  {}
func (discardLogger) Error(context.Context, string, ...ports.Field) {}
func (d discardLogger) With(...ports.Field) ports.Logger            { return d }
func (discardLogger) Enabled(ports.Level) bool                      { return false }
