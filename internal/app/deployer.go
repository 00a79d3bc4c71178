// Package app wires configuration, registry, engine and adapters into the
// operations the blinders CLI exposes.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blinders/blinders-cli/internal/adapters/awsprofile"
	"github.com/blinders/blinders-cli/internal/adapters/logging"
	"github.com/blinders/blinders-cli/internal/domain/config"
	"github.com/blinders/blinders-cli/internal/domain/execution"
	"github.com/blinders/blinders-cli/internal/domain/registry"
	"github.com/blinders/blinders-cli/internal/domain/report"
	"github.com/blinders/blinders-cli/internal/ports"
)

// EnvAWSProfile is exported to the tool when an environment names a profile.
const EnvAWSProfile = "AWS_PROFILE"

// ErrHistoryDisabled is returned by History when no store is configured.
var ErrHistoryDisabled = errors.New("deployment history is disabled")

// ProfileChecker verifies that a named AWS profile exists locally.
type ProfileChecker interface {
	Check(name string) (awsprofile.Profile, error)
}

// Request is a deploy invocation as the CLI received it.
type Request struct {
	Environment string
	Action      string
	DryRun      bool
}

// Result is a finished deployment.
type Result struct {
	Plan       *execution.Plan
	Report     *report.DeploymentReport
	StartedAt  time.Time
	FinishedAt time.Time
}

// Deployer builds plans and runs them.
type Deployer struct {
	cfg      *config.Config
	registry *registry.Registry
	adapter  ports.ToolAdapter
	profiles ProfileChecker
	history  ports.HistoryStore
	logger   ports.Logger
	now      func() time.Time
	newID    func() string
}

// NewDeployer creates a Deployer. History and the AWS profile check are off
// until WithHistory and WithProfileChecker are called.
func NewDeployer(cfg *config.Config, reg *registry.Registry, adapter ports.ToolAdapter) *Deployer {
	return &Deployer{
		cfg:      cfg,
		registry: reg,
		adapter:  adapter,
		logger:   logging.NewNopLogger(),
		now:      time.Now,
	}
}

// WithProfileChecker enables the AWS profile check for real runs.
func (d *Deployer) WithProfileChecker(pc ProfileChecker) *Deployer {
	d.profiles = pc
	return d
}

// WithHistory records every finished deployment in store.
func (d *Deployer) WithHistory(store ports.HistoryStore) *Deployer {
	d.history = store
	return d
}

// WithLogger sets the logger.
func (d *Deployer) WithLogger(logger ports.Logger) *Deployer {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// WithClock sets the time source for history timestamps.
func (d *Deployer) WithClock(now func() time.Time) *Deployer {
	d.now = now
	return d
}

// WithIDGenerator sets the request id generator used for plans.
func (d *Deployer) WithIDGenerator(gen func() string) *Deployer {
	d.newID = gen
	return d
}

// Registry returns the step registry plans are built from.
func (d *Deployer) Registry() *registry.Registry {
	return d.registry
}

// LoadRegistry returns the steps file named in cfg, or the built-in steps.
func LoadRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.Deploy.Registry == "" {
		return registry.Default(), nil
	}
	return registry.Load(cfg.Deploy.Registry)
}

// Plan validates req and builds its plan without running anything.
func (d *Deployer) Plan(req Request) (*execution.Plan, error) {
	if _, err := d.cfg.Environment(strings.TrimSpace(req.Environment)); err != nil {
		return nil, err
	}

	action, err := execution.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	dr, err := execution.NewDeploymentRequest(req.Environment, action, req.DryRun, d.cfg.EnvironmentNames())
	if err != nil {
		return nil, err
	}

	builder := execution.NewBuilder(d.registry)
	if d.newID != nil {
		builder = builder.WithIDGenerator(d.newID)
	}
	return builder.Build(dr)
}

// Deploy builds and runs the plan for req.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Result, error) {
	plan, err := d.Plan(req)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, plan)
}

// Run executes a built plan. Errors are returned only for problems found
// before the first step runs; step failures, timeouts and cancellation are
// captured in the report.
func (d *Deployer) Run(ctx context.Context, plan *execution.Plan) (*Result, error) {
	if !plan.Simulated() {
		if err := d.checkProfile(plan.Request().Environment()); err != nil {
			return nil, err
		}
	}

	engine := execution.NewEngine(d.adapter, d.engineConfig()).WithLogger(d.logger)

	started := d.now()
	rep := engine.Run(ctx, plan)
	finished := d.now()

	result := &Result{
		Plan:       plan,
		Report:     rep,
		StartedAt:  started,
		FinishedAt: finished,
	}
	d.record(ctx, result)

	return result, nil
}

// History lists recorded deployments, newest first.
func (d *Deployer) History(ctx context.Context, filter ports.HistoryFilter) ([]ports.DeploymentRecord, error) {
	if d.history == nil {
		return nil, ErrHistoryDisabled
	}
	return d.history.List(ctx, filter)
}

func (d *Deployer) checkProfile(environment string) error {
	if d.profiles == nil || !d.cfg.AWS.CheckProfile {
		return nil
	}
	env, err := d.cfg.Environment(environment)
	if err != nil {
		return err
	}
	if env.AWSProfile == "" {
		return nil
	}

	if _, err := d.profiles.Check(env.AWSProfile); err != nil {
		return &config.UserError{
			Code:       config.ErrCodeValidationFailed,
			Message:    fmt.Sprintf("aws profile '%s' for environment '%s' is not configured", env.AWSProfile, environment),
			Context:    fmt.Sprintf("environments.%s.aws_profile", environment),
			Suggestion: fmt.Sprintf("Run 'aws configure --profile %s', or set aws.check_profile: false.", env.AWSProfile),
			Underlying: err,
		}
	}
	return nil
}

func (d *Deployer) engineConfig() execution.EngineConfig {
	targets := make(map[string]execution.Target, len(d.cfg.Environments))
	for name, env := range d.cfg.Environments {
		target := execution.Target{
			WorkDir: env.WorkDir,
			Vars:    env.Vars,
		}
		if env.AWSProfile != "" {
			target.Env = map[string]string{EnvAWSProfile: env.AWSProfile}
		}
		targets[name] = target
	}

	return execution.EngineConfig{
		StepTimeout: d.cfg.Deploy.StepTimeout,
		GracePeriod: d.cfg.Deploy.GracePeriod,
		Concurrency: d.cfg.Deploy.Concurrency,
		TailBytes:   d.cfg.Deploy.StdoutTailBytes,
		Targets:     targets,
	}
}

func (d *Deployer) record(ctx context.Context, result *Result) {
	if d.history == nil {
		return
	}

	// History must outlive an interrupted run.
	ctx = context.WithoutCancel(ctx)
	if err := d.history.Record(ctx, ToRecord(result)); err != nil {
		d.logger.Warn(ctx, "failed to record deployment history",
			ports.F("request_id", result.Report.RequestID()),
			ports.F("error", err),
		)
	}
}

// ToRecord converts a finished deployment to its history form.
func ToRecord(result *Result) ports.DeploymentRecord {
	req := result.Plan.Request()
	results := result.Report.Results()

	steps := make([]ports.StepRecord, 0, len(results))
	for _, r := range results {
		steps = append(steps, ports.StepRecord{
			StepName:    r.StepName(),
			Status:      r.Status().String(),
			ExitCode:    r.ExitCode(),
			DurationMs:  r.DurationMs(),
			StdoutTail:  r.StdoutTail(),
			RollbackFor: r.RollbackFor(),
		})
	}

	return ports.DeploymentRecord{
		RequestID:     result.Report.RequestID(),
		Environment:   req.Environment(),
		Action:        req.Action().String(),
		DryRun:        req.DryRun(),
		OverallStatus: result.Report.OverallStatus().String(),
		StartedAt:     result.StartedAt,
		FinishedAt:    result.FinishedAt,
		Results:       steps,
	}
}
