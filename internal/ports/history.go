package ports

import (
	"context"
	"time"
)

// StepRecord is the persisted form of one step result.
type StepRecord struct {
	StepName    string `json:"step_name" yaml:"step_name"`
	Status      string `json:"status" yaml:"status"`
	ExitCode    int    `json:"exit_code" yaml:"exit_code"`
	DurationMs  int64  `json:"duration_ms" yaml:"duration_ms"`
	StdoutTail  string `json:"stdout_tail,omitempty" yaml:"stdout_tail,omitempty"`
	RollbackFor string `json:"rollback_for,omitempty" yaml:"rollback_for,omitempty"`
}

// DeploymentRecord is one finalized deployment in the history.
type DeploymentRecord struct {
	RequestID     string       `json:"request_id" yaml:"request_id"`
	Environment   string       `json:"environment" yaml:"environment"`
	Action        string       `json:"action" yaml:"action"`
	DryRun        bool         `json:"dry_run" yaml:"dry_run"`
	OverallStatus string       `json:"overall_status" yaml:"overall_status"`
	StartedAt     time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time    `json:"finished_at" yaml:"finished_at"`
	Results       []StepRecord `json:"results" yaml:"results"`
}

// Duration returns how long the deployment ran.
func (r DeploymentRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// HistoryFilter narrows a history listing. Zero values mean no filter.
type HistoryFilter struct {
	Environment string
	Limit       int
}

// HistoryStore persists deployment records.
type HistoryStore interface {
	Record(ctx context.Context, record DeploymentRecord) error
	List(ctx context.Context, filter HistoryFilter) ([]DeploymentRecord, error)
	Close() error
}
