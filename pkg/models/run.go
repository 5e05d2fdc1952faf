package models

import "time"

type RunState string

const (
	RunPending   RunState = "Pending"
	RunRunning   RunState = "Running"
	RunFailed    RunState = "Failed"
	RunCompleted RunState = "Completed"
)

// PipelineState is the controller's position in the stage sequence.
type PipelineState string

const (
	StateStart            PipelineState = "Start"
	StateCloned           PipelineState = "Cloned"
	StateSecretsApplied   PipelineState = "SecretsApplied"
	StateServiceStopped   PipelineState = "ServiceStopped"
	StateBuilt            PipelineState = "Built"
	StateServiceRestarted PipelineState = "ServiceRestarted"
	StateMigrationDone    PipelineState = "MigrationDone"
	StateCommandDone      PipelineState = "CommandDone"
	StateDone             PipelineState = "Done"
	StateFailed           PipelineState = "Failed"
)

type RunRecord struct {
	ID          string         `yaml:"id" json:"id"`
	Repository  string         `yaml:"repository" json:"repository"`
	Branch      string         `yaml:"branch,omitempty" json:"branch,omitempty"`
	Runtime     string         `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	WorkDir     string         `yaml:"workDir" json:"workDir"`
	Destination string         `yaml:"destination,omitempty" json:"destination,omitempty"`
	State       RunState       `yaml:"state" json:"state"`
	Position    PipelineState  `yaml:"position" json:"position"`
	Stages      []StageResult  `yaml:"stages,omitempty" json:"stages,omitempty"`
	Error       string         `yaml:"error,omitempty" json:"error,omitempty"`
	Metrics     map[string]any `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	CreatedAt   time.Time      `yaml:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `yaml:"updatedAt" json:"updatedAt"`
	StartedAt   *time.Time     `yaml:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time     `yaml:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// LastStage returns the most recently recorded stage, or nil.
func (r *RunRecord) LastStage() *StageResult {
	if len(r.Stages) == 0 {
		return nil
	}
	return &r.Stages[len(r.Stages)-1]
}

type RunLog struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Level     string    `yaml:"level" json:"level"`
	Message   string    `yaml:"message" json:"message"`
	Stage     string    `yaml:"stage,omitempty" json:"stage,omitempty"`
}
