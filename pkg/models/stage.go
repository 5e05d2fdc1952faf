package models

import "time"

type StageName string

const (
	StagePrepare     StageName = "prepare-workdir"
	StageClone       StageName = "clone"
	StageSecret      StageName = "set-secret"
	StageServiceStop StageName = "service-stop"
	StageDestination StageName = "prepare-destination"
	StageBuild       StageName = "build"
	StageServiceUp   StageName = "service-start"
	StageMigrate     StageName = "migrate"
	StageCommand     StageName = "command"
)

type StageStatus string

const (
	StageSucceeded StageStatus = "Succeeded"
	StageFailed    StageStatus = "Failed"
	// StageSoftFailed marks a stage that signalled failure without aborting the run.
	StageSoftFailed StageStatus = "SoftFailed"
)

type StageResult struct {
	Name       StageName   `yaml:"name" json:"name"`
	Command    string      `yaml:"command,omitempty" json:"command,omitempty"`
	Output     string      `yaml:"output,omitempty" json:"output,omitempty"`
	ExitCode   int         `yaml:"exitCode" json:"exitCode"`
	Status     StageStatus `yaml:"status" json:"status"`
	Error      string      `yaml:"error,omitempty" json:"error,omitempty"`
	DurationMs int64       `yaml:"durationMs" json:"durationMs"`
	StartedAt  time.Time   `yaml:"startedAt" json:"startedAt"`
}
