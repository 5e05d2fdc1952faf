package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

// UnsupportedRuntimeError is a configuration error: no build command is
// known for the runtime.
type UnsupportedRuntimeError struct {
	Runtime string
}

func (e *UnsupportedRuntimeError) Error() string {
	return fmt.Sprintf("unsupported runtime %q (supported: %s)", e.Runtime, models.RuntimeDotnetCore)
}

func ValidateRuntime(runtime string) error {
	if runtime != models.RuntimeDotnetCore {
		return &UnsupportedRuntimeError{Runtime: runtime}
	}
	return nil
}

// BuildCommand builds the sources in workDir into d.Destination.
func BuildCommand(d models.Directives, workDir string) (string, error) {
	if err := ValidateRuntime(d.Runtime); err != nil {
		return "", err
	}
	if d.Destination == "" {
		return "", fmt.Errorf("build requires %s", models.KeyDestination)
	}
	command := "dotnet build " + quote(workDir)
	if d.BuildConfiguration != "" {
		command += " --configuration " + quote(d.BuildConfiguration)
	}
	command += " -o " + quote(d.Destination)
	return command, nil
}

// Build empties the destination and builds into it, so nothing from an
// earlier build survives.
func (s *Stages) Build(ctx context.Context, d models.Directives) error {
	command, err := BuildCommand(d, s.workDir)
	if err != nil {
		return err
	}

	started := time.Now()
	if err := ResetDir(d.Destination); err != nil {
		s.record(models.StageDestination, started, models.StageFailed, err)
		return fmt.Errorf("prepare destination: %w", err)
	}
	s.record(models.StageDestination, started, models.StageSucceeded, nil)

	_, err = s.run(ctx, models.StageBuild, command, "")
	return err
}
