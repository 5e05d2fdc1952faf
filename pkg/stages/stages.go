// Package stages builds and dispatches the external commands that make up
// a pipeline run: clone, secrets, service toggle, build, migration and the
// trailing user command.
package stages

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/EquablePanic4/codli-gci/pkg/executor"
	"github.com/EquablePanic4/codli-gci/pkg/models"
)

// CommandError reports a stage command that exited non-zero.
type CommandError struct {
	Stage    models.StageName
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s exited with status %d", e.Stage, e.Command, e.ExitCode)
}

// Observer receives every stage result as soon as it is known.
type Observer func(models.StageResult)

// Stages runs stage commands against one working directory.
type Stages struct {
	runner   executor.Runner
	workDir  string
	logger   *slog.Logger
	redactor *executor.Redactor
	observe  Observer
}

func New(runner executor.Runner, workDir string, logger *slog.Logger, redactor *executor.Redactor, observe Observer) *Stages {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if observe == nil {
		observe = func(models.StageResult) {}
	}
	return &Stages{
		runner:   runner,
		workDir:  workDir,
		logger:   logger,
		redactor: redactor,
		observe:  observe,
	}
}

func (s *Stages) WorkDir() string {
	return s.workDir
}

// exec runs one command and reports it to the observer, using ok to judge
// the result. A start failure is returned as an error.
func (s *Stages) exec(ctx context.Context, name models.StageName, commandLine, dir string, ok func(executor.Result) bool) (executor.Result, error) {
	started := time.Now().UTC()
	res, err := s.runner.Run(ctx, commandLine, dir)

	result := models.StageResult{
		Name:       name,
		Command:    s.redactor.Redact(commandLine),
		Output:     s.redactor.Redact(res.Output),
		ExitCode:   res.ExitCode,
		Status:     models.StageSucceeded,
		DurationMs: res.Duration.Milliseconds(),
		StartedAt:  started,
	}
	if err != nil {
		result.Status = models.StageFailed
		result.Error = s.redactor.Redact(err.Error())
	} else if !ok(res) {
		result.Status = models.StageFailed
	}
	s.observe(result)
	return res, err
}

// run is exec with a non-zero exit turned into a *CommandError.
func (s *Stages) run(ctx context.Context, name models.StageName, commandLine, dir string) (executor.Result, error) {
	res, err := s.exec(ctx, name, commandLine, dir, executor.Result.Succeeded)
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	if !res.Succeeded() {
		return res, &CommandError{
			Stage:    name,
			Command:  s.redactor.Redact(commandLine),
			ExitCode: res.ExitCode,
			Output:   s.redactor.Redact(res.Output),
		}
	}
	return res, nil
}

// record reports a step that did not go through the runner.
func (s *Stages) record(name models.StageName, started time.Time, status models.StageStatus, err error) {
	result := models.StageResult{
		Name:       name,
		Status:     status,
		DurationMs: time.Since(started).Milliseconds(),
		StartedAt:  started.UTC(),
	}
	if err != nil {
		result.Error = s.redactor.Redact(err.Error())
	}
	s.observe(result)
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./:@%+=,-]+$`)

// quote single-quotes an argument for sh unless it is made of characters
// the shell passes through untouched.
func quote(arg string) string {
	if arg != "" && shellSafe.MatchString(arg) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
