// Package executor runs shell command lines for pipeline stages and
// captures their combined output.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

// Runner runs one command line to completion.
type Runner interface {
	Run(ctx context.Context, commandLine, dir string) (Result, error)
}

// Result is the captured outcome of a command. Output is stdout followed
// by stderr.
type Result struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

// ExitUnknown is reported by runners that cannot observe an exit status.
const ExitUnknown = -1

func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Executor runs commands through sh -c. There is no per-command timeout;
// callers bound a run through ctx.
type Executor struct {
	Shell string

	sink     io.Writer
	logger   *slog.Logger
	redactor *Redactor
}

// NewExecutor returns an Executor that appends every result to sink when
// sink is non-nil. Output bound for the sink passes through redactor.
func NewExecutor(logger *slog.Logger, sink io.Writer, redactor *Redactor) *Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{
		Shell:    "sh",
		sink:     sink,
		logger:   logger,
		redactor: redactor,
	}
}

// Run executes commandLine in dir (the process working directory when dir
// is empty) and blocks until the process exits and its output is drained.
// A non-zero exit is reported through Result.ExitCode, not as an error.
func (e *Executor) Run(ctx context.Context, commandLine, dir string) (Result, error) {
	if commandLine == "" {
		return Result{}, errors.New("empty command line")
	}

	cmd := exec.CommandContext(ctx, e.Shell, "-c", commandLine)
	if dir != "" {
		cmd.Dir = dir
	}
	configureProcess(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("running command", "command", e.redactor.Redact(commandLine), "dir", dir)

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Output:   stdout.String() + stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, fmt.Errorf("execute %q: %w", e.redactor.Redact(commandLine), err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	e.appendToSink(result.Output)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("command cancelled: %w", ctxErr)
	}

	e.logger.Debug("command finished", "exit_code", result.ExitCode, "duration", result.Duration)
	return result, nil
}

func (e *Executor) appendToSink(output string) {
	if e.sink == nil {
		return
	}
	if _, err := io.WriteString(e.sink, e.redactor.Redact(output)+"\n"); err != nil {
		e.logger.Warn("appending to log sink failed", "error", err)
	}
}
