// Package pipeline sequences the stages of one CI run from its directives.
//
// A run moves through
//
//	Start → Cloned → SecretsApplied → ServiceStopped → Built → ServiceRestarted
//	      → MigrationDone → CommandDone → Done
//
// where every state after Cloned is skipped when its directive is absent
// and Failed is reachable from any state. Without a runtime directive the
// run finishes right after the clone.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EquablePanic4/codli-gci/pkg/executor"
	"github.com/EquablePanic4/codli-gci/pkg/models"
	"github.com/EquablePanic4/codli-gci/pkg/observability"
	"github.com/EquablePanic4/codli-gci/pkg/stages"
	"github.com/EquablePanic4/codli-gci/pkg/store"
)

// RunContext carries everything one run needs. Store is optional.
type RunContext struct {
	Directives models.Directives
	Runner     executor.Runner
	Logger     *slog.Logger
	Metrics    *observability.Registry
	Store      store.Store
	Redactor   *executor.Redactor
}

type Controller struct {
	rc     RunContext
	d      models.Directives
	run    *models.RunRecord
	stages *stages.Stages
	logger *slog.Logger
}

func New(rc RunContext) *Controller {
	if rc.Logger == nil {
		rc.Logger = observability.DiscardLogger()
	}
	if rc.Metrics == nil {
		rc.Metrics = observability.NewRegistry()
	}
	if rc.Redactor == nil {
		rc.Redactor = executor.NewRedactor()
	}
	rc.Redactor.Add(stages.PasswordForms(rc.Directives)...)

	d := rc.Directives
	c := &Controller{
		rc: rc,
		d:  d,
		run: &models.RunRecord{
			Repository:  d.RepositoryPath(),
			Branch:      d.Branch,
			Runtime:     d.Runtime,
			WorkDir:     d.WorkDir,
			Destination: d.Destination,
			State:       models.RunPending,
			Position:    models.StateStart,
		},
	}
	c.logger = rc.Logger.With("repository", d.RepositoryPath())
	c.stages = stages.New(rc.Runner, d.WorkDir, c.logger, rc.Redactor, c.observeStage)
	return c
}

// Record is the run as it stands; complete once Run has returned.
func (c *Controller) Record() *models.RunRecord {
	return c.run
}

// Run executes the pipeline. The returned record is complete whether or
// not an error is returned.
func (c *Controller) Run(ctx context.Context) (*models.RunRecord, error) {
	now := time.Now().UTC()
	c.run.StartedAt = &now
	c.run.State = models.RunRunning
	if c.rc.Store != nil {
		if err := c.rc.Store.CreateRun(c.run); err != nil {
			c.logger.Warn("recording run history failed", "error", err)
		}
	}
	if c.run.ID != "" {
		c.logger = c.logger.With("run", c.run.ID)
	}

	if len(c.d.Unknown) > 0 {
		c.log(slog.LevelWarn, "ignoring unrecognized directives", "", "keys", c.d.Unknown)
	}
	if c.d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.d.Timeout)
		defer cancel()
	}

	err := c.execute(ctx)
	c.finish(err)
	return c.run, err
}

func (c *Controller) execute(ctx context.Context) error {
	d := c.d
	if d.Runtime != "" {
		if err := stages.ValidateRuntime(d.Runtime); err != nil {
			return err
		}
	}

	if err := c.stages.PrepareWorkDir(); err != nil {
		return err
	}
	c.log(slog.LevelInfo, "cloning repository", models.StageClone, "branch", d.Branch, "workdir", d.WorkDir)
	if err := c.stages.Clone(ctx, d); err != nil {
		return err
	}
	c.transition(models.StateCloned)

	if d.Runtime == "" {
		return nil
	}

	if d.Secrets != "" {
		n, err := c.stages.ApplySecrets(ctx, d.Secrets, d.SecretsIdentity)
		if err != nil {
			return fmt.Errorf("apply secrets: %w", err)
		}
		c.log(slog.LevelInfo, "secrets applied", models.StageSecret, "count", n)
		c.transition(models.StateSecretsApplied)
	}

	if err := c.build(ctx); err != nil {
		return err
	}

	if d.Update != "" {
		ok, err := c.stages.Migrate(ctx, d.Update)
		if err != nil {
			return fmt.Errorf("update %s: %w", d.Update, err)
		}
		if ok {
			c.transition(models.StateMigrationDone)
		}
	}

	if d.Command != "" {
		if err := c.stages.RunCommand(ctx, d.Command); err != nil {
			return err
		}
		c.transition(models.StateCommandDone)
	}
	return nil
}

// build runs the build stage, inside the service bracket when a service
// is named.
func (c *Controller) build(ctx context.Context) error {
	d := c.d
	if d.Destination == "" {
		if d.Off != "" {
			c.log(slog.LevelInfo, "no destination, leaving service running", models.StageServiceStop, "service", d.Off)
		}
		return nil
	}

	build := func(ctx context.Context) error {
		c.log(slog.LevelInfo, "building", models.StageBuild, "runtime", d.Runtime, "destination", d.Destination)
		if err := c.stages.Build(ctx, d); err != nil {
			return err
		}
		c.transition(models.StateBuilt)
		return nil
	}

	if d.Off == "" {
		return build(ctx)
	}
	err := c.stages.Bracket(ctx, d.Off, func(ctx context.Context) error {
		c.transition(models.StateServiceStopped)
		return build(ctx)
	})
	if err != nil {
		return err
	}
	c.transition(models.StateServiceRestarted)
	return nil
}

func (c *Controller) finish(err error) {
	now := time.Now().UTC()
	c.run.CompletedAt = &now
	if err != nil {
		c.run.State = models.RunFailed
		c.run.Error = c.rc.Redactor.Redact(err.Error())
		c.transition(models.StateFailed)
		c.log(slog.LevelError, "run failed", "", "error", c.run.Error)
	} else {
		c.run.State = models.RunCompleted
		c.transition(models.StateDone)
		c.log(slog.LevelInfo, "run completed", "", "stages", len(c.run.Stages))
	}
	c.rc.Metrics.ObserveRun(c.run, false)
	c.run.Metrics = c.rc.Metrics.Snapshot()
	c.save()
}

func (c *Controller) transition(state models.PipelineState) {
	c.logger.Debug("pipeline transition", "from", c.run.Position, "to", state)
	c.run.Position = state
	c.save()
}

func (c *Controller) observeStage(result models.StageResult) {
	c.run.Stages = append(c.run.Stages, result)
	c.rc.Metrics.ObserveStage(result)

	level := slog.LevelInfo
	if result.Status != models.StageSucceeded {
		level = slog.LevelWarn
	}
	c.log(level, "stage finished", result.Name,
		"status", result.Status, "exit_code", result.ExitCode, "duration_ms", result.DurationMs)
}

// log writes to the logger and, with a store configured, to the run's
// history.
func (c *Controller) log(level slog.Level, msg string, stage models.StageName, args ...any) {
	attrs := args
	if stage != "" {
		attrs = append([]any{"stage", stage}, args...)
	}
	c.logger.Log(context.Background(), level, msg, attrs...)

	if c.rc.Store == nil || c.run.ID == "" {
		return
	}
	entry := models.RunLog{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Message:   c.rc.Redactor.Redact(formatLog(msg, args)),
		Stage:     string(stage),
	}
	if err := c.rc.Store.AppendRunLog(c.run.ID, entry); err != nil {
		c.logger.Warn("appending run log failed", "error", err)
	}
}

func (c *Controller) save() {
	if c.rc.Store == nil || c.run.ID == "" {
		return
	}
	if err := c.rc.Store.UpdateRun(c.run); err != nil {
		c.logger.Warn("updating run history failed", "error", err)
	}
}

func formatLog(msg string, args []any) string {
	for i := 0; i+1 < len(args); i += 2 {
		msg += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	return msg
}
