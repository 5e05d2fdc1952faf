package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/EquablePanic4/codli-gci/pkg/console"
	"github.com/EquablePanic4/codli-gci/pkg/directive"
	"github.com/EquablePanic4/codli-gci/pkg/executor"
	"github.com/EquablePanic4/codli-gci/pkg/observability"
	"github.com/EquablePanic4/codli-gci/pkg/pipeline"
	"github.com/EquablePanic4/codli-gci/pkg/stages"
	"github.com/EquablePanic4/codli-gci/pkg/store"
)

const runUsage = "usage: codli run <key> <value> [<key> <value>]..."

var newRunner = func(logger *slog.Logger, sink io.Writer, redactor *executor.Redactor) executor.Runner {
	return executor.NewExecutor(logger, sink, redactor)
}

var runCmd = &cobra.Command{
	Use:   "run <key> <value>...",
	Short: "Run the pipeline described by directive pairs",
	Long: `Run clones and builds a repository from key/value directive pairs:

  -o owner  -r repository  [-b branch]  [-l login -p password]
  --runtime dotnet-core  --destination dir  [--build-configuration name]
  --secrets file  [--secrets-identity age-key-file]  --off service
  --update database  --command "shell command"  --logs file
  --config file  --workdir dir  --timeout duration  --history sqlite-file

Values read from --config override values given on the command line.
Set CODLI_DEBUG=1 for debug logging.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
			return cmd.Help()
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPipeline(ctx, args, cmd.OutOrStdout())
	},
}

func consoleFor(w io.Writer) *console.Console {
	if f, ok := w.(*os.File); ok {
		return console.New(f)
	}
	return console.NewPlain(w)
}

func runPipeline(ctx context.Context, args []string, out io.Writer) error {
	con := consoleFor(out)
	con.Banner(appVersion)

	d, err := directive.Load(args)
	if err != nil {
		con.Errorf("%v", err)
		if ExitCode(err) == ExitUsage {
			io.WriteString(out, runUsage+"\n")
		}
		return &exitError{code: ExitCode(err), err: err, reported: true}
	}

	var sink io.Writer
	if d.Logs != "" {
		f, err := executor.OpenSink(d.Logs)
		if err != nil {
			return &exitError{code: ExitInternal, err: err}
		}
		defer f.Close()
		sink = f
	}
	logger := observability.NewLogger(sink, os.Getenv("CODLI_DEBUG") != "")

	redactor := executor.NewRedactor(stages.PasswordForms(d)...)
	rc := pipeline.RunContext{
		Directives: d,
		Runner:     newRunner(logger, sink, redactor),
		Logger:     logger,
		Metrics:    observability.NewRegistry(),
		Redactor:   redactor,
	}
	if d.History != "" {
		st, err := store.OpenSQLiteStore(d.History)
		if err != nil {
			return &exitError{code: ExitInternal, err: err}
		}
		defer st.Close()
		rc.Store = st
	}

	run, err := pipeline.New(rc).Run(ctx)
	con.Summary(run)
	if err != nil {
		return &exitError{code: ExitCode(err), err: err, reported: true}
	}
	return nil
}
