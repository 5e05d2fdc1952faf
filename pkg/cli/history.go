package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/EquablePanic4/codli-gci/pkg/models"
	"github.com/EquablePanic4/codli-gci/pkg/store"
)

var (
	historyDB         string
	historyLimit      int
	historyRepository string
	historyState      string
	historyOutput     string
	historyWithLogs   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect runs recorded with --history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyDB, "db", "", "run history database (the --history directive of run)")
	historyCmd.MarkPersistentFlagRequired("db")

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list (0 for all)")
	historyListCmd.Flags().StringVar(&historyRepository, "repository", "", "only runs of owner/repo")
	historyListCmd.Flags().StringVar(&historyState, "state", "", "only runs in this state (Running, Completed, Failed)")

	historyShowCmd.Flags().StringVarP(&historyOutput, "output", "o", "yaml", "output format: yaml or json")
	historyShowCmd.Flags().BoolVar(&historyWithLogs, "logs", false, "include the run's log lines")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	st, err := store.OpenSQLiteStore(historyDB)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(store.RunFilter{
		Repository: historyRepository,
		State:      models.RunState(historyState),
		Limit:      historyLimit,
	})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "REPOSITORY", "STATE", "POSITION", "STARTED", "DURATION")
	for _, run := range runs {
		t.Row(run.ID, run.Repository, string(run.State), string(run.Position), started(run), duration(run))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func started(run *models.RunRecord) string {
	if run.StartedAt == nil {
		return "-"
	}
	return run.StartedAt.Local().Format(time.DateTime)
}

func duration(run *models.RunRecord) string {
	if run.StartedAt == nil || run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(*run.StartedAt).Round(time.Millisecond).String()
}

type runDocument struct {
	Run  *models.RunRecord `yaml:"run" json:"run"`
	Logs []models.RunLog   `yaml:"logs,omitempty" json:"logs,omitempty"`
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, err := store.OpenSQLiteStore(historyDB)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.GetRun(args[0])
	if err != nil {
		return err
	}
	doc := runDocument{Run: run}
	if historyWithLogs {
		if doc.Logs, err = st.GetRunLogs(run.ID); err != nil {
			return err
		}
	}
	return writeDocument(cmd.OutOrStdout(), historyOutput, doc)
}

func writeDocument(w io.Writer, format string, doc any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return &exitError{code: ExitUsage, err: fmt.Errorf("unknown output format %q (expected yaml or json)", format)}
	}
}
