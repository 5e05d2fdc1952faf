// Package console renders the run banner, terminal title and stage
// summary for humans watching a run.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

type Console struct {
	w        io.Writer
	terminal bool
	output   *termenv.Output

	title  lipgloss.Style
	ok     lipgloss.Style
	failed lipgloss.Style
	soft   lipgloss.Style
	dim    lipgloss.Style
}

// New styles output only when f is a terminal.
func New(f *os.File) *Console {
	return newConsole(f, term.IsTerminal(int(f.Fd())))
}

// NewPlain writes unstyled text to w.
func NewPlain(w io.Writer) *Console {
	return newConsole(w, false)
}

func newConsole(w io.Writer, terminal bool) *Console {
	profile := termenv.Ascii
	if terminal {
		profile = termenv.EnvColorProfile()
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	return &Console{
		w:        w,
		terminal: terminal,
		output:   termenv.NewOutput(w, termenv.WithProfile(profile)),
		title:    renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ok:       renderer.NewStyle().Foreground(lipgloss.Color("10")),
		failed:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		soft:     renderer.NewStyle().Foreground(lipgloss.Color("11")),
		dim:      renderer.NewStyle().Faint(true),
	}
}

// SetTitle sets the terminal window title. It does nothing when output
// is not a terminal.
func (c *Console) SetTitle(title string) {
	if c.terminal {
		c.output.SetWindowTitle(title)
	}
}

func (c *Console) Banner(version string) {
	c.SetTitle(fmt.Sprintf("Codli GCI [v%s]", version))
	fmt.Fprintln(c.w, c.title.Render("Welcome in Codli GCI!"))
}

func (c *Console) Stage(result models.StageResult) {
	var mark string
	switch result.Status {
	case models.StageSucceeded:
		mark = c.ok.Render("ok  ")
	case models.StageSoftFailed:
		mark = c.soft.Render("skip")
	default:
		mark = c.failed.Render("FAIL")
	}
	line := fmt.Sprintf("%s %-20s %s", mark, result.Name, c.dim.Render(fmt.Sprintf("%dms", result.DurationMs)))
	if result.Command != "" {
		line += "  " + c.dim.Render(result.Command)
	}
	fmt.Fprintln(c.w, line)
}

// Summary prints every stage of run and its outcome.
func (c *Console) Summary(run *models.RunRecord) {
	for _, s := range run.Stages {
		c.Stage(s)
	}
	switch run.State {
	case models.RunCompleted:
		fmt.Fprintln(c.w, c.ok.Render(fmt.Sprintf("%s: run completed", run.Repository)))
	default:
		msg := fmt.Sprintf("ERROR: %s: run failed", run.Repository)
		if run.Error != "" {
			msg += ": " + firstLine(run.Error)
		}
		fmt.Fprintln(c.w, c.failed.Render(msg))
	}
}

func (c *Console) Errorf(format string, args ...any) {
	fmt.Fprintln(c.w, c.failed.Render("ERROR: "+fmt.Sprintf(format, args...)))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
