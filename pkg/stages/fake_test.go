package stages

import (
	"context"
	"strings"

	"github.com/EquablePanic4/codli-gci/pkg/executor"
	"github.com/EquablePanic4/codli-gci/pkg/models"
)

type call struct {
	command string
	dir     string
}

// fakeRunner records calls and answers from the first matching prefix in
// exits; unmatched commands succeed with empty output.
type fakeRunner struct {
	calls  []call
	exits  map[string]executor.Result
	before func(command string)
}

func (f *fakeRunner) Run(_ context.Context, commandLine, dir string) (executor.Result, error) {
	f.calls = append(f.calls, call{command: commandLine, dir: dir})
	if f.before != nil {
		f.before(commandLine)
	}
	for prefix, res := range f.exits {
		if strings.HasPrefix(commandLine, prefix) {
			return res, nil
		}
	}
	return executor.Result{}, nil
}

func (f *fakeRunner) commands() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.command
	}
	return out
}

func (f *fakeRunner) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c.command, prefix) {
			n++
		}
	}
	return n
}

func newTestStages(runner executor.Runner, workDir string) (*Stages, *[]models.StageResult) {
	var results []models.StageResult
	s := New(runner, workDir, nil, executor.NewRedactor(), func(r models.StageResult) {
		results = append(results, r)
	})
	return s, &results
}
