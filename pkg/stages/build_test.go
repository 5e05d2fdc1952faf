package stages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EquablePanic4/codli-gci/pkg/executor"
	"github.com/EquablePanic4/codli-gci/pkg/models"
)

func TestBuildCommand(t *testing.T) {
	d := models.Directives{Runtime: models.RuntimeDotnetCore, Destination: "/out"}
	got, err := BuildCommand(d, "/tmp/codli-gci")
	if err != nil {
		t.Fatal(err)
	}
	if got != "dotnet build /tmp/codli-gci -o /out" {
		t.Errorf("BuildCommand() = %s", got)
	}

	d.BuildConfiguration = "Release"
	got, _ = BuildCommand(d, "/tmp/codli-gci")
	if got != "dotnet build /tmp/codli-gci --configuration Release -o /out" {
		t.Errorf("BuildCommand() = %s", got)
	}
}

func TestBuildCommand_UnsupportedRuntime(t *testing.T) {
	_, err := BuildCommand(models.Directives{Runtime: "node", Destination: "/out"}, "/w")
	var rtErr *UnsupportedRuntimeError
	if !errors.As(err, &rtErr) || rtErr.Runtime != "node" {
		t.Fatalf("error = %v, want *UnsupportedRuntimeError", err)
	}
}

func TestBuild_UnsupportedRuntimeLeavesDestination(t *testing.T) {
	dest := t.TempDir()
	stale := filepath.Join(dest, "keep.txt")
	os.WriteFile(stale, []byte("x"), 0o644)

	runner := &fakeRunner{}
	s, _ := newTestStages(runner, "/w")
	if err := s.Build(context.Background(), models.Directives{Runtime: "go", Destination: dest}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(stale); err != nil {
		t.Error("destination must not be wiped for an unsupported runtime")
	}
	if len(runner.calls) != 0 {
		t.Error("no command may run for an unsupported runtime")
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestBuild_DestinationIsFreshEachRun(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	if err := os.MkdirAll(filepath.Join(dest, "old", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dest, "stale.dll"), []byte("old"), 0o644)

	build := 0
	runner := &fakeRunner{}
	runner.before = func(command string) {
		if strings.HasPrefix(command, "dotnet build") {
			build++
			os.WriteFile(filepath.Join(dest, fmt.Sprintf("fresh-%d.dll", build)), []byte("new"), 0o644)
		}
	}
	s, results := newTestStages(runner, "/w")
	d := models.Directives{Runtime: models.RuntimeDotnetCore, Destination: dest}

	for i := 0; i < 2; i++ {
		if err := s.Build(context.Background(), d); err != nil {
			t.Fatalf("Build() #%d error: %v", i+1, err)
		}
	}

	got := listDir(t, dest)
	if len(got) != 1 || got[0] != "fresh-2.dll" {
		t.Errorf("destination = %v, want only fresh-2.dll", got)
	}

	var names []models.StageName
	for _, r := range *results {
		names = append(names, r.Name)
	}
	want := []models.StageName{models.StageDestination, models.StageBuild, models.StageDestination, models.StageBuild}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("stages = %v, want %v", names, want)
	}
}

func TestBuild_NonZeroExit(t *testing.T) {
	runner := &fakeRunner{exits: map[string]executor.Result{"dotnet build": {ExitCode: 1, Output: "error CS1002"}}}
	s, _ := newTestStages(runner, "/w")
	err := s.Build(context.Background(), models.Directives{Runtime: models.RuntimeDotnetCore, Destination: t.TempDir()})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Stage != models.StageBuild {
		t.Fatalf("error = %v, want build CommandError", err)
	}
}
