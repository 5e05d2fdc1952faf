package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetRun(t *testing.T) {
	s := newTestStore(t)
	run := &models.RunRecord{Repository: "acme/widget", State: models.RunRunning, Position: models.StateStart}
	if err := s.CreateRun(run); err != nil {
		t.Fatal(err)
	}
	if run.ID == "" {
		t.Fatal("CreateRun did not assign an ID")
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Repository != "acme/widget" || got.State != models.RunRunning {
		t.Errorf("got %+v", got)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRun("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateRun(t *testing.T) {
	s := newTestStore(t)
	run := &models.RunRecord{Repository: "acme/widget", State: models.RunRunning}
	s.CreateRun(run)

	run.State = models.RunCompleted
	run.Position = models.StateDone
	run.Stages = append(run.Stages, models.StageResult{Name: models.StageClone, Status: models.StageSucceeded})
	if err := s.UpdateRun(run); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetRun(run.ID)
	if got.State != models.RunCompleted || got.Position != models.StateDone || len(got.Stages) != 1 {
		t.Errorf("got %+v", got)
	}

	missing := &models.RunRecord{ID: "missing"}
	if err := s.UpdateRun(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRun(missing) error = %v", err)
	}
}

func TestListRuns_Filters(t *testing.T) {
	s := newTestStore(t)
	for _, r := range []*models.RunRecord{
		{Repository: "acme/widget", State: models.RunCompleted},
		{Repository: "acme/widget", State: models.RunFailed},
		{Repository: "acme/gadget", State: models.RunCompleted},
	} {
		if err := s.CreateRun(r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListRuns(RunFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("ListRuns() = %d, %v", len(all), err)
	}
	if all[0].Repository != "acme/gadget" {
		t.Errorf("newest first expected, got %s", all[0].Repository)
	}

	widget, _ := s.ListRuns(RunFilter{Repository: "acme/widget"})
	if len(widget) != 2 {
		t.Errorf("repository filter = %d", len(widget))
	}
	failed, _ := s.ListRuns(RunFilter{State: models.RunFailed})
	if len(failed) != 1 {
		t.Errorf("state filter = %d", len(failed))
	}
	limited, _ := s.ListRuns(RunFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limit = %d", len(limited))
	}
}

func TestRunLogs(t *testing.T) {
	s := newTestStore(t)
	run := &models.RunRecord{Repository: "acme/widget", State: models.RunRunning}
	s.CreateRun(run)

	now := time.Now().UTC()
	for i, msg := range []string{"cloning", "building", "done"} {
		err := s.AppendRunLog(run.ID, models.RunLog{Timestamp: now, Level: "INFO", Message: msg, Stage: "s" + string(rune('0'+i))})
		if err != nil {
			t.Fatal(err)
		}
	}
	logs, err := s.GetRunLogs(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 3 || logs[0].Message != "cloning" || logs[2].Message != "done" || logs[1].Stage != "s1" {
		t.Errorf("logs = %+v", logs)
	}
}
