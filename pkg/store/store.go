package store

import (
	"errors"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

var ErrNotFound = errors.New("not found")

type RunFilter struct {
	Repository string
	State      models.RunState
	Limit      int
}

type Store interface {
	CreateRun(run *models.RunRecord) error
	GetRun(id string) (*models.RunRecord, error)
	UpdateRun(run *models.RunRecord) error
	ListRuns(filter RunFilter) ([]*models.RunRecord, error)
	AppendRunLog(id string, log models.RunLog) error
	GetRunLogs(id string) ([]models.RunLog, error)

	Migrate() error
	Close() error
}
