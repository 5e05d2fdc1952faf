package stages

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

// ResetDir removes path recursively and recreates it empty.
func ResetDir(path string) error {
	clean := filepath.Clean(path)
	if path == "" || clean == "/" || clean == "." {
		return fmt.Errorf("refusing to reset directory %q", path)
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("remove %s: %w", clean, err)
	}
	if err := os.MkdirAll(clean, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", clean, err)
	}
	return nil
}

// PrepareWorkDir gives the run an empty working directory to clone into.
func (s *Stages) PrepareWorkDir() error {
	started := time.Now()
	if err := ResetDir(s.workDir); err != nil {
		s.record(models.StagePrepare, started, models.StageFailed, err)
		return fmt.Errorf("prepare working directory: %w", err)
	}
	s.record(models.StagePrepare, started, models.StageSucceeded, nil)
	return nil
}
