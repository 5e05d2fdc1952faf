package stages

import (
	"context"
	"time"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

const MigrationCommand = "dotnet ef database update"

// Migrate applies the update target. Only "database" is supported; any
// other target reports false without an error.
func (s *Stages) Migrate(ctx context.Context, target string) (bool, error) {
	if target != models.UpdateDatabase {
		s.logger.Warn("unsupported update target, nothing done", "target", target)
		s.observe(models.StageResult{
			Name:      models.StageMigrate,
			Status:    models.StageSoftFailed,
			Error:     "unsupported update target " + target,
			StartedAt: time.Now().UTC(),
		})
		return false, nil
	}
	if _, err := s.run(ctx, models.StageMigrate, MigrationCommand, s.workDir); err != nil {
		return false, err
	}
	return true, nil
}
