package stages

import (
	"context"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

// RunCommand runs the user-supplied trailing command in the working
// directory.
func (s *Stages) RunCommand(ctx context.Context, command string) error {
	_, err := s.run(ctx, models.StageCommand, command, s.workDir)
	return err
}
