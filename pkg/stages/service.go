package stages

import (
	"context"
	"errors"
	"fmt"

	"github.com/EquablePanic4/codli-gci/pkg/executor"
	"github.com/EquablePanic4/codli-gci/pkg/models"
)

type ServiceState string

const (
	ServiceRunning ServiceState = "running"
	ServiceStopped ServiceState = "stopped"
)

func ServiceCommand(service string, state ServiceState) (string, error) {
	switch state {
	case ServiceRunning:
		return "sudo systemctl start " + quote(service), nil
	case ServiceStopped:
		return "sudo systemctl stop " + quote(service), nil
	default:
		return "", fmt.Errorf("unknown service state %q", state)
	}
}

// Toggle starts or stops a system service.
func (s *Stages) Toggle(ctx context.Context, service string, state ServiceState) (executor.Result, error) {
	command, err := ServiceCommand(service, state)
	if err != nil {
		return executor.Result{}, err
	}
	name := models.StageServiceStop
	if state == ServiceRunning {
		name = models.StageServiceUp
	}
	return s.run(ctx, name, command, "")
}

// Bracket stops service, runs fn, and starts service again. The restart
// runs exactly once whenever the stop succeeded, even if fn fails or
// panics or ctx has expired; its error is joined to fn's.
func (s *Stages) Bracket(ctx context.Context, service string, fn func(context.Context) error) (err error) {
	if _, err := s.Toggle(ctx, service, ServiceStopped); err != nil {
		return fmt.Errorf("stop service %s: %w", service, err)
	}
	defer func() {
		if _, startErr := s.Toggle(context.WithoutCancel(ctx), service, ServiceRunning); startErr != nil {
			err = errors.Join(err, fmt.Errorf("start service %s: %w", service, startErr))
		}
	}()
	return fn(ctx)
}
