package cli

import (
	"errors"

	"github.com/EquablePanic4/codli-gci/pkg/directive"
	"github.com/EquablePanic4/codli-gci/pkg/stages"
)

const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitConfigError = 3
	ExitInternal    = 4
)

// exitError carries the exit code for err. reported is set when the
// message has already been shown to the user.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// ExitCode maps a pipeline error to the process exit code.
func ExitCode(err error) int {
	var ee *exitError
	var rtErr *stages.UnsupportedRuntimeError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, directive.ErrUsage):
		return ExitUsage
	case errors.As(err, &rtErr):
		return ExitConfigError
	default:
		return ExitFailure
	}
}
