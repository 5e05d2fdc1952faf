//go:build unix

package executor

import (
	"os/exec"
	"syscall"
)

// configureProcess puts the shell in its own process group so that
// cancellation also reaches the commands it spawned.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
