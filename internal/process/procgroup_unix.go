//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup places the child in a new process group so that
// signals reach every process it forks (for example the binary built by `go run`).
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func (h *Handle) signal(sig syscall.Signal) error {
	if h.cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-h.cmd.Process.Pid, sig)
}
