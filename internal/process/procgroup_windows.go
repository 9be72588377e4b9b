//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

func configureProcessGroup(cmd *exec.Cmd) {}

// signal falls back to killing the direct child; Windows has no SIGTERM delivery.
func (h *Handle) signal(sig syscall.Signal) error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}
