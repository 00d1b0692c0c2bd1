//go:build windows

package executor

import (
	"os/exec"
)

func shellCommand(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command)
}

func configureProcess(cmd *exec.Cmd) {
	// Windows has no POSIX process groups; Kill below terminates the
	// direct child only.
}

func terminateProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
