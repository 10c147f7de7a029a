//go:build !windows

package execkit

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup places the child in its own process group so that
// termination signals reach any descendants the child spawns. A lone process
// signal is insufficient for tree cleanup.
func configureProcessGroup(command *exec.Cmd) {
	command.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// Terminate requests a graceful stop of the child's process group.
func (handle *processHandle) Terminate() error {
	return handle.signalProcessGroup(syscall.SIGTERM)
}

// Kill stops the child's process group unconditionally.
func (handle *processHandle) Kill() error {
	return handle.signalProcessGroup(syscall.SIGKILL)
}

func (handle *processHandle) signalProcessGroup(signal syscall.Signal) error {
	if handle.command.Process == nil {
		return nil
	}

	processGroupIdentifier := handle.command.Process.Pid
	groupSignalError := syscall.Kill(-processGroupIdentifier, signal)
	if groupSignalError == nil || errors.Is(groupSignalError, syscall.ESRCH) {
		return nil
	}

	// The group may already be gone while the direct child lingers; fall
	// back to signaling the child alone.
	directSignalError := handle.command.Process.Signal(signal)
	if directSignalError == nil || errors.Is(directSignalError, os.ErrProcessDone) {
		return nil
	}

	return groupSignalError
}
