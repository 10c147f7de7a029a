//go:build windows

package execkit

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

const (
	taskkillExecutableNameConstant = "taskkill"
	taskkillTreeFlagConstant       = "/T"
	taskkillForceFlagConstant      = "/F"
	taskkillProcessFlagConstant    = "/PID"
)

// configureProcessGroup detaches the child into a new process group so that
// tree-wide termination can target it without affecting the host console.
func configureProcessGroup(command *exec.Cmd) {
	command.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// Terminate requests a stop of the child tree. Windows offers no portable
// graceful signal for arbitrary console children, so the graceful phase
// delegates to the forceful one; correctness never depends on cooperation.
func (handle *processHandle) Terminate() error {
	return handle.Kill()
}

// Kill stops the child and every descendant via taskkill tree termination,
// falling back to a direct process kill when taskkill is unavailable.
func (handle *processHandle) Kill() error {
	if handle.command.Process == nil {
		return nil
	}

	taskkillCommand := exec.Command(
		taskkillExecutableNameConstant,
		taskkillTreeFlagConstant,
		taskkillForceFlagConstant,
		taskkillProcessFlagConstant,
		strconv.Itoa(handle.command.Process.Pid),
	)
	if taskkillError := taskkillCommand.Run(); taskkillError == nil {
		return nil
	}

	directKillError := handle.command.Process.Kill()
	if directKillError == nil || errors.Is(directKillError, os.ErrProcessDone) {
		return nil
	}

	return directKillError
}
