package execkit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// processHandle owns a spawned child process together with its termination
// controls. The invocation controller is its sole owner: Wait must be called
// exactly once per successfully spawned handle so the child is reaped before
// the controller returns.
type processHandle struct {
	command *exec.Cmd
}

// spawnProcess launches the requested command with its standard output and
// standard error attached to pipes, placing the child in its own process
// group (or Windows equivalent) so termination reaches descendants. Spawn
// failures are returned immediately; no timers exist yet at that point.
func spawnProcess(request CommandRequest) (*processHandle, io.ReadCloser, io.ReadCloser, error) {
	command := exec.Command(request.Arguments[0], request.Arguments[1:]...)

	if len(request.WorkingDirectory) > 0 {
		command.Dir = request.WorkingDirectory
	}

	mergedEnvironment := append([]string{}, os.Environ()...)
	for environmentKey, environmentValue := range request.EnvironmentVariables {
		mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentValue))
	}
	command.Env = mergedEnvironment

	if request.StandardInput != nil {
		command.Stdin = bytes.NewReader(request.StandardInput)
	} else {
		command.Stdin = os.Stdin
	}

	configureProcessGroup(command)

	standardOutputPipe, standardOutputPipeError := command.StdoutPipe()
	if standardOutputPipeError != nil {
		return nil, nil, nil, standardOutputPipeError
	}

	standardErrorPipe, standardErrorPipeError := command.StderrPipe()
	if standardErrorPipeError != nil {
		return nil, nil, nil, standardErrorPipeError
	}

	if startError := command.Start(); startError != nil {
		return nil, nil, nil, startError
	}

	return &processHandle{command: command}, standardOutputPipe, standardErrorPipe, nil
}

// Wait suspends until the child exits and reaps it. A non-zero exit code is
// reported through the integer, not the error; the error covers wait-level
// operational failures only.
func (handle *processHandle) Wait() (int, error) {
	waitError := handle.command.Wait()
	if waitError != nil {
		exitError := &exec.ExitError{}
		if errors.As(waitError, &exitError) {
			return exitError.ExitCode(), nil
		}
		return -1, waitError
	}
	return 0, nil
}
