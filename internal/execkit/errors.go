package execkit

import (
	"fmt"
	"time"
)

const (
	executionFailureMessageTemplateConstant = "command %s failed: %s"
	wallClockTimeoutMessageTemplateConstant = "command %s timed out after %.2f seconds"
	idleTimeoutMessageTemplateConstant      = "command %s produced no output for %.2f seconds"
	unknownCauseMessageConstant             = "unknown error"
)

// CommandExecutionError reports spawn failures, destination stream failures,
// and other operational errors surrounding an invocation. It is never used
// for non-zero exit codes or for elapsed timeout policies.
type CommandExecutionError struct {
	CommandLabel string
	Cause        error
}

// Error implements the error interface.
func (executionError CommandExecutionError) Error() string {
	causeMessage := unknownCauseMessageConstant
	if executionError.Cause != nil {
		causeMessage = executionError.Cause.Error()
	}
	return fmt.Sprintf(executionFailureMessageTemplateConstant, executionError.CommandLabel, causeMessage)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As chains.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// WallClockTimeoutError reports that the total invocation duration exceeded
// the configured wall-clock limit. The child process tree was terminated
// and reaped before this error was raised. PartialResult carries whatever
// output was captured before the deadline fired.
type WallClockTimeoutError struct {
	CommandLabel  string
	Timeout       time.Duration
	Elapsed       time.Duration
	PartialResult ExecutionResult
}

// Error implements the error interface.
func (timeoutError WallClockTimeoutError) Error() string {
	return fmt.Sprintf(wallClockTimeoutMessageTemplateConstant, timeoutError.CommandLabel, timeoutError.Timeout.Seconds())
}

// IdleTimeoutError reports that the gap between successive output chunks
// exceeded the configured idle limit. The child process tree was terminated
// and reaped before this error was raised. PartialResult carries whatever
// output was captured before the deadline fired.
type IdleTimeoutError struct {
	CommandLabel  string
	IdleTimeout   time.Duration
	Elapsed       time.Duration
	PartialResult ExecutionResult
}

// Error implements the error interface.
func (timeoutError IdleTimeoutError) Error() string {
	return fmt.Sprintf(idleTimeoutMessageTemplateConstant, timeoutError.CommandLabel, timeoutError.IdleTimeout.Seconds())
}
