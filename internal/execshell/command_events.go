package execshell

import "github.com/toolr/toolr/internal/execkit"

// CommandEventObserver receives lifecycle notifications for shell command
// execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that the child exited and supplies
	// the result; the exit code may be non-zero.
	CommandCompleted(command ShellCommand, result execkit.ExecutionResult)
	// CommandExecutionFailed reports operational failures and elapsed
	// timeouts raised instead of a result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

// CommandStarted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

// CommandCompleted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandCompleted(ShellCommand, execkit.ExecutionResult) {}

// CommandExecutionFailed implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
