package execshell

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/toolr/toolr/internal/execkit"
)

const (
	loggerNotConfiguredMessageConstant = "shell executor requires a logger"
	engineNotConfiguredMessageConstant = "shell executor requires a command engine"
	commandStartingMessageConstant     = "executing shell command"
	commandCompletedMessageConstant    = "shell command completed"
	commandFailedMessageConstant       = "shell command execution failed"
	logFieldCommandNameConstant        = "command_name"
	logFieldArgumentsConstant          = "arguments"
	logFieldWorkingDirectoryConstant   = "working_directory"
	logFieldExitCodeConstant           = "exit_code"
	logFieldDurationConstant           = "duration"
)

// Wiring validation sentinels.
var (
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	ErrEngineNotConfigured = errors.New(engineNotConfiguredMessageConstant)
)

// CommandEngine abstracts the execution engine behind the executor.
type CommandEngine interface {
	Run(executionContext context.Context, request execkit.CommandRequest) (execkit.ExecutionResult, error)
}

// The host console destinations are shared by every executor in the process
// so concurrent invocations teeing to the console serialize their chunks.
var (
	sharedConsoleStandardOutput io.Writer = execkit.NewSynchronizedWriter(os.Stdout)
	sharedConsoleStandardError  io.Writer = execkit.NewSynchronizedWriter(os.Stderr)
)

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(executor *ShellExecutor)

// WithConsoleWriters overrides the host console destinations used when a
// command streams output. Callers sharing a destination across executors
// should pass execkit.SynchronizedWriter instances.
func WithConsoleWriters(standardOutput io.Writer, standardError io.Writer) ExecutorOption {
	return func(executor *ShellExecutor) {
		if standardOutput != nil {
			executor.consoleStandardOutput = standardOutput
		}
		if standardError != nil {
			executor.consoleStandardError = standardError
		}
	}
}

// WithObservers registers lifecycle observers notified around every
// execution.
func WithObservers(observers ...CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		for _, observer := range observers {
			if observer != nil {
				executor.observers = append(executor.observers, observer)
			}
		}
	}
}

// ShellExecutor coordinates shell command execution through the engine with
// structured logging and lifecycle observer notifications.
type ShellExecutor struct {
	logger                *zap.Logger
	engine                CommandEngine
	observers             []CommandEventObserver
	consoleStandardOutput io.Writer
	consoleStandardError  io.Writer
}

// NewShellExecutor constructs an executor around the provided logger and
// engine.
func NewShellExecutor(logger *zap.Logger, engine CommandEngine, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if engine == nil {
		return nil, ErrEngineNotConfigured
	}

	executor := &ShellExecutor{
		logger:                logger,
		engine:                engine,
		consoleStandardOutput: sharedConsoleStandardOutput,
		consoleStandardError:  sharedConsoleStandardError,
	}
	for _, option := range options {
		option(executor)
	}
	return executor, nil
}

// Execute runs the supplied command and returns its result. The returned
// error is one of the execkit error kinds; a non-zero exit code is not an
// error.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (execkit.ExecutionResult, error) {
	executor.notifyStarted(command)
	executor.logger.Debug(
		commandStartingMessageConstant,
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)

	request := executor.buildRequest(command)
	result, runError := executor.engine.Run(executionContext, request)
	if runError != nil {
		executor.notifyExecutionFailed(command, runError)
		executor.logger.Error(
			commandFailedMessageConstant,
			zap.String(logFieldCommandNameConstant, string(command.Name)),
			zap.Error(runError),
		)
		return execkit.ExecutionResult{}, runError
	}

	executor.notifyCompleted(command, result)
	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
		zap.Duration(logFieldDurationConstant, result.Duration()),
	)
	return result, nil
}

func (executor *ShellExecutor) buildRequest(command ShellCommand) execkit.CommandRequest {
	request := execkit.CommandRequest{
		Arguments:            append([]string{string(command.Name)}, command.Details.Arguments...),
		WorkingDirectory:     command.Details.WorkingDirectory,
		EnvironmentVariables: command.Details.EnvironmentVariables,
		StandardInput:        command.Details.StandardInput,
		WallClockTimeout:     command.Details.WallClockTimeout,
		IdleTimeout:          command.Details.IdleTimeout,
	}
	if command.Details.StreamOutput {
		request.LiveStandardOutputWriter = executor.consoleStandardOutput
		request.LiveStandardErrorWriter = executor.consoleStandardError
	}
	return request
}

func (executor *ShellExecutor) notifyStarted(command ShellCommand) {
	for _, observer := range executor.observers {
		observer.CommandStarted(command)
	}
}

func (executor *ShellExecutor) notifyCompleted(command ShellCommand, result execkit.ExecutionResult) {
	for _, observer := range executor.observers {
		observer.CommandCompleted(command, result)
	}
}

func (executor *ShellExecutor) notifyExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range executor.observers {
		observer.CommandExecutionFailed(command, failure)
	}
}
