package toolkit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/toolr/toolr/internal/console"
	"github.com/toolr/toolr/internal/execkit"
	"github.com/toolr/toolr/internal/execshell"
)

const (
	loggerRequiredMessageConstant   = "tool context requires a logger"
	executorRequiredMessageConstant = "tool context requires a command executor"
)

// Construction validation sentinels.
var (
	ErrLoggerRequired   = errors.New(loggerRequiredMessageConstant)
	ErrExecutorRequired = errors.New(executorRequiredMessageConstant)
)

// ContextProvider supplies the tool context lazily. Command builders capture
// a provider at wiring time and resolve it when the command actually runs,
// after configuration and logging are initialized.
type ContextProvider func() *Context

// CommandExecutor abstracts the shell executor handed to tools.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execkit.ExecutionResult, error)
}

// Context carries the shared dependencies every tool command receives.
type Context struct {
	logger           *zap.Logger
	executor         CommandExecutor
	verbosity        console.Verbosity
	workingDirectory string
}

// NewContext constructs a tool context around the supplied dependencies.
func NewContext(logger *zap.Logger, executor CommandExecutor, verbosity console.Verbosity) (*Context, error) {
	if logger == nil {
		return nil, ErrLoggerRequired
	}
	if executor == nil {
		return nil, ErrExecutorRequired
	}
	return &Context{logger: logger, executor: executor, verbosity: verbosity}, nil
}

// Logger exposes the context logger for tools that emit their own fields.
func (toolContext *Context) Logger() *zap.Logger {
	return toolContext.logger
}

// Verbosity reports the effective console verbosity.
func (toolContext *Context) Verbosity() console.Verbosity {
	return toolContext.verbosity
}

// WorkingDirectory reports the directory commands run in. Empty means the
// process working directory.
func (toolContext *Context) WorkingDirectory() string {
	return toolContext.workingDirectory
}

// WithWorkingDirectory derives a context whose commands run in the supplied
// directory. The receiver is not modified.
func (toolContext *Context) WithWorkingDirectory(workingDirectory string) *Context {
	derivedContext := *toolContext
	derivedContext.workingDirectory = workingDirectory
	return &derivedContext
}

// runSettings accumulates per-invocation options for Run.
type runSettings struct {
	environmentVariables map[string]string
	standardInput        []byte
	wallClockTimeout     time.Duration
	idleTimeout          time.Duration
	streamingDisabled    bool
}

// RunOption customizes a single Run invocation.
type RunOption func(settings *runSettings)

// WithWallClockTimeout bounds the total runtime of the command.
func WithWallClockTimeout(timeout time.Duration) RunOption {
	return func(settings *runSettings) {
		settings.wallClockTimeout = timeout
	}
}

// WithIdleTimeout bounds the silence between output chunks.
func WithIdleTimeout(idleTimeout time.Duration) RunOption {
	return func(settings *runSettings) {
		settings.idleTimeout = idleTimeout
	}
}

// WithEnvironmentVariables overlays variables onto the inherited environment.
func WithEnvironmentVariables(environmentVariables map[string]string) RunOption {
	return func(settings *runSettings) {
		settings.environmentVariables = environmentVariables
	}
}

// WithStandardInput feeds the payload to the child and closes its stdin.
func WithStandardInput(payload []byte) RunOption {
	return func(settings *runSettings) {
		settings.standardInput = payload
	}
}

// WithoutStreaming captures output without echoing it to the console.
func WithoutStreaming() RunOption {
	return func(settings *runSettings) {
		settings.streamingDisabled = true
	}
}

// Run executes the argument vector through the shell executor. Output streams
// to the console unless disabled or the verbosity is quiet; the captured
// output is always available on the returned result. A non-zero exit code is
// a normal result, not an error.
func (toolContext *Context) Run(executionContext context.Context, arguments []string, options ...RunOption) (execkit.ExecutionResult, error) {
	if len(arguments) == 0 {
		return execkit.ExecutionResult{}, execkit.ErrEmptyArgumentVector
	}

	settings := runSettings{}
	for _, option := range options {
		option(&settings)
	}

	streamOutput := !settings.streamingDisabled && toolContext.verbosity != console.VerbosityQuiet

	command := execshell.ShellCommand{
		Name: execshell.CommandName(arguments[0]),
		Details: execshell.CommandDetails{
			Arguments:            arguments[1:],
			WorkingDirectory:     toolContext.workingDirectory,
			EnvironmentVariables: settings.environmentVariables,
			StandardInput:        settings.standardInput,
			WallClockTimeout:     settings.wallClockTimeout,
			IdleTimeout:          settings.idleTimeout,
			StreamOutput:         streamOutput,
		},
	}

	return toolContext.executor.Execute(executionContext, command)
}

// Debug logs at debug level when the verbosity is verbose.
func (toolContext *Context) Debug(message string, fields ...zap.Field) {
	if toolContext.verbosity != console.VerbosityVerbose {
		return
	}
	toolContext.logger.Debug(message, fields...)
}

// Info logs at info level unless the verbosity is quiet.
func (toolContext *Context) Info(message string, fields ...zap.Field) {
	if toolContext.verbosity == console.VerbosityQuiet {
		return
	}
	toolContext.logger.Info(message, fields...)
}

// Warn logs at warn level unless the verbosity is quiet.
func (toolContext *Context) Warn(message string, fields ...zap.Field) {
	if toolContext.verbosity == console.VerbosityQuiet {
		return
	}
	toolContext.logger.Warn(message, fields...)
}

// Error logs at error level at every verbosity.
func (toolContext *Context) Error(message string, fields ...zap.Field) {
	toolContext.logger.Error(message, fields...)
}
