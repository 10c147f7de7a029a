package taskfile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/toolr/toolr/internal/toolkit"
	pathutils "github.com/toolr/toolr/internal/utils/path"
)

const (
	taskNotDefinedTemplateConstant    = "task %q is not defined"
	stepOptionsErrorTemplateConstant  = "task %q step %d: %w"
	stepRunFailureTemplateConstant    = "task %q step %d (%s): %w"
	stepExitFailureTemplateConstant   = "task %q step %d (%s) failed: %w"
	taskStartingLogMessageConstant    = "running task"
	stepStartingLogMessageConstant    = "running task step"
	logFieldTaskNameConstant          = "task_name"
	logFieldStepIndexConstant         = "step_index"
	logFieldStepArgumentsConstant     = "step_arguments"
	stepArgumentsJoinSeparatorLiteral = " "
)

// ErrTaskNotDefined reports a task name missing from the configuration.
var ErrTaskNotDefined = errors.New("task not defined")

// Executor runs tasks from a loaded configuration through the tool context.
type Executor struct {
	toolContext  *toolkit.Context
	homeExpander *pathutils.HomeExpander
}

// NewExecutor constructs a task executor around the supplied tool context.
func NewExecutor(toolContext *toolkit.Context) *Executor {
	return &Executor{toolContext: toolContext, homeExpander: pathutils.NewHomeExpander()}
}

// RunTask executes every step of the named task in order. The first step
// that cannot run or exits non-zero stops the task; a non-zero exit surfaces
// as a toolkit.ExitCodeError so the CLI can mirror the child's status.
func (executor *Executor) RunTask(executionContext context.Context, configuration Configuration, taskName string) error {
	task, taskDefined := configuration.TaskByName(taskName)
	if !taskDefined {
		return fmt.Errorf(taskNotDefinedTemplateConstant+": %w", taskName, ErrTaskNotDefined)
	}

	executor.toolContext.Info(taskStartingLogMessageConstant, zap.String(logFieldTaskNameConstant, taskName))

	for stepIndex, step := range task.Steps {
		stepOptions, optionsError := DecodeStepOptions(step.With)
		if optionsError != nil {
			return fmt.Errorf(stepOptionsErrorTemplateConstant, taskName, stepIndex, optionsError)
		}

		if runError := executor.runStep(executionContext, taskName, stepIndex, step, stepOptions); runError != nil {
			return runError
		}
	}
	return nil
}

func (executor *Executor) runStep(executionContext context.Context, taskName string, stepIndex int, step StepConfiguration, stepOptions StepOptions) error {
	stepLabel := strings.Join(step.Run, stepArgumentsJoinSeparatorLiteral)
	executor.toolContext.Debug(
		stepStartingLogMessageConstant,
		zap.String(logFieldTaskNameConstant, taskName),
		zap.Int(logFieldStepIndexConstant, stepIndex),
		zap.String(logFieldStepArgumentsConstant, stepLabel),
	)

	stepContext := executor.toolContext
	if len(stepOptions.WorkingDirectory) > 0 {
		stepContext = stepContext.WithWorkingDirectory(executor.homeExpander.Expand(stepOptions.WorkingDirectory))
	}

	runOptions := buildRunOptions(stepOptions)
	result, runError := stepContext.Run(executionContext, step.Run, runOptions...)
	if runError != nil {
		return fmt.Errorf(stepRunFailureTemplateConstant, taskName, stepIndex, stepLabel, runError)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf(stepExitFailureTemplateConstant, taskName, stepIndex, stepLabel, toolkit.ExitCodeError{Code: result.ExitCode})
	}
	return nil
}

func buildRunOptions(stepOptions StepOptions) []toolkit.RunOption {
	runOptions := make([]toolkit.RunOption, 0, 4)
	if len(stepOptions.EnvironmentVariables) > 0 {
		runOptions = append(runOptions, toolkit.WithEnvironmentVariables(stepOptions.EnvironmentVariables))
	}
	if wallClockTimeout := stepOptions.WallClockTimeout(); wallClockTimeout > 0 {
		runOptions = append(runOptions, toolkit.WithWallClockTimeout(wallClockTimeout))
	}
	if idleTimeout := stepOptions.IdleTimeout(); idleTimeout > 0 {
		runOptions = append(runOptions, toolkit.WithIdleTimeout(idleTimeout))
	}
	if stepOptions.Stream != nil && !*stepOptions.Stream {
		runOptions = append(runOptions, toolkit.WithoutStreaming())
	}
	return runOptions
}
