package taskcmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toolr/toolr/cmd/cli/taskcmd"
	"github.com/toolr/toolr/internal/console"
	"github.com/toolr/toolr/internal/execkit"
	"github.com/toolr/toolr/internal/execshell"
	"github.com/toolr/toolr/internal/taskfile"
	"github.com/toolr/toolr/internal/toolkit"
)

const (
	testTaskfileContentsConstant = `tasks:
  - name: check
    steps:
      - run: [gofmt, -l, .]
  - name: release
    steps:
      - run: [make, dist]
`
	testTaskListingConstant = "check\nrelease\n"
)

type recordingExecutor struct {
	recordedCommands []execshell.ShellCommand
	exitCode         int
}

func (executor *recordingExecutor) Execute(executionContext context.Context, command execshell.ShellCommand) (execkit.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, command)
	return execkit.ExecutionResult{ExitCode: executor.exitCode}, nil
}

func writeTaskfileFixture(testInstance *testing.T) string {
	taskfilePath := filepath.Join(testInstance.TempDir(), "tasks.yaml")
	require.NoError(testInstance, os.WriteFile(taskfilePath, []byte(testTaskfileContentsConstant), 0o600))
	return taskfilePath
}

func newTasksCommandFixture(testInstance *testing.T, executor *recordingExecutor) (*bytes.Buffer, func(arguments ...string) error) {
	toolContext, creationError := toolkit.NewContext(zap.NewNop(), executor, console.VerbosityNormal)
	require.NoError(testInstance, creationError)

	builder := taskcmd.CommandBuilder{}
	tasksCommand, buildError := builder.Build(func() *toolkit.Context { return toolContext })
	require.NoError(testInstance, buildError)

	commandOutput := &bytes.Buffer{}
	tasksCommand.SetOut(commandOutput)
	tasksCommand.SetErr(&bytes.Buffer{})

	return commandOutput, func(arguments ...string) error {
		tasksCommand.SetArgs(arguments)
		return tasksCommand.Execute()
	}
}

func TestBuildRequiresContextProvider(testInstance *testing.T) {
	_, buildError := taskcmd.CommandBuilder{}.Build(nil)
	require.Error(testInstance, buildError)
}

func TestTasksCommandListsDefinedTasks(testInstance *testing.T) {
	taskfilePath := writeTaskfileFixture(testInstance)
	executor := &recordingExecutor{}
	commandOutput, execute := newTasksCommandFixture(testInstance, executor)

	require.NoError(testInstance, execute("--file", taskfilePath))
	require.Equal(testInstance, testTaskListingConstant, commandOutput.String())
	require.Empty(testInstance, executor.recordedCommands)
}

func TestTasksCommandRunsNamedTask(testInstance *testing.T) {
	taskfilePath := writeTaskfileFixture(testInstance)
	executor := &recordingExecutor{}
	_, execute := newTasksCommandFixture(testInstance, executor)

	require.NoError(testInstance, execute("--file", taskfilePath, "check"))
	require.Len(testInstance, executor.recordedCommands, 1)
	require.Equal(testInstance, execshell.CommandName("gofmt"), executor.recordedCommands[0].Name)
}

func TestTasksCommandSurfacesTaskFailures(testInstance *testing.T) {
	taskfilePath := writeTaskfileFixture(testInstance)
	executor := &recordingExecutor{exitCode: 3}
	_, execute := newTasksCommandFixture(testInstance, executor)

	executionError := execute("--file", taskfilePath, "check")
	require.Error(testInstance, executionError)

	exitCodeError := toolkit.ExitCodeError{}
	require.ErrorAs(testInstance, executionError, &exitCodeError)
	require.Equal(testInstance, 3, exitCodeError.Code)
}

func TestTasksCommandReportsUnknownTask(testInstance *testing.T) {
	taskfilePath := writeTaskfileFixture(testInstance)
	executor := &recordingExecutor{}
	_, execute := newTasksCommandFixture(testInstance, executor)

	executionError := execute("--file", taskfilePath, "absent")
	require.ErrorIs(testInstance, executionError, taskfile.ErrTaskNotDefined)
}

func TestTasksCommandReportsMissingTaskfile(testInstance *testing.T) {
	executor := &recordingExecutor{}
	_, execute := newTasksCommandFixture(testInstance, executor)

	missingPath := filepath.Join(testInstance.TempDir(), "absent.yaml")
	require.Error(testInstance, execute("--file", missingPath))
}
