package runcmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toolr/toolr/cmd/cli/runcmd"
	"github.com/toolr/toolr/internal/console"
	"github.com/toolr/toolr/internal/execkit"
	"github.com/toolr/toolr/internal/execshell"
	"github.com/toolr/toolr/internal/toolkit"
)

const (
	testChildExecutableConstant   = "formatter"
	testChildArgumentConstant     = "--check"
	testInputPayloadConstant      = "payload bytes"
	testWorkingDirectoryConstant  = "/tmp/project"
	testEnvironmentEntryConstant  = "MODE=strict"
	testMalformedEnvironmentEntry = "MODEstrict"
)

type recordingExecutor struct {
	recordedCommands []execshell.ShellCommand
	exitCode         int
}

func (executor *recordingExecutor) Execute(executionContext context.Context, command execshell.ShellCommand) (execkit.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, command)
	return execkit.ExecutionResult{ExitCode: executor.exitCode}, nil
}

func newRunCommandFixture(testInstance *testing.T, executor *recordingExecutor, configuration runcmd.CommandConfiguration) *cobra.Command {
	toolContext, creationError := toolkit.NewContext(zap.NewNop(), executor, console.VerbosityNormal)
	require.NoError(testInstance, creationError)

	builder := runcmd.CommandBuilder{
		ConfigurationProvider: func() runcmd.CommandConfiguration { return configuration },
	}
	runCommand, buildError := builder.Build(func() *toolkit.Context { return toolContext })
	require.NoError(testInstance, buildError)
	runCommand.SetOut(&bytes.Buffer{})
	runCommand.SetErr(&bytes.Buffer{})
	return runCommand
}

func TestBuildRequiresContextProvider(testInstance *testing.T) {
	_, buildError := runcmd.CommandBuilder{}.Build(nil)
	require.Error(testInstance, buildError)
}

func TestRunCommandForwardsFlagsToEngineRequest(testInstance *testing.T) {
	inputFilePath := filepath.Join(testInstance.TempDir(), "stdin.txt")
	require.NoError(testInstance, os.WriteFile(inputFilePath, []byte(testInputPayloadConstant), 0o600))

	executor := &recordingExecutor{}
	runCommand := newRunCommandFixture(testInstance, executor, runcmd.CommandConfiguration{StreamOutput: true})

	runCommand.SetArgs([]string{
		"--cwd", testWorkingDirectoryConstant,
		"--env", testEnvironmentEntryConstant,
		"--input", inputFilePath,
		"--timeout-secs", "1.5",
		"--idle-timeout-secs", "30",
		testChildExecutableConstant, testChildArgumentConstant,
	})
	require.NoError(testInstance, runCommand.Execute())

	require.Len(testInstance, executor.recordedCommands, 1)
	recordedCommand := executor.recordedCommands[0]
	require.Equal(testInstance, execshell.CommandName(testChildExecutableConstant), recordedCommand.Name)
	require.Equal(testInstance, []string{testChildArgumentConstant}, recordedCommand.Details.Arguments)
	require.Equal(testInstance, testWorkingDirectoryConstant, recordedCommand.Details.WorkingDirectory)
	require.Equal(testInstance, map[string]string{"MODE": "strict"}, recordedCommand.Details.EnvironmentVariables)
	require.Equal(testInstance, []byte(testInputPayloadConstant), recordedCommand.Details.StandardInput)
	require.Equal(testInstance, 1500*time.Millisecond, recordedCommand.Details.WallClockTimeout)
	require.Equal(testInstance, 30*time.Second, recordedCommand.Details.IdleTimeout)
	require.True(testInstance, recordedCommand.Details.StreamOutput)
}

func TestRunCommandAppliesConfigurationDefaults(testInstance *testing.T) {
	executor := &recordingExecutor{}
	configuration := runcmd.CommandConfiguration{
		TimeoutSeconds:     60,
		IdleTimeoutSeconds: 5,
		StreamOutput:       false,
	}
	runCommand := newRunCommandFixture(testInstance, executor, configuration)

	runCommand.SetArgs([]string{testChildExecutableConstant})
	require.NoError(testInstance, runCommand.Execute())

	require.Len(testInstance, executor.recordedCommands, 1)
	recordedCommand := executor.recordedCommands[0]
	require.Equal(testInstance, time.Minute, recordedCommand.Details.WallClockTimeout)
	require.Equal(testInstance, 5*time.Second, recordedCommand.Details.IdleTimeout)
	require.False(testInstance, recordedCommand.Details.StreamOutput)
}

func TestRunCommandStreamToggleOverridesConfiguration(testInstance *testing.T) {
	executor := &recordingExecutor{}
	runCommand := newRunCommandFixture(testInstance, executor, runcmd.CommandConfiguration{StreamOutput: true})

	runCommand.SetArgs([]string{"--stream=no", testChildExecutableConstant})
	require.NoError(testInstance, runCommand.Execute())

	require.Len(testInstance, executor.recordedCommands, 1)
	require.False(testInstance, executor.recordedCommands[0].Details.StreamOutput)
}

func TestRunCommandPropagatesChildExitCode(testInstance *testing.T) {
	executor := &recordingExecutor{exitCode: 9}
	runCommand := newRunCommandFixture(testInstance, executor, runcmd.CommandConfiguration{StreamOutput: true})

	runCommand.SetArgs([]string{testChildExecutableConstant})
	executionError := runCommand.Execute()
	require.Error(testInstance, executionError)

	exitCodeError := toolkit.ExitCodeError{}
	require.ErrorAs(testInstance, executionError, &exitCodeError)
	require.Equal(testInstance, 9, exitCodeError.Code)
}

func TestRunCommandRejectsMalformedEnvironmentOverrides(testInstance *testing.T) {
	executor := &recordingExecutor{}
	runCommand := newRunCommandFixture(testInstance, executor, runcmd.CommandConfiguration{StreamOutput: true})

	runCommand.SetArgs([]string{"--env", testMalformedEnvironmentEntry, testChildExecutableConstant})
	require.Error(testInstance, runCommand.Execute())
	require.Empty(testInstance, executor.recordedCommands)
}

func TestRunCommandReadsStandardInputPassthrough(testInstance *testing.T) {
	executor := &recordingExecutor{}
	runCommand := newRunCommandFixture(testInstance, executor, runcmd.CommandConfiguration{StreamOutput: true})

	runCommand.SetIn(bytes.NewBufferString(testInputPayloadConstant))
	runCommand.SetArgs([]string{"--input", "-", testChildExecutableConstant})
	require.NoError(testInstance, runCommand.Execute())

	require.Len(testInstance, executor.recordedCommands, 1)
	require.Equal(testInstance, []byte(testInputPayloadConstant), executor.recordedCommands[0].Details.StandardInput)
}
