package console_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toolr/toolr/internal/console"
	"github.com/toolr/toolr/internal/execkit"
	"github.com/toolr/toolr/internal/execshell"
)

const (
	testCommandNameConstant                 = "formatter"
	testCommandWorkingDirectoryConstant     = "/tmp/project"
	testCommandArgumentConstant             = "--check"
	testCommandNameFieldExpectationConstant = "formatter --check (in /tmp/project)"
	testExecutionFailureReasonConstant      = "execution failed"
	testStandardErrorMessageConstant        = "missing input file"
	testStartMessageExpectationConstant     = "Running " + testCommandNameFieldExpectationConstant
	testSuccessMessageExpectationConstant   = "Completed " + testCommandNameFieldExpectationConstant
	testFailureMessageExpectationConstant   = testCommandNameFieldExpectationConstant + " failed with exit code 1: " + testStandardErrorMessageConstant
	testExecutionFailureMessageExpectation  = testCommandNameFieldExpectationConstant + " failed: " + testExecutionFailureReasonConstant
	testWallTimeoutMessageExpectation       = testCommandNameFieldExpectationConstant + " timed out after 1.50 seconds"
	testIdleTimeoutMessageExpectation       = testCommandNameFieldExpectationConstant + " produced no output for 0.25 seconds"
)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name: execshell.CommandName(testCommandNameConstant),
		Details: execshell.CommandDetails{
			Arguments:        []string{testCommandArgumentConstant},
			WorkingDirectory: testCommandWorkingDirectoryConstant,
		},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *console.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "command_started",
			invoke: func(logger *console.ConsoleCommandEventLogger) {
				logger.CommandStarted(command)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testStartMessageExpectationConstant,
		},
		{
			name: "command_completed_success",
			invoke: func(logger *console.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execkit.ExecutionResult{ExitCode: 0})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testSuccessMessageExpectationConstant,
		},
		{
			name: "command_completed_failure",
			invoke: func(logger *console.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execkit.ExecutionResult{ExitCode: 1, StandardError: []byte(testStandardErrorMessageConstant)})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: testFailureMessageExpectationConstant,
		},
		{
			name: "command_execution_failure",
			invoke: func(logger *console.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, errors.New(testExecutionFailureReasonConstant))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testExecutionFailureMessageExpectation,
		},
		{
			name: "command_wall_clock_timeout",
			invoke: func(logger *console.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, execkit.WallClockTimeoutError{
					CommandLabel: testCommandNameConstant,
					Timeout:      1500 * time.Millisecond,
				})
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testWallTimeoutMessageExpectation,
		},
		{
			name: "command_idle_timeout",
			invoke: func(logger *console.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, execkit.IdleTimeoutError{
					CommandLabel: testCommandNameConstant,
					IdleTimeout:  250 * time.Millisecond,
				})
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testIdleTimeoutMessageExpectation,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			consoleLogger := zap.New(observerCore)
			eventLogger := console.NewConsoleCommandEventLogger(consoleLogger)

			testCase.invoke(eventLogger)

			entries := observedLogs.All()
			require.Len(testInstance, entries, 1)
			require.Equal(testInstance, testCase.expectedLevel, entries[0].Level)
			require.Equal(testInstance, testCase.expectedMessage, entries[0].Message)
		})
	}
}
