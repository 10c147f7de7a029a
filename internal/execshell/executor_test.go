package execshell_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toolr/toolr/internal/execkit"
	"github.com/toolr/toolr/internal/execshell"
)

const (
	testLoggerValidationCaseNameConstant     = "logger_validation"
	testEngineValidationCaseNameConstant     = "engine_validation"
	testSuccessfulInitializationCaseConstant = "successful_initialization"
	testExecutionSuccessCaseNameConstant     = "success"
	testExecutionNonZeroExitCaseNameConstant = "non_zero_exit"
	testExecutionEngineErrorCaseNameConstant = "engine_error"
	testCommandNameConstant                  = "formatter"
	testCommandArgumentConstant              = "--check"
	testWorkingDirectoryConstant             = "."
	testStreamedPayloadConstant              = "streamed chunk"
)

type recordingCommandEngine struct {
	executionResult  execkit.ExecutionResult
	executionError   error
	recordedRequests []execkit.CommandRequest
}

func (engine *recordingCommandEngine) Run(executionContext context.Context, request execkit.CommandRequest) (execkit.ExecutionResult, error) {
	engine.recordedRequests = append(engine.recordedRequests, request)
	if engine.executionError != nil {
		return execkit.ExecutionResult{}, engine.executionError
	}
	if request.LiveStandardOutputWriter != nil {
		_, _ = request.LiveStandardOutputWriter.Write([]byte(testStreamedPayloadConstant))
	}
	return engine.executionResult, nil
}

type recordingEventObserver struct {
	startedCommands  []execshell.ShellCommand
	completedResults []execkit.ExecutionResult
	failures         []error
}

func (observer *recordingEventObserver) CommandStarted(command execshell.ShellCommand) {
	observer.startedCommands = append(observer.startedCommands, command)
}

func (observer *recordingEventObserver) CommandCompleted(command execshell.ShellCommand, result execkit.ExecutionResult) {
	observer.completedResults = append(observer.completedResults, result)
}

func (observer *recordingEventObserver) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	observer.failures = append(observer.failures, failure)
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		engine        execshell.CommandEngine
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerValidationCaseNameConstant,
			logger:      nil,
			engine:      &recordingCommandEngine{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testEngineValidationCaseNameConstant,
			logger:      zap.NewNop(),
			engine:      nil,
			expectError: execshell.ErrEngineNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseConstant,
			logger:        zap.NewNop(),
			engine:        &recordingCommandEngine{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.engine)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	engineFailure := execkit.CommandExecutionError{CommandLabel: testCommandNameConstant, Cause: errors.New("spawn refused")}

	testCases := []struct {
		name             string
		engineResult     execkit.ExecutionResult
		engineError      error
		expectedLogCount int
		expectError      bool
	}{
		{
			name:             testExecutionSuccessCaseNameConstant,
			engineResult:     execkit.ExecutionResult{ExitCode: 0, StandardOutput: []byte("ok")},
			expectedLogCount: 2,
		},
		{
			name:             testExecutionNonZeroExitCaseNameConstant,
			engineResult:     execkit.ExecutionResult{ExitCode: 9, StandardError: []byte("broken")},
			expectedLogCount: 2,
		},
		{
			name:             testExecutionEngineErrorCaseNameConstant,
			engineError:      engineFailure,
			expectedLogCount: 2,
			expectError:      true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingEngine := &recordingCommandEngine{
				executionResult: testCase.engineResult,
				executionError:  testCase.engineError,
			}
			eventObserver := &recordingEventObserver{}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingEngine, execshell.WithObservers(eventObserver))
			require.NoError(testInstance, creationError)

			command := execshell.ShellCommand{
				Name: execshell.CommandName(testCommandNameConstant),
				Details: execshell.CommandDetails{
					Arguments:        []string{testCommandArgumentConstant},
					WorkingDirectory: testWorkingDirectoryConstant,
				},
			}
			executionResult, executionError := shellExecutor.Execute(context.Background(), command)

			require.Len(testInstance, eventObserver.startedCommands, 1)
			if testCase.expectError {
				require.Error(testInstance, executionError)
				require.Len(testInstance, eventObserver.failures, 1)
				require.Empty(testInstance, eventObserver.completedResults)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.engineResult.ExitCode, executionResult.ExitCode)
				require.Len(testInstance, eventObserver.completedResults, 1)
			}

			require.Len(testInstance, observedLogs.All(), testCase.expectedLogCount)
			require.Len(testInstance, recordingEngine.recordedRequests, 1)
			recordedRequest := recordingEngine.recordedRequests[0]
			require.Equal(testInstance, []string{testCommandNameConstant, testCommandArgumentConstant}, recordedRequest.Arguments)
		})
	}
}

func TestShellExecutorStreamingWiresConsoleWriters(testInstance *testing.T) {
	var consoleOutput bytes.Buffer
	recordingEngine := &recordingCommandEngine{}

	shellExecutor, creationError := execshell.NewShellExecutor(
		zap.NewNop(),
		recordingEngine,
		execshell.WithConsoleWriters(execkit.NewSynchronizedWriter(&consoleOutput), nil),
	)
	require.NoError(testInstance, creationError)

	streamingCommand := execshell.ShellCommand{
		Name:    execshell.CommandName(testCommandNameConstant),
		Details: execshell.CommandDetails{StreamOutput: true, WallClockTimeout: time.Second},
	}
	_, executionError := shellExecutor.Execute(context.Background(), streamingCommand)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, testStreamedPayloadConstant, consoleOutput.String())

	capturedOnlyCommand := execshell.ShellCommand{Name: execshell.CommandName(testCommandNameConstant)}
	_, executionError = shellExecutor.Execute(context.Background(), capturedOnlyCommand)
	require.NoError(testInstance, executionError)

	require.Len(testInstance, recordingEngine.recordedRequests, 2)
	require.NotNil(testInstance, recordingEngine.recordedRequests[0].LiveStandardOutputWriter)
	require.Nil(testInstance, recordingEngine.recordedRequests[1].LiveStandardOutputWriter)
	require.Equal(testInstance, time.Second, recordingEngine.recordedRequests[0].WallClockTimeout)
}
