package execkit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	terminateFailedMessageConstant = "graceful termination failed"
	killFailedMessageConstant      = "forceful kill failed"
	logFieldCommandConstant        = "command"
)

// EngineOption customizes a ProcessEngine.
type EngineOption func(engine *ProcessEngine)

// WithTerminationGracePeriod overrides the pause between the graceful and
// forceful stop attempts when a deadline fires.
func WithTerminationGracePeriod(gracePeriod time.Duration) EngineOption {
	return func(engine *ProcessEngine) {
		if gracePeriod > 0 {
			engine.terminationGracePeriod = gracePeriod
		}
	}
}

// ProcessEngine runs command requests to completion, cancellation, or
// failure. Engines are stateless between invocations and safe for
// concurrent use; each Run owns its handle, pump, and supervisor.
type ProcessEngine struct {
	logger                 *zap.Logger
	terminationGracePeriod time.Duration
}

// NewProcessEngine constructs an engine. The logger is used only for
// best-effort cleanup diagnostics; a nil logger is replaced with a no-op.
func NewProcessEngine(logger *zap.Logger, options ...EngineOption) *ProcessEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := &ProcessEngine{
		logger:                 logger,
		terminationGracePeriod: defaultTerminationGracePeriodConstant,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// waitOutcome bridges the blocking drain-then-reap sequence back to the
// controller's select loop.
type waitOutcome struct {
	exitCode  int
	waitError error
}

// Run executes the request and returns its result or exactly one typed
// error. The controller spawns the child, starts the output pump and the
// timeout supervisor, and multiplexes five events: child exit, wall-clock
// expiry, idle expiry, destination write failure, and context cancellation.
// Whatever happens, the child process tree is terminated and reaped before
// Run returns; cancellation via the context follows the same teardown as a
// deadline and surfaces as a CommandExecutionError wrapping ctx.Err().
func (engine *ProcessEngine) Run(executionContext context.Context, request CommandRequest) (ExecutionResult, error) {
	if validationError := request.Validate(); validationError != nil {
		return ExecutionResult{}, CommandExecutionError{CommandLabel: request.CommandLabel(), Cause: validationError}
	}
	if executionContext == nil {
		executionContext = context.Background()
	}

	startedAt := time.Now()

	handle, standardOutputPipe, standardErrorPipe, spawnError := spawnProcess(request)
	if spawnError != nil {
		return ExecutionResult{}, CommandExecutionError{CommandLabel: request.CommandLabel(), Cause: spawnError}
	}

	supervisor := newTimeoutSupervisor(request.WallClockTimeout, request.IdleTimeout)
	defer supervisor.Stop()

	pump := newOutputPump()
	pump.Start(request, standardOutputPipe, standardErrorPipe, supervisor)

	// Pump completion must precede Wait: reaping closes the parent's pipe
	// ends, and the capture buffers are final once both drains return.
	waitChannel := make(chan waitOutcome, 1)
	go func() {
		pump.Wait()
		exitCode, waitError := handle.Wait()
		waitChannel <- waitOutcome{exitCode: exitCode, waitError: waitError}
	}()

	for {
		select {
		case outcome := <-waitChannel:
			return engine.finishCompleted(request, pump, startedAt, outcome)

		case <-supervisor.WallDeadline():
			// A clean exit observed before the cancellation request wins.
			if outcome, alreadyExited := takeCompletedOutcome(waitChannel); alreadyExited {
				return engine.finishCompleted(request, pump, startedAt, outcome)
			}
			outcome := engine.stopProcessTree(request, handle, waitChannel)
			return ExecutionResult{}, WallClockTimeoutError{
				CommandLabel:  request.CommandLabel(),
				Timeout:       request.WallClockTimeout,
				Elapsed:       time.Since(startedAt),
				PartialResult: buildResult(pump, startedAt, outcome.exitCode),
			}

		case <-supervisor.IdleDeadline():
			if !supervisor.ConfirmIdleExpiry() {
				continue
			}
			if outcome, alreadyExited := takeCompletedOutcome(waitChannel); alreadyExited {
				return engine.finishCompleted(request, pump, startedAt, outcome)
			}
			outcome := engine.stopProcessTree(request, handle, waitChannel)
			return ExecutionResult{}, IdleTimeoutError{
				CommandLabel:  request.CommandLabel(),
				IdleTimeout:   request.IdleTimeout,
				Elapsed:       time.Since(startedAt),
				PartialResult: buildResult(pump, startedAt, outcome.exitCode),
			}

		case <-pump.FailureSignal():
			engine.stopProcessTree(request, handle, waitChannel)
			return ExecutionResult{}, CommandExecutionError{CommandLabel: request.CommandLabel(), Cause: pump.Failure()}

		case <-executionContext.Done():
			engine.stopProcessTree(request, handle, waitChannel)
			return ExecutionResult{}, CommandExecutionError{CommandLabel: request.CommandLabel(), Cause: executionContext.Err()}
		}
	}
}

// finishCompleted assembles the terminal state for a child that exited on
// its own. A destination write failure that raced completion still surfaces
// as a generic error; the child is already reaped at this point.
func (engine *ProcessEngine) finishCompleted(request CommandRequest, pump *outputPump, startedAt time.Time, outcome waitOutcome) (ExecutionResult, error) {
	if outcome.waitError != nil {
		return ExecutionResult{}, CommandExecutionError{CommandLabel: request.CommandLabel(), Cause: outcome.waitError}
	}
	if pumpFailure := pump.Failure(); pumpFailure != nil {
		return ExecutionResult{}, CommandExecutionError{CommandLabel: request.CommandLabel(), Cause: pumpFailure}
	}
	return buildResult(pump, startedAt, outcome.exitCode), nil
}

// stopProcessTree drives the two-phase stop: graceful terminate, a bounded
// grace interval, then a forceful kill of the whole tree. It returns only
// after the wait bridge delivers, which guarantees the child is reaped.
// Cleanup failures are logged best-effort and never mask the primary error.
func (engine *ProcessEngine) stopProcessTree(request CommandRequest, handle *processHandle, waitChannel <-chan waitOutcome) waitOutcome {
	if terminateError := handle.Terminate(); terminateError != nil {
		engine.logger.Warn(terminateFailedMessageConstant, zap.String(logFieldCommandConstant, request.CommandLabel()), zap.Error(terminateError))
	}

	graceTimer := time.NewTimer(engine.terminationGracePeriod)
	defer graceTimer.Stop()
	select {
	case outcome := <-waitChannel:
		return outcome
	case <-graceTimer.C:
	}

	// Some processes trap the graceful signal; correctness does not depend
	// on their cooperation.
	if killError := handle.Kill(); killError != nil {
		engine.logger.Warn(killFailedMessageConstant, zap.String(logFieldCommandConstant, request.CommandLabel()), zap.Error(killError))
	}

	return <-waitChannel
}

// takeCompletedOutcome reports whether the child already exited, without
// blocking. Used to break ties in favor of a clean exit when a deadline
// fires in the same instant.
func takeCompletedOutcome(waitChannel <-chan waitOutcome) (waitOutcome, bool) {
	select {
	case outcome := <-waitChannel:
		return outcome, true
	default:
		return waitOutcome{}, false
	}
}

func buildResult(pump *outputPump, startedAt time.Time, exitCode int) ExecutionResult {
	return ExecutionResult{
		ExitCode:       exitCode,
		StandardOutput: pump.CapturedStandardOutput(),
		StandardError:  pump.CapturedStandardError(),
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
	}
}
