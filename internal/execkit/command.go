package execkit

import (
	"errors"
	"io"
	"strings"
	"time"
)

const (
	emptyArgumentVectorMessageConstant    = "command request requires a non-empty argument vector"
	commandLabelJoinSeparatorConstant     = " "
	unnamedCommandLabelConstant           = "(unnamed command)"
	environmentAssignmentTemplateConstant = "%s=%s"
)

// ErrEmptyArgumentVector reports a request that names no executable.
var ErrEmptyArgumentVector = errors.New(emptyArgumentVectorMessageConstant)

// CommandRequest describes a single child process invocation. The first
// argument names the executable and is resolved through the host's standard
// executable-search rule. The request is treated as immutable once passed to
// ProcessEngine.Run.
type CommandRequest struct {
	// Arguments is the argument vector; Arguments[0] is the executable.
	Arguments []string
	// WorkingDirectory optionally overrides the child's working directory.
	WorkingDirectory string
	// EnvironmentVariables are superimposed on the inherited host
	// environment; the host environment is never replaced wholesale.
	EnvironmentVariables map[string]string
	// StandardInput, when non-nil, is delivered on the child's standard
	// input which is then closed. A nil payload inherits the host stdin.
	StandardInput []byte
	// CaptureStandardOutputWriter and CaptureStandardErrorWriter receive a
	// synchronous duplicate of every captured chunk.
	CaptureStandardOutputWriter io.Writer
	CaptureStandardErrorWriter  io.Writer
	// LiveStandardOutputWriter and LiveStandardErrorWriter represent the
	// host's own console and receive chunks as they arrive.
	LiveStandardOutputWriter io.Writer
	LiveStandardErrorWriter  io.Writer
	// WallClockTimeout bounds the total invocation duration; zero disables it.
	WallClockTimeout time.Duration
	// IdleTimeout bounds the gap between successive output chunks on either
	// stream; zero disables it.
	IdleTimeout time.Duration
}

// Validate confirms the request can be spawned.
func (request CommandRequest) Validate() error {
	if len(request.Arguments) == 0 {
		return ErrEmptyArgumentVector
	}
	return nil
}

// CommandLabel renders the argument vector for diagnostics and error
// messages.
func (request CommandRequest) CommandLabel() string {
	if len(request.Arguments) == 0 {
		return unnamedCommandLabelConstant
	}
	return strings.Join(request.Arguments, commandLabelJoinSeparatorConstant)
}
