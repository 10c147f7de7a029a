package execkit

import "time"

// ExecutionResult captures the observable outcome of a completed invocation.
// Any exit code, including a non-zero one, is a normal outcome; callers
// decide whether to treat it as failure.
type ExecutionResult struct {
	ExitCode       int
	StandardOutput []byte
	StandardError  []byte
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Duration reports the elapsed wall-clock time of the invocation.
func (result ExecutionResult) Duration() time.Duration {
	return result.FinishedAt.Sub(result.StartedAt)
}
