package execkit

import (
	"sync"
	"time"
)

const defaultTerminationGracePeriodConstant = 2 * time.Second

// timeoutSupervisor arms the two deadline policies for one invocation: an
// absolute wall-clock deadline fixed at start, and an idle deadline re-armed
// on every output chunk. Either elapsing before the child exits loses the
// race for the child.
type timeoutSupervisor struct {
	wallTimer   *time.Timer
	idleTimer   *time.Timer
	idleTimeout time.Duration

	activityMutex sync.Mutex
	lastActivity  time.Time
}

// newTimeoutSupervisor primes both configured deadlines; the idle deadline
// counts from start even before the first chunk arrives.
func newTimeoutSupervisor(wallClockTimeout time.Duration, idleTimeout time.Duration) *timeoutSupervisor {
	supervisor := &timeoutSupervisor{
		idleTimeout:  idleTimeout,
		lastActivity: time.Now(),
	}
	if wallClockTimeout > 0 {
		supervisor.wallTimer = time.NewTimer(wallClockTimeout)
	}
	if idleTimeout > 0 {
		supervisor.idleTimer = time.NewTimer(idleTimeout)
	}
	return supervisor
}

// WallDeadline exposes the wall-clock expiry channel; nil when unbounded,
// which blocks forever in a select.
func (supervisor *timeoutSupervisor) WallDeadline() <-chan time.Time {
	if supervisor.wallTimer == nil {
		return nil
	}
	return supervisor.wallTimer.C
}

// IdleDeadline exposes the idle expiry channel; nil when unbounded.
func (supervisor *timeoutSupervisor) IdleDeadline() <-chan time.Time {
	if supervisor.idleTimer == nil {
		return nil
	}
	return supervisor.idleTimer.C
}

// NoteActivity implements activityObserver: every chunk from either stream
// re-arms the idle deadline.
func (supervisor *timeoutSupervisor) NoteActivity(chunkSize int) {
	supervisor.activityMutex.Lock()
	defer supervisor.activityMutex.Unlock()
	supervisor.lastActivity = time.Now()
	if supervisor.idleTimer != nil {
		supervisor.idleTimer.Reset(supervisor.idleTimeout)
	}
}

// ConfirmIdleExpiry distinguishes a genuine idle expiry from a timer wakeup
// that raced a fresh chunk. The last-activity instant is authoritative; a
// racing wakeup re-arms the timer for the remaining window and reports
// false.
func (supervisor *timeoutSupervisor) ConfirmIdleExpiry() bool {
	supervisor.activityMutex.Lock()
	defer supervisor.activityMutex.Unlock()

	idleDuration := time.Since(supervisor.lastActivity)
	if idleDuration >= supervisor.idleTimeout {
		return true
	}
	supervisor.idleTimer.Reset(supervisor.idleTimeout - idleDuration)
	return false
}

// Stop releases both timers.
func (supervisor *timeoutSupervisor) Stop() {
	if supervisor.wallTimer != nil {
		supervisor.wallTimer.Stop()
	}
	supervisor.activityMutex.Lock()
	defer supervisor.activityMutex.Unlock()
	if supervisor.idleTimer != nil {
		supervisor.idleTimer.Stop()
	}
}
