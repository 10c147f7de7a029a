package execkit

import (
	"bytes"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

const pumpReadBufferSizeConstant = 32 * 1024

// SynchronizedWriter serializes writes to a destination shared by concurrent
// invocations, such as the host's own console, so chunks from different
// commands never interleave mid-write.
type SynchronizedWriter struct {
	mutex  sync.Mutex
	target io.Writer
}

// NewSynchronizedWriter wraps the target in a mutual-exclusion writer.
func NewSynchronizedWriter(target io.Writer) *SynchronizedWriter {
	return &SynchronizedWriter{target: target}
}

// Write implements io.Writer under the writer's mutex.
func (writer *SynchronizedWriter) Write(payload []byte) (int, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()
	return writer.target.Write(payload)
}

// activityObserver receives a notification for every chunk either stream
// produces; the timeout supervisor uses it to re-arm the idle deadline.
type activityObserver interface {
	NoteActivity(chunkSize int)
}

// outputPump drains the child's standard output and standard error
// concurrently so that neither stream can stall the other or let the child
// block on a full pipe. Bytes within one stream preserve the child's write
// order; no ordering is promised between the two streams.
type outputPump struct {
	drainGroup           errgroup.Group
	standardOutputBuffer bytes.Buffer
	standardErrorBuffer  bytes.Buffer

	failureMutex  sync.Mutex
	firstFailure  error
	failureSignal chan struct{}
}

func newOutputPump() *outputPump {
	return &outputPump{failureSignal: make(chan struct{})}
}

// Start launches one drain goroutine per stream.
func (pump *outputPump) Start(request CommandRequest, standardOutput io.Reader, standardError io.Reader, observer activityObserver) {
	pump.drainGroup.Go(func() error {
		pump.drainStream(standardOutput, &pump.standardOutputBuffer, request.CaptureStandardOutputWriter, request.LiveStandardOutputWriter, observer)
		return nil
	})
	pump.drainGroup.Go(func() error {
		pump.drainStream(standardError, &pump.standardErrorBuffer, request.CaptureStandardErrorWriter, request.LiveStandardErrorWriter, observer)
		return nil
	})
}

// drainStream reads the stream to exhaustion. Every chunk is appended to the
// capture buffer, duplicated to the optional destinations, and reported as
// activity. A destination write failure is recorded once and the failing
// sink dropped, while draining continues so the child never blocks on
// backpressure during teardown. Read errors end the drain quietly: they
// occur when the child exits or is killed, and the exit status carries the
// outcome.
func (pump *outputPump) drainStream(stream io.Reader, captureBuffer *bytes.Buffer, captureWriter io.Writer, liveWriter io.Writer, observer activityObserver) {
	readBuffer := make([]byte, pumpReadBufferSizeConstant)

	for {
		bytesRead, readError := stream.Read(readBuffer)
		if bytesRead > 0 {
			chunk := readBuffer[:bytesRead]
			captureBuffer.Write(chunk)

			if captureWriter != nil {
				if _, writeError := captureWriter.Write(chunk); writeError != nil {
					pump.recordFailure(writeError)
					captureWriter = nil
				}
			}
			if liveWriter != nil {
				if _, writeError := liveWriter.Write(chunk); writeError != nil {
					pump.recordFailure(writeError)
					liveWriter = nil
				}
			}
			if observer != nil {
				observer.NoteActivity(bytesRead)
			}
		}
		if readError != nil {
			return
		}
	}
}

func (pump *outputPump) recordFailure(failure error) {
	pump.failureMutex.Lock()
	defer pump.failureMutex.Unlock()
	if pump.firstFailure == nil {
		pump.firstFailure = failure
		close(pump.failureSignal)
	}
}

// FailureSignal closes as soon as any destination write fails.
func (pump *outputPump) FailureSignal() <-chan struct{} {
	return pump.failureSignal
}

// Failure reports the first destination write failure, if any.
func (pump *outputPump) Failure() error {
	pump.failureMutex.Lock()
	defer pump.failureMutex.Unlock()
	return pump.firstFailure
}

// Wait blocks until both streams are fully drained.
func (pump *outputPump) Wait() {
	_ = pump.drainGroup.Wait()
}

// CapturedStandardOutput returns the stdout capture buffer. Valid only after
// Wait has returned.
func (pump *outputPump) CapturedStandardOutput() []byte {
	return pump.standardOutputBuffer.Bytes()
}

// CapturedStandardError returns the stderr capture buffer. Valid only after
// Wait has returned.
func (pump *outputPump) CapturedStandardError() []byte {
	return pump.standardErrorBuffer.Bytes()
}
