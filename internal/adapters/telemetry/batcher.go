package telemetry

import (
	"sync"
	"time"

	"go.trai.ch/zerr"
)

// BatchProcessor buffers io.Writer input and flushes it either once it
// exceeds sizeLimit bytes or every timeLimit, whichever comes first. It's
// used to batch a target's streamed stdout/stderr before handing it to a
// span or console formatter, so a chatty command doesn't emit one event
// per byte.
type BatchProcessor struct {
	sizeLimit int
	timeLimit time.Duration
	flush     func([]byte)

	mu     sync.Mutex
	buf    []byte
	closed bool
	timer  *time.Timer
}

// NewBatchProcessor creates a BatchProcessor that calls flushFn with
// accumulated bytes whenever sizeLimit is exceeded or timeLimit elapses.
func NewBatchProcessor(sizeLimit int, timeLimit time.Duration, flushFn func([]byte)) *BatchProcessor {
	bp := &BatchProcessor{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		flush:     flushFn,
	}
	bp.timer = time.AfterFunc(timeLimit, bp.onTimer)
	return bp
}

func (bp *BatchProcessor) onTimer() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return
	}
	bp.flushLocked()
	bp.timer.Reset(bp.timeLimit)
}

// Write appends p to the buffer, flushing synchronously if sizeLimit is
// exceeded. It returns an error once the processor has been closed.
func (bp *BatchProcessor) Write(p []byte) (int, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, zerr.New("write to closed batch processor")
	}

	bp.buf = append(bp.buf, p...)
	if len(bp.buf) > bp.sizeLimit {
		bp.flushLocked()
	}
	return len(p), nil
}

// Flush forces any buffered bytes out immediately.
func (bp *BatchProcessor) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.flushLocked()
}

func (bp *BatchProcessor) flushLocked() {
	if len(bp.buf) == 0 {
		return
	}
	data := bp.buf
	bp.buf = nil
	bp.flush(data)
}

// Close flushes any remaining buffered bytes and stops the flush timer.
// Subsequent Write calls return an error.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return nil
	}
	bp.closed = true
	bp.timer.Stop()
	bp.flushLocked()
	return nil
}
