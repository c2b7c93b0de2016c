// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import "github.com/momentics/squallgo/api"

// OutcomingBuffer queues bytes for delivery through a Transmitter, notifying
// a task handler once the queued size drops to or below a threshold.
type OutcomingBuffer struct {
	*baseBuffer
	transmitter api.Transmitter
	threshold   int
}

// NewOutcomingBuffer constructs an OutcomingBuffer that flushes through
// transmitter in blocks of blockSize, buffering up to maxSize bytes.
// flowCtrl arms (true) or disarms (false) the caller's write-readiness
// watcher and reports whether the request succeeded.
func NewOutcomingBuffer(transmitter api.Transmitter, flowCtrl api.FlowControl, blockSize, maxSize int) (*OutcomingBuffer, error) {
	base, err := newBaseBuffer(flowCtrl, blockSize, maxSize)
	if err != nil {
		return nil, err
	}
	b := &OutcomingBuffer{baseBuffer: base, transmitter: transmitter}
	b.resume()
	return b, nil
}

// LastResult evaluates the pending task's predicate against the buffer's
// current state without side effects: 1 once size() <= threshold and a
// task is pending, else 0.
func (b *OutcomingBuffer) LastResult() int {
	if b.Active() && b.Size() <= b.threshold {
		return 1
	}
	return 0
}

// Setup installs a new task, replacing any pending one. threshold is
// clamped to [0, maxSize-blockSize]. Returns the early result: nonzero
// means the task is already satisfied without waiting on any further
// readiness event. Setup on a buffer already released by Cleanup returns
// a CannotSetupWatchingError.
func (b *OutcomingBuffer) Setup(handler api.BufferHandler, threshold int) (int, error) {
	if err := b.setupGuard("outcoming"); err != nil {
		return 0, err
	}
	b.Cancel()
	ceiling := b.maxSize - b.blockSize
	if threshold > ceiling {
		threshold = ceiling
	}
	if threshold < 0 {
		threshold = 0
	}
	b.threshold = threshold
	b.onEvent = handler
	early := b.LastResult()
	if early == 0 {
		b.resume()
	}
	return early, nil
}

// Write enqueues as much of data as fits within maxSize, returning the
// number of bytes accepted.
func (b *OutcomingBuffer) Write(data []byte) int {
	number := b.maxSize - b.Size()
	if number > len(data) {
		number = len(data)
	}
	if number <= 0 {
		return 0
	}
	for off := 0; off < number; off += b.blockSize {
		end := off + b.blockSize
		if end > number {
			end = number
		}
		block := b.blocks.Get()[:end-off]
		copy(block, data[off:end])
		b.store.PushBlock(block)
	}
	b.resume()
	return number
}

// HandleReady processes one readiness notification. A revents with neither
// api.Write nor api.Error set is ignored; any other value that is not
// exactly api.Write is handled as an error and skips the transmit. It
// performs at most one bounded transmit, updates pause state,
// and - if a task is pending and the resulting revents is nonzero -
// invokes the task handler exactly once.
func (b *OutcomingBuffer) HandleReady(revents api.EventKind) {
	if revents&(api.Write|api.Error) == 0 {
		return
	}
	b.lastError = 0
	if revents == api.Write {
		revents = 0
		number := b.blockSize
		if number > b.Size() {
			number = b.Size()
		}
		if number > 0 {
			chunk := b.store.PeekBytes(number)
			n, errno := b.transmitter(chunk)
			if n > 0 {
				b.store.Discard(n)
			}
			// errno > 0 is a transport error even on a partial or full
			// write; n == 0 alone is an error too.
			if n == 0 || errno > 0 {
				revents = api.Buffer | api.Error
				if errno > 0 {
					b.lastError = errno
				}
			}
		}
	} else {
		revents = api.Error
	}

	if revents&api.Error != 0 || b.Size() == 0 {
		b.pause()
	}

	if b.onEvent == nil {
		return
	}
	callback := b.onEvent
	if revents&api.Error == 0 {
		if b.LastResult() > 0 {
			revents = api.Buffer | api.Write
		} else {
			revents = 0
		}
	}
	if revents == 0 {
		return
	}
	// Completion or error clears on_event: the same task never fires twice.
	b.Cancel()
	callback(revents)
}

// Cleanup delivers a final CLEANUP event to any pending task, cancels it,
// and discards all buffered bytes.
func (b *OutcomingBuffer) Cleanup() { b.cleanup() }
