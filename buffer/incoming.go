// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import "github.com/momentics/squallgo/api"

// IncomingBuffer accumulates bytes delivered by a Receiver, watching for a
// delimiter match or a byte-count threshold.
type IncomingBuffer struct {
	*baseBuffer
	receiver  api.Receiver
	delimiter []byte
	threshold int
}

// NewIncomingBuffer constructs an IncomingBuffer that reads through
// receiver in blocks of blockSize, never exceeding maxSize bytes buffered.
// flowCtrl arms (true) or disarms (false) the caller's read-readiness
// watcher and reports whether the request succeeded.
func NewIncomingBuffer(receiver api.Receiver, flowCtrl api.FlowControl, blockSize, maxSize int) (*IncomingBuffer, error) {
	base, err := newBaseBuffer(flowCtrl, blockSize, maxSize)
	if err != nil {
		return nil, err
	}
	b := &IncomingBuffer{baseBuffer: base, receiver: receiver, threshold: maxSize}
	b.resume()
	return b, nil
}

// LastResult evaluates the pending task's predicate against the buffer's
// current state without side effects:
//
//   - no pending task: 0
//   - delimiter set and found: offset+len(delimiter) if that is < threshold,
//     else -1 (completion is impossible within threshold: delimiter overflow)
//   - delimiter set and not found: -1 once size() >= threshold, else 0
//   - no delimiter: threshold once size() >= threshold, else 0
func (b *IncomingBuffer) LastResult() int {
	if !b.Active() {
		return 0
	}
	if len(b.delimiter) > 0 {
		idx := b.store.IndexDelimiter(b.delimiter)
		if idx >= 0 {
			result := idx + len(b.delimiter)
			if result < b.threshold {
				return result
			}
			return -1
		}
		if b.Size() >= b.threshold {
			return -1
		}
		return 0
	}
	if b.Size() >= b.threshold {
		return b.threshold
	}
	return 0
}

// Setup installs a new task, replacing any pending one. delimiter may be
// nil for a pure threshold task. threshold is clamped to [0, maxSize].
// Returns the early result: nonzero means the task is already satisfied
// (or has already failed with delimiter-overflow) without waiting on any
// further readiness event. Setup on a buffer already released by Cleanup
// returns a CannotSetupWatchingError.
func (b *IncomingBuffer) Setup(handler api.BufferHandler, delimiter []byte, threshold int) (int, error) {
	if err := b.setupGuard("incoming"); err != nil {
		return 0, err
	}
	b.Cancel()
	if threshold > b.maxSize {
		threshold = b.maxSize
	}
	if threshold < 0 {
		threshold = 0
	}
	b.threshold = threshold
	if len(delimiter) == 0 {
		b.delimiter = nil
	} else {
		b.delimiter = append([]byte(nil), delimiter...)
	}
	b.onEvent = handler
	early := b.LastResult()
	if early == 0 {
		b.resume()
	}
	return early, nil
}

// Read dequeues up to number bytes, whatever is actually buffered.
func (b *IncomingBuffer) Read(number int) []byte {
	if number > b.Size() {
		number = b.Size()
	}
	if number <= 0 {
		return nil
	}
	out := b.store.PopBytes(number)
	b.resume()
	return out
}

// HandleReady processes one readiness notification. A revents with neither
// api.Read nor api.Error set is ignored; any other value that is not exactly
// api.Read is handled as an error and skips the receive. It performs at
// most one bounded receive, updates pause state,
// and - if a task is pending and the resulting revents is nonzero -
// invokes the task handler exactly once.
func (b *IncomingBuffer) HandleReady(revents api.EventKind) {
	if revents&(api.Read|api.Error) == 0 {
		return
	}
	b.lastError = 0
	if revents == api.Read {
		revents = 0
		number := b.maxSize - b.Size()
		if number > b.blockSize {
			number = b.blockSize
		}
		if number > 0 {
			tmp := b.blocks.Get()[:number]
			n, errno := b.receiver(tmp)
			if n > 0 {
				b.store.PushBlock(tmp[:n])
			} else {
				b.blocks.Put(tmp[:b.blockSize])
			}
			// errno > 0 is a transport error even when bytes were already
			// queued; n == 0 alone (a clean EOF) is an error too.
			if n == 0 || errno > 0 {
				revents = api.Buffer | api.Read | api.Error
				if errno > 0 {
					b.lastError = errno
				}
			}
		}
	} else {
		revents = api.Error
	}

	if revents&api.Error != 0 || b.Size() >= b.maxSize {
		b.pause()
	}

	if b.onEvent == nil {
		return
	}
	callback := b.onEvent
	if revents&api.Error == 0 {
		switch result := b.LastResult(); {
		case result > 0:
			revents = api.Buffer | api.Read
		case result < 0:
			revents = api.Buffer | api.Error | api.Read
		default:
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
func (b *IncomingBuffer) Cleanup() { b.cleanup() }
