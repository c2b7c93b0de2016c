// Package buffer implements the flow-controlled streaming buffers:
// IncomingBuffer and OutcomingBuffer, both built on a shared baseBuffer
// contract.
//
// Block-size/max-size invariants, a single-shot on_event task handler, a
// resume/pause pair guarded against redundant flow-control calls, and a
// closed dispatch - one HandleReady per direction rather than a virtual
// process_buffer override.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package buffer

import (
	"fmt"

	"github.com/momentics/squallgo/api"
	"github.com/momentics/squallgo/pool"
)

// baseBuffer is the shared state and mechanics of both buffer directions.
// It never owns a watcher: readiness is pushed into it by whatever owns
// the watcher, and flow control runs the other way, through flowCtrl.
type baseBuffer struct {
	flowCtrl  api.FlowControl
	store     *byteQueue
	blocks    *pool.BlockPool
	blockSize int
	maxSize   int
	paused    bool
	lastError int
	released  bool

	onEvent api.BufferHandler
}

func newBaseBuffer(flowCtrl api.FlowControl, blockSize, maxSize int) (*baseBuffer, error) {
	if blockSize <= 0 || blockSize >= maxSize || blockSize%8 != 0 || maxSize%blockSize != 0 {
		return nil, fmt.Errorf("buffer: invalid block_size=%d max_size=%d", blockSize, maxSize)
	}
	blocks := pool.NewBlockPool(blockSize)
	return &baseBuffer{
		flowCtrl:  flowCtrl,
		store:     newByteQueue(blocks.Put),
		blocks:    blocks,
		blockSize: blockSize,
		maxSize:   maxSize,
		paused:    true,
	}, nil
}

// Active reports whether a task is currently pending.
func (b *baseBuffer) Active() bool { return b.onEvent != nil }

// Running reports whether the underlying watcher is currently armed.
func (b *baseBuffer) Running() bool { return !b.paused }

// Size returns the number of bytes currently buffered.
func (b *baseBuffer) Size() int { return b.store.Len() }

// LastError returns the errno-like code from the most recent transfer
// error, or 0.
func (b *baseBuffer) LastError() int { return b.lastError }

// Cancel clears any pending task. No completion event is delivered.
func (b *baseBuffer) Cancel() {
	b.onEvent = nil
}

// cleanup delivers a final CLEANUP event to any pending task, cancels it,
// discards all buffered bytes, and releases the buffer: once cleanup has
// run, Setup must never arm another task on it.
func (b *baseBuffer) cleanup() {
	if b.onEvent != nil {
		handler := b.onEvent
		handler(api.Cleanup)
	}
	b.Cancel()
	b.store.Clear()
	b.released = true
}

// setupGuard reports whether Setup may proceed, returning
// CannotSetupWatchingError if cleanup has already released this buffer.
func (b *baseBuffer) setupGuard(kind string) error {
	if b.released {
		return api.NewCannotSetupWatchingError(kind, nil)
	}
	return nil
}

func (b *baseBuffer) resume() {
	if b.paused {
		b.paused = !b.flowCtrl(true)
	}
}

func (b *baseBuffer) pause() {
	if !b.paused {
		b.paused = b.flowCtrl(false)
	}
}
