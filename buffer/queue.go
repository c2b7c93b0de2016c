// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"bytes"

	"github.com/eapache/queue"
)

// byteQueue is a FIFO of byte blocks backing a Buffer's stored bytes. Each
// receive enqueues one block and a write enqueues one block per blockSize
// bytes it accepts, so transfers never require
// copying the already-stored bytes - only the blocks that actually change.
//
// It is built on eapache/queue, a ring-buffer-based FIFO of interface{},
// storing each block as a []byte element.
type byteQueue struct {
	q        *queue.Queue
	size     int
	frontOff int
	release  func([]byte)
}

// newByteQueue constructs an empty queue. release, if non-nil, is called
// with each block's original (full-capacity) slice once it has been fully
// drained and removed - the hook a block pool uses to recycle it.
func newByteQueue(release func([]byte)) *byteQueue {
	return &byteQueue{q: queue.New(), release: release}
}

// Len returns the total number of stored bytes across all blocks.
func (bq *byteQueue) Len() int { return bq.size }

// PushBlock enqueues b as a new trailing block. b is not copied; callers
// must not mutate it afterwards.
func (bq *byteQueue) PushBlock(b []byte) {
	if len(b) == 0 {
		return
	}
	bq.q.Add(b)
	bq.size += len(b)
}

// PopBytes dequeues up to n bytes, possibly spanning multiple blocks, and
// returns them as a freshly allocated slice. Returns fewer than n bytes if
// Len() < n.
func (bq *byteQueue) PopBytes(n int) []byte {
	if n > bq.size {
		n = bq.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]byte, 0, n)
	remaining := n
	for remaining > 0 {
		front := bq.q.Peek().([]byte)
		avail := front[bq.frontOff:]
		if len(avail) <= remaining {
			out = append(out, avail...)
			remaining -= len(avail)
			bq.q.Remove()
			bq.frontOff = 0
			if bq.release != nil {
				bq.release(front)
			}
		} else {
			out = append(out, avail[:remaining]...)
			bq.frontOff += remaining
			remaining = 0
		}
	}
	bq.size -= n
	return out
}

// PeekBytes returns up to n leading bytes without removing them.
func (bq *byteQueue) PeekBytes(n int) []byte {
	if n > bq.size {
		n = bq.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]byte, 0, n)
	remaining := n
	for idx := 0; remaining > 0; idx++ {
		block := bq.q.Get(idx).([]byte)
		avail := block
		if idx == 0 {
			avail = block[bq.frontOff:]
		}
		if len(avail) <= remaining {
			out = append(out, avail...)
			remaining -= len(avail)
		} else {
			out = append(out, avail[:remaining]...)
			remaining = 0
		}
	}
	return out
}

// Discard removes up to n leading bytes without returning them.
func (bq *byteQueue) Discard(n int) {
	bq.PopBytes(n)
}

// Clear empties the queue.
func (bq *byteQueue) Clear() {
	for bq.q.Length() > 0 {
		bq.q.Remove()
	}
	bq.size = 0
	bq.frontOff = 0
}

// IndexDelimiter returns the byte offset of the first occurrence of delim
// across the stored bytes, or -1 if absent.
func (bq *byteQueue) IndexDelimiter(delim []byte) int {
	if len(delim) == 0 || bq.size == 0 {
		return -1
	}
	return bytes.Index(bq.PeekBytes(bq.size), delim)
}
