// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

// BlockPool recycles byte slices of a single fixed size, the unit a
// streaming buffer moves between the wire and its internal queue.
//
// Adapted from the NUMA-aware, size-classed pooling in
// base_bufferpool.go: the channel-per-class registry there is collapsed
// to a single sync.Pool since squallgo buffers pool one block size each
// rather than arbitrary request sizes.
type BlockPool struct {
	blockSize int
	pool      sync.Pool
}

// NewBlockPool constructs a pool of blockSize-byte blocks.
func NewBlockPool(blockSize int) *BlockPool {
	return &BlockPool{
		blockSize: blockSize,
		pool: sync.Pool{
			New: func() any { return make([]byte, blockSize) },
		},
	}
}

// Get returns a block of exactly BlockSize() bytes, zeroed or recycled.
func (p *BlockPool) Get() []byte {
	return p.pool.Get().([]byte)[:p.blockSize]
}

// Put returns b to the pool. b must have been obtained from Get and not
// retained elsewhere afterwards. Slices of the wrong capacity are dropped.
func (p *BlockPool) Put(b []byte) {
	if cap(b) != p.blockSize {
		return
	}
	p.pool.Put(b[:p.blockSize])
}

// BlockSize returns the fixed block size this pool recycles.
func (p *BlockPool) BlockSize() int { return p.blockSize }
