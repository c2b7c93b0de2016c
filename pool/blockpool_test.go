// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "testing"

func TestBlockPool_GetReturnsExactSize(t *testing.T) {
	p := NewBlockPool(64)
	b := p.Get()
	if len(b) != 64 || cap(b) != 64 {
		t.Fatalf("got len=%d cap=%d, want 64/64", len(b), cap(b))
	}
	if p.BlockSize() != 64 {
		t.Fatalf("BlockSize() = %d, want 64", p.BlockSize())
	}
}

func TestBlockPool_PutRecyclesMatchingCapacity(t *testing.T) {
	p := NewBlockPool(32)
	b := p.Get()
	b[0] = 0xAB
	p.Put(b)

	got := p.Get()
	if len(got) != 32 {
		t.Fatalf("recycled block len = %d, want 32", len(got))
	}
}

func TestBlockPool_PutDropsWrongCapacity(t *testing.T) {
	p := NewBlockPool(16)
	wrong := make([]byte, 8)
	p.Put(wrong) // must not panic and must not be retained

	b := p.Get()
	if cap(b) != 16 {
		t.Fatalf("pool leaked a wrong-sized block: cap=%d", cap(b))
	}
}
