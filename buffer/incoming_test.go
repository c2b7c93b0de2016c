// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"bytes"
	"testing"

	"github.com/momentics/squallgo/api"
)

func alwaysArmed(bool) bool { return true }

func TestIncomingBuffer_ThresholdCompletion(t *testing.T) {
	source := []byte("abcdefgh")
	pos := 0
	receiver := func(dst []byte) (int, int) {
		n := copy(dst, source[pos:])
		pos += n
		return n, 0
	}
	b, err := NewIncomingBuffer(receiver, alwaysArmed, 8, 32)
	if err != nil {
		t.Fatal(err)
	}

	var fired api.EventKind
	early, err := b.Setup(func(revents api.EventKind) { fired = revents }, nil, 8)
	if err != nil {
		t.Fatal(err)
	}
	if early != 0 {
		t.Fatalf("expected early=0 (must wait), got %d", early)
	}

	b.HandleReady(api.Read)

	if fired != api.Buffer|api.Read {
		t.Fatalf("expected BUFFER|READ, got %s", fired)
	}
	if got := b.Read(8); !bytes.Equal(got, source) {
		t.Fatalf("Read returned %q, want %q", got, source)
	}
}

func TestIncomingBuffer_DelimiterMatch(t *testing.T) {
	source := []byte("hello\r\nworld")
	pos := 0
	receiver := func(dst []byte) (int, int) {
		n := copy(dst, source[pos:])
		pos += n
		return n, 0
	}
	b, err := NewIncomingBuffer(receiver, alwaysArmed, 8, 32)
	if err != nil {
		t.Fatal(err)
	}

	var fired api.EventKind
	if _, err := b.Setup(func(revents api.EventKind) { fired = revents }, []byte("\r\n"), 32); err != nil {
		t.Fatal(err)
	}
	b.HandleReady(api.Read) // first block: "hello\r\nw" (8 bytes)

	if fired != api.Buffer|api.Read {
		t.Fatalf("expected BUFFER|READ on delimiter match, got %s", fired)
	}
	if b.Active() {
		t.Fatal("on_event must be cleared after a successful delivery")
	}
	if got := b.LastResult(); got != 0 {
		t.Fatalf("LastResult on a cleared task should be 0, got %d", got)
	}
}

// TestIncomingBuffer_DelimiterOverflow exercises the case where the
// threshold is reached with no delimiter match found: the task completes
// through the success path (no transfer error at all) but LastResult's
// delimiter branch reports failure, so HandleReady still synthesizes
// BUFFER|ERROR|READ and LastError stays 0.
func TestIncomingBuffer_DelimiterOverflow(t *testing.T) {
	source := []byte("abcdefgh") // no "\r\n" anywhere
	pos := 0
	receiver := func(dst []byte) (int, int) {
		n := copy(dst, source[pos:])
		pos += n
		return n, 0
	}
	b, err := NewIncomingBuffer(receiver, alwaysArmed, 8, 32)
	if err != nil {
		t.Fatal(err)
	}

	var fired api.EventKind
	if _, err := b.Setup(func(revents api.EventKind) { fired = revents }, []byte("\r\n"), 8); err != nil {
		t.Fatal(err)
	}
	b.HandleReady(api.Read) // fills to threshold (8 bytes) with no delimiter match

	if fired != api.Buffer|api.Error|api.Read {
		t.Fatalf("expected BUFFER|ERROR|READ on delimiter overflow, got %s", fired)
	}
	if b.LastError() != 0 {
		t.Fatalf("delimiter overflow is not a transport error, expected lastError=0, got %d", b.LastError())
	}
	if b.Active() {
		t.Fatal("on_event must be cleared after delimiter-overflow delivery")
	}
}

// TestIncomingBuffer_PartialReadWithErrno covers a Receiver that returns
// bytes *and* a nonzero errno in the same call: the bytes must still be
// queued (so callers that already read them before re-arming don't lose
// data) but the error must surface too, rather than being masked by the
// n > 0 short-circuit.
func TestIncomingBuffer_PartialReadWithErrno(t *testing.T) {
	receiver := func(dst []byte) (int, int) {
		n := copy(dst, []byte("ab"))
		return n, 104
	}
	b, err := NewIncomingBuffer(receiver, alwaysArmed, 8, 32)
	if err != nil {
		t.Fatal(err)
	}

	var fired api.EventKind
	if _, err := b.Setup(func(revents api.EventKind) { fired = revents }, nil, 8); err != nil {
		t.Fatal(err)
	}
	b.HandleReady(api.Read)

	if fired != api.Buffer|api.Error|api.Read {
		t.Fatalf("expected BUFFER|ERROR|READ on partial read with errno, got %s", fired)
	}
	if b.LastError() != 104 {
		t.Fatalf("expected lastError=104, got %d", b.LastError())
	}
	if b.Size() != 2 {
		t.Fatalf("the 2 bytes received alongside the error must still be queued, got size=%d", b.Size())
	}
}

func TestIncomingBuffer_TransferError(t *testing.T) {
	receiver := func(dst []byte) (int, int) { return 0, 104 } // ECONNRESET-ish
	b, err := NewIncomingBuffer(receiver, alwaysArmed, 8, 32)
	if err != nil {
		t.Fatal(err)
	}

	var fired api.EventKind
	if _, err := b.Setup(func(revents api.EventKind) { fired = revents }, nil, 8); err != nil {
		t.Fatal(err)
	}
	b.HandleReady(api.Read)

	if fired != api.Buffer|api.Error|api.Read {
		t.Fatalf("expected BUFFER|ERROR|READ, got %s", fired)
	}
	if b.LastError() != 104 {
		t.Fatalf("expected lastError=104, got %d", b.LastError())
	}
	if b.Active() {
		t.Fatal("task should be cancelled after error delivery")
	}
}

func TestIncomingBuffer_EOFWithoutErrno(t *testing.T) {
	receiver := func(dst []byte) (int, int) { return 0, 0 }
	b, err := NewIncomingBuffer(receiver, alwaysArmed, 8, 32)
	if err != nil {
		t.Fatal(err)
	}

	var fired api.EventKind
	if _, err := b.Setup(func(revents api.EventKind) { fired = revents }, nil, 8); err != nil {
		t.Fatal(err)
	}
	b.HandleReady(api.Read)

	if fired != api.Buffer|api.Error|api.Read {
		t.Fatalf("expected BUFFER|ERROR|READ on EOF, got %s", fired)
	}
	if b.LastError() != 0 {
		t.Fatalf("expected lastError=0 on plain EOF, got %d", b.LastError())
	}
}

func TestIncomingBuffer_CleanupFiresOnce(t *testing.T) {
	receiver := func(dst []byte) (int, int) { return 0, 0 }
	b, err := NewIncomingBuffer(receiver, alwaysArmed, 8, 32)
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	if _, err := b.Setup(func(revents api.EventKind) {
		calls++
		if revents != api.Cleanup {
			t.Fatalf("expected CLEANUP, got %s", revents)
		}
	}, nil, 8); err != nil {
		t.Fatal(err)
	}

	b.Cleanup()
	b.Cleanup()

	if calls != 1 {
		t.Fatalf("expected exactly one cleanup delivery, got %d", calls)
	}

	if _, err := b.Setup(func(api.EventKind) {}, nil, 8); err == nil {
		t.Fatal("Setup on a released buffer must return an error")
	}
}
