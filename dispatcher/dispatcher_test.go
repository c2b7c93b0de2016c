// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatcher

import (
	"testing"
	"time"

	"github.com/momentics/squallgo/api"
	"github.com/momentics/squallgo/reactor/reactortest"
)

type event struct {
	ctx     string
	revents api.EventKind
}

func TestDispatcher_IOWatchingRoundtrip(t *testing.T) {
	r := reactortest.New(time.Unix(0, 0))
	var got []event
	d := New[string](r, func(ctx string, revents api.EventKind, payload any) {
		got = append(got, event{ctx, revents})
	})

	if err := d.SetupIOWatching("conn-1", 7, api.Read); err != nil {
		t.Fatalf("SetupIOWatching failed: %v", err)
	}
	r.Fire(7, api.Read)

	if len(got) != 1 || got[0] != (event{"conn-1", api.Read}) {
		t.Fatalf("unexpected events: %+v", got)
	}

	if !d.UpdateIOWatching("conn-1", api.Write) {
		t.Fatal("UpdateIOWatching should find the existing watcher")
	}
	r.Fire(7, api.Write)
	if got[len(got)-1] != (event{"conn-1", api.Write}) {
		t.Fatalf("expected updated mode to fire Write, got %+v", got[len(got)-1])
	}

	if !d.CancelIOWatching("conn-1") {
		t.Fatal("CancelIOWatching should report true for an existing watcher")
	}
	if d.CancelIOWatching("conn-1") {
		t.Fatal("second CancelIOWatching should report false")
	}
}

func TestDispatcher_TimerAndSignal(t *testing.T) {
	r := reactortest.New(time.Unix(0, 0))
	var got []event
	d := New[string](r, func(ctx string, revents api.EventKind, payload any) {
		got = append(got, event{ctx, revents})
	})

	if err := d.SetupTimerWatching("tick", time.Second); err != nil {
		t.Fatal(err)
	}
	if err := d.SetupSignalWatching("shutdown", 15); err != nil {
		t.Fatal(err)
	}

	r.AdvanceTime(time.Second)
	r.FireSignal(15)

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(got), got)
	}
	if got[0] != (event{"tick", api.Timeout}) {
		t.Fatalf("unexpected timer event: %+v", got[0])
	}
	if got[1] != (event{"shutdown", api.Signal}) {
		t.Fatalf("unexpected signal event: %+v", got[1])
	}
}

func TestDispatcher_ReleaseDeliversCleanupOncePerContext(t *testing.T) {
	r := reactortest.New(time.Unix(0, 0))
	var cleanups []string
	d := New[string](r, func(ctx string, revents api.EventKind, payload any) {
		if revents == api.Cleanup {
			cleanups = append(cleanups, ctx)
		}
	})

	d.SetupIOWatching("a", 1, api.Read)
	d.SetupTimerWatching("a", time.Second) // same ctx, two watcher kinds
	d.SetupIOWatching("b", 2, api.Read)

	d.Release()

	if len(cleanups) != 2 {
		t.Fatalf("expected one cleanup per distinct context, got %v", cleanups)
	}
	if d.Active() {
		t.Fatal("dispatcher should be inactive after Release")
	}

	d.Release() // idempotent
	if len(cleanups) != 2 {
		t.Fatal("second Release must not redeliver cleanup")
	}
}

func TestDispatcher_SharedLoopReturnsBoundReactor(t *testing.T) {
	r := reactortest.New(time.Unix(0, 0))
	d := New[string](r, func(ctx string, revents api.EventKind, payload any) {})

	if d.SharedLoop() != r {
		t.Fatal("SharedLoop() should return the reactor the Dispatcher was constructed with")
	}
}
