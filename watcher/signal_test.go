// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package watcher

import (
	"testing"
	"time"

	"github.com/momentics/squallgo/api"
	"github.com/momentics/squallgo/reactor/reactortest"
)

func TestSignal_FireDelivers(t *testing.T) {
	r := reactortest.New(time.Unix(0, 0))
	var got api.EventKind
	var payload any
	w := NewSignal(r, func(revents api.EventKind, p any) { got, payload = revents, p }, "ctx-1")

	if ok, err := w.Setup(2); !ok || err != nil { // SIGINT
		t.Fatalf("Setup failed: ok=%v err=%v", ok, err)
	}

	r.FireSignal(2)

	if got != api.Signal {
		t.Fatalf("expected Signal revents, got %s", got)
	}
	if payload != "ctx-1" {
		t.Fatalf("expected payload passthrough, got %v", payload)
	}
}
