// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package watcher

import (
	"time"

	"github.com/momentics/squallgo/api"
)

// Timer wraps a single reactor timer registration.
type Timer struct {
	reactor api.Reactor
	handler api.WatcherHandler
	payload any

	reg api.Registration
}

var _ api.TimerWatcher = (*Timer)(nil)

// NewTimer constructs an inactive Timer watcher.
func NewTimer(reactor api.Reactor, handler api.WatcherHandler, payload any) *Timer {
	return &Timer{reactor: reactor, handler: handler, payload: payload}
}

// Active implements api.Watcher.
func (w *Timer) Active() bool { return w.reg != nil }

// Setup implements api.TimerWatcher. Re-setup restarts timing.
func (w *Timer) Setup(after, repeat time.Duration) (bool, error) {
	if w.Active() {
		w.Cancel()
	}
	if after < 0 {
		return false, api.NewCannotSetupWatchingError("timer", nil)
	}
	reg, err := w.reactor.RegisterTimer(after, repeat, func(revents api.EventKind) {
		w.handler(revents, w.payload)
	})
	if err != nil {
		return false, api.NewCannotSetupWatchingError("timer", err)
	}
	w.reg = reg
	return true, nil
}

// Cancel implements api.Watcher.
func (w *Timer) Cancel() bool {
	if !w.Active() {
		return false
	}
	w.reg.Cancel()
	w.reg = nil
	return true
}
