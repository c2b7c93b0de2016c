// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package watcher

import (
	"github.com/momentics/squallgo/api"
)

// Signal wraps a single reactor OS-signal registration.
type Signal struct {
	reactor api.Reactor
	handler api.WatcherHandler
	payload any

	reg    api.Registration
	signum int
}

var _ api.SignalWatcher = (*Signal)(nil)

// NewSignal constructs an inactive Signal watcher.
func NewSignal(reactor api.Reactor, handler api.WatcherHandler, payload any) *Signal {
	return &Signal{reactor: reactor, handler: handler, payload: payload}
}

// Active implements api.Watcher.
func (w *Signal) Active() bool { return w.reg != nil }

// Setup implements api.SignalWatcher.
func (w *Signal) Setup(signum int) (bool, error) {
	if w.Active() {
		w.Cancel()
	}
	if signum <= 0 {
		return false, api.NewCannotSetupWatchingError("signal", nil)
	}
	reg, err := w.reactor.RegisterSignal(signum, func(revents api.EventKind) {
		w.handler(revents, w.payload)
	})
	if err != nil {
		return false, api.NewCannotSetupWatchingError("signal", err)
	}
	w.reg, w.signum = reg, signum
	return true, nil
}

// Cancel implements api.Watcher.
func (w *Signal) Cancel() bool {
	if !w.Active() {
		return false
	}
	w.reg.Cancel()
	w.reg, w.signum = nil, 0
	return true
}
