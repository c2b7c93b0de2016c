// Package watcher implements the three watcher primitives: IoWatcher,
// TimerWatcher and SignalWatcher. Each wraps a single reactor
// registration behind an idempotent Setup/Cancel pair and reports
// readiness to a WatcherHandler together with an opaque payload
// identifying the watcher's owner.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package watcher

import (
	"github.com/momentics/squallgo/api"
)

// IO wraps a single reactor I/O readiness registration.
type IO struct {
	reactor api.Reactor
	handler api.WatcherHandler
	payload any

	reg  api.Registration
	fd   int
	mode api.EventKind
}

var _ api.IOWatcher = (*IO)(nil)

// NewIO constructs an inactive IO watcher. handler is invoked with
// payload on every fire; payload conventionally identifies the owning
// buffer or dispatcher context so handlers never need to close over
// their owner (see DESIGN.md on cyclic callback graphs).
func NewIO(reactor api.Reactor, handler api.WatcherHandler, payload any) *IO {
	return &IO{reactor: reactor, handler: handler, payload: payload, fd: -1}
}

// Active implements api.Watcher.
func (w *IO) Active() bool { return w.reg != nil }

// Fd implements api.IOWatcher.
func (w *IO) Fd() int { return w.fd }

// Mode implements api.IOWatcher.
func (w *IO) Mode() api.EventKind { return w.mode }

// Setup implements api.IOWatcher. Re-setup on an active watcher cancels
// the previous registration first, so the reactor only ever sees one
// live registration per watcher.
func (w *IO) Setup(fd int, mode api.EventKind) (bool, error) {
	if w.Active() {
		w.Cancel()
	}
	if fd < 0 || mode == 0 {
		return false, api.NewCannotSetupWatchingError("io", nil)
	}
	reg, err := w.reactor.RegisterIO(fd, mode, func(revents api.EventKind) {
		w.handler(revents, w.payload)
	})
	if err != nil {
		return false, api.NewCannotSetupWatchingError("io", err)
	}
	w.reg, w.fd, w.mode = reg, fd, mode
	return true, nil
}

// Cancel implements api.Watcher.
func (w *IO) Cancel() bool {
	if !w.Active() {
		return false
	}
	w.reg.Cancel()
	w.reg, w.fd, w.mode = nil, -1, 0
	return true
}
