// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "time"

// WatcherHandler is the handler installed into a watcher: invoked at
// most once per reactor fire with the revents bitmask and an opaque
// payload identifying the source, so handlers never need to capture the
// enclosing dispatcher/buffer by reference.
type WatcherHandler func(revents EventKind, payload any)

// Watcher is the contract shared by IoWatcher, TimerWatcher and
// SignalWatcher: constructed inactive, armed by Setup, idempotently
// disarmed by Cancel.
type Watcher interface {
	// Active reports whether exactly one reactor registration currently
	// backs this watcher.
	Active() bool

	// Cancel detaches the watcher's reactor registration. Returns false
	// (no-op) if the watcher was already inactive.
	Cancel() bool
}

// IOWatcher wraps a reactor I/O readiness registration.
type IOWatcher interface {
	Watcher

	// Setup (re)arms the watcher on fd for the given read/write mode.
	// If already active, this is a reconfiguration (cancel + register).
	// Preconditions: fd >= 0, mode != 0.
	Setup(fd int, mode EventKind) (bool, error)

	// Fd returns the currently armed file descriptor, or -1 if inactive.
	Fd() int

	// Mode returns the currently armed read/write mode.
	Mode() EventKind
}

// TimerWatcher wraps a reactor timer registration.
type TimerWatcher interface {
	Watcher

	// Setup (re)arms the timer: first fire after `after`, then every
	// `repeat` if repeat > 0 (one-shot if repeat == 0). Re-setup restarts
	// timing. Precondition: after >= 0.
	Setup(after, repeat time.Duration) (bool, error)
}

// SignalWatcher wraps a reactor OS-signal registration.
type SignalWatcher interface {
	Watcher

	// Setup (re)arms delivery of signum. Precondition: signum > 0.
	Setup(signum int) (bool, error)
}
