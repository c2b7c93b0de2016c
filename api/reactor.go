// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "time"

// Registration is an opaque handle returned by a Reactor for a single
// armed readiness/timer/signal source. Reactor implementations are free
// to make it whatever is cheapest to cancel (an fd, an index, a pointer).
type Registration interface {
	// Cancel detaches this registration from the reactor. Idempotent.
	Cancel()
}

// Handler is invoked by the Reactor when a registration fires. revents
// carries the reason (Read/Write/Timeout/Signal possibly combined with
// Error). The Reactor itself carries no notion of a payload/identity -
// that belongs to the Watcher layer, which closes over its own identity
// and reports it to the user's WatcherHandler (see watcher.go).
type Handler func(revents EventKind)

// Reactor is the collaborator contract the rest of this module depends
// on. It is implemented by reactor.PlatformLoop; callers never reach past
// this interface into a concrete poll backend.
type Reactor interface {
	// RegisterIO arms fd for the given read/write mode and returns a
	// registration that fires handler with Read/Write/Error bits.
	RegisterIO(fd int, mode EventKind, handler Handler) (Registration, error)

	// RegisterTimer arms a timer that fires after the given duration and,
	// if repeat > 0, every repeat thereafter. repeat == 0 is one-shot.
	RegisterTimer(after, repeat time.Duration, handler Handler) (Registration, error)

	// RegisterSignal arms delivery of the given OS signal.
	RegisterSignal(signum int, handler Handler) (Registration, error)

	// RunOnce processes one batch of ready events. It returns false when
	// no registrations remain (nothing left to wait for).
	RunOnce() (bool, error)

	// Now returns the reactor's cached monotonic clock, used to schedule
	// and drift-compensate timers.
	Now() time.Time

	// Start enters the dispatch loop, repeatedly calling RunOnce until
	// Stop is called or RunOnce reports no remaining registrations.
	// Start is re-entrancy unsafe: recursive invocation is undefined.
	Start() error

	// Stop requests the loop to exit at the next safe point. Idempotent.
	Stop()

	// Running reports whether Start is currently executing.
	Running() bool

	// Close releases the reactor's OS resources. Only safe once Running
	// is false.
	Close() error
}
