// Package dispatcher implements the context-keyed event dispatcher: a
// registry of at most one I/O, one timer and one signal watcher per
// user-chosen context key, with a guaranteed cleanup-notification sweep
// on Release.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package dispatcher

import (
	"log/slog"
	"time"

	"github.com/momentics/squallgo/api"
	"github.com/momentics/squallgo/watcher"
)

// ContextTarget is invoked on every fire of any watcher registered under
// ctx, and once more per still-registered context during Release, with
// revents == api.Cleanup and payload == nil.
type ContextTarget[K comparable] func(ctx K, revents api.EventKind, payload any)

type config struct {
	logger *slog.Logger
}

// Option configures a Dispatcher at construction time.
type Option func(*config)

// WithLogger injects a structured logger for watcher churn diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Dispatcher is generic over a user-chosen, hashable context key K.
type Dispatcher[K comparable] struct {
	reactor api.Reactor
	target  ContextTarget[K]
	logger  *slog.Logger

	io     map[K]*watcher.IO
	timers map[K]*watcher.Timer
	signal map[K]*watcher.Signal

	active bool
}

// New constructs a Dispatcher bound to reactor, forwarding every watcher
// fire to target.
func New[K comparable](reactor api.Reactor, target ContextTarget[K], opts ...Option) *Dispatcher[K] {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Dispatcher[K]{
		reactor: reactor,
		target:  target,
		logger:  cfg.logger,
		io:      make(map[K]*watcher.IO),
		timers:  make(map[K]*watcher.Timer),
		signal:  make(map[K]*watcher.Signal),
		active:  true,
	}
}

// Active reports whether Release has not yet run.
func (d *Dispatcher[K]) Active() bool { return d.active }

// SharedLoop returns the api.Reactor this Dispatcher was constructed
// with, for callers that need to drive it directly (e.g. Start/Stop)
// alongside the watchers this Dispatcher manages.
func (d *Dispatcher[K]) SharedLoop() api.Reactor { return d.reactor }

// SetupIOWatching arms (or, if ctx already has an I/O watcher,
// reconfigures in place) readiness watching of fd for mode under ctx.
func (d *Dispatcher[K]) SetupIOWatching(ctx K, fd int, mode api.EventKind) error {
	if !d.active {
		return nil
	}
	w, ok := d.io[ctx]
	if !ok {
		w = watcher.NewIO(d.reactor, func(revents api.EventKind, payload any) {
			d.target(ctx, revents, payload)
		}, nil)
	}
	if ok, err := w.Setup(fd, mode); !ok {
		if err != nil {
			return err
		}
		return api.NewCannotSetupWatchingError("io", nil)
	}
	d.io[ctx] = w
	d.logger.Debug("dispatcher: io armed", slog.Any("ctx", ctx), slog.Int("fd", fd))
	return nil
}

// UpdateIOWatching changes the mode of ctx's existing I/O watcher,
// keeping the same fd. Returns false if ctx has no I/O watcher.
func (d *Dispatcher[K]) UpdateIOWatching(ctx K, mode api.EventKind) bool {
	w, ok := d.io[ctx]
	if !ok {
		return false
	}
	ok, _ = w.Setup(w.Fd(), mode)
	return ok
}

// CancelIOWatching detaches and forgets ctx's I/O watcher. Returns
// whether one existed.
func (d *Dispatcher[K]) CancelIOWatching(ctx K) bool {
	w, ok := d.io[ctx]
	if !ok {
		return false
	}
	w.Cancel()
	delete(d.io, ctx)
	return true
}

// SetupTimerWatching arms a periodic timer under ctx firing every
// period (clamped to >= 0). Re-setup restarts timing.
func (d *Dispatcher[K]) SetupTimerWatching(ctx K, period time.Duration) error {
	if !d.active {
		return nil
	}
	if period < 0 {
		period = 0
	}
	w, ok := d.timers[ctx]
	if !ok {
		w = watcher.NewTimer(d.reactor, func(revents api.EventKind, payload any) {
			d.target(ctx, revents, payload)
		}, nil)
	}
	if ok, err := w.Setup(period, period); !ok {
		if err != nil {
			return err
		}
		return api.NewCannotSetupWatchingError("timer", nil)
	}
	d.timers[ctx] = w
	return nil
}

// CancelTimerWatching detaches and forgets ctx's timer watcher. Returns
// whether one existed.
func (d *Dispatcher[K]) CancelTimerWatching(ctx K) bool {
	w, ok := d.timers[ctx]
	if !ok {
		return false
	}
	w.Cancel()
	delete(d.timers, ctx)
	return true
}

// SetupSignalWatching arms delivery of signum under ctx.
func (d *Dispatcher[K]) SetupSignalWatching(ctx K, signum int) error {
	if !d.active {
		return nil
	}
	w, ok := d.signal[ctx]
	if !ok {
		w = watcher.NewSignal(d.reactor, func(revents api.EventKind, payload any) {
			d.target(ctx, revents, payload)
		}, nil)
	}
	if ok, err := w.Setup(signum); !ok {
		if err != nil {
			return err
		}
		return api.NewCannotSetupWatchingError("signal", nil)
	}
	d.signal[ctx] = w
	return nil
}

// CancelSignalWatching detaches and forgets ctx's signal watcher.
// Returns whether one existed.
func (d *Dispatcher[K]) CancelSignalWatching(ctx K) bool {
	w, ok := d.signal[ctx]
	if !ok {
		return false
	}
	w.Cancel()
	delete(d.signal, ctx)
	return true
}

// Release detaches every watcher this dispatcher owns, delivers one
// Cleanup event per still-registered context, and makes all further
// operations no-ops. Idempotent.
func (d *Dispatcher[K]) Release() {
	if !d.active {
		return
	}

	seen := make(map[K]struct{}, len(d.io)+len(d.timers)+len(d.signal))
	for ctx := range d.io {
		seen[ctx] = struct{}{}
	}
	for ctx := range d.timers {
		seen[ctx] = struct{}{}
	}
	for ctx := range d.signal {
		seen[ctx] = struct{}{}
	}

	for _, w := range d.io {
		w.Cancel()
	}
	for _, w := range d.timers {
		w.Cancel()
	}
	for _, w := range d.signal {
		w.Cancel()
	}
	d.io = make(map[K]*watcher.IO)
	d.timers = make(map[K]*watcher.Timer)
	d.signal = make(map[K]*watcher.Signal)

	d.active = false

	for ctx := range seen {
		d.target(ctx, api.Cleanup, nil)
	}
}
