// Package reactortest provides an in-memory fake api.Reactor for
// deterministic unit tests of the watcher, dispatcher and buffer layers,
// without opening any real file descriptors.
//
// Its timer bookkeeping is a container/heap priority queue ordered by
// fire time, the same pattern as ecryth-asyncigo's callbackQueue
// (loop.go) - adapted here to drive time synthetically via AdvanceTime
// instead of wall-clock sleeps, since tests must be deterministic.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reactortest

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/momentics/squallgo/api"
)

type ioEntry struct {
	fd      int
	mode    api.EventKind
	handler api.Handler
}

type timerEntry struct {
	when    time.Time
	repeat  time.Duration
	handler api.Handler
	index   int
	live    bool
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) { e := x.(*timerEntry); e.index = len(*h); *h = append(*h, e) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Registration IDs for signal handlers (a signum may have more than one
// watcher registered against it in tests, unlike the real reactor where
// the dispatcher enforces one-per-key).
type signalEntry struct {
	signum  int
	handler api.Handler
}

// Reactor is a fully synthetic, manually driven api.Reactor.
type Reactor struct {
	now     time.Time
	ioRegs  map[int]*ioEntry
	timers  timerHeap
	signals []*signalEntry
	nextID  int
	running bool
	stopped bool
	closed  bool
}

// New constructs a fake Reactor with now() initialized to t0.
func New(t0 time.Time) *Reactor {
	return &Reactor{
		now:    t0,
		ioRegs: make(map[int]*ioEntry),
	}
}

// RegisterIO implements api.Reactor.
func (r *Reactor) RegisterIO(fd int, mode api.EventKind, handler api.Handler) (api.Registration, error) {
	if fd < 0 || mode == 0 {
		return nil, fmt.Errorf("reactortest: invalid io registration (fd=%d mode=%s)", fd, mode)
	}
	entry := &ioEntry{fd: fd, mode: mode, handler: handler}
	r.ioRegs[fd] = entry
	return cancelFunc(func() {
		if cur, ok := r.ioRegs[fd]; ok && cur == entry {
			delete(r.ioRegs, fd)
		}
	}), nil
}

// RegisterTimer implements api.Reactor.
func (r *Reactor) RegisterTimer(after, repeat time.Duration, handler api.Handler) (api.Registration, error) {
	if after < 0 {
		return nil, fmt.Errorf("reactortest: negative delay %v", after)
	}
	entry := &timerEntry{when: r.now.Add(after), repeat: repeat, handler: handler, live: true}
	heap.Push(&r.timers, entry)
	return cancelFunc(func() {
		entry.live = false
	}), nil
}

// RegisterSignal implements api.Reactor.
func (r *Reactor) RegisterSignal(signum int, handler api.Handler) (api.Registration, error) {
	if signum <= 0 {
		return nil, fmt.Errorf("reactortest: invalid signal number %d", signum)
	}
	entry := &signalEntry{signum: signum, handler: handler}
	r.signals = append(r.signals, entry)
	return cancelFunc(func() {
		for i, s := range r.signals {
			if s == entry {
				r.signals = append(r.signals[:i], r.signals[i+1:]...)
				return
			}
		}
	}), nil
}

// Fire synthesizes an IO readiness event for fd, invoking its registered
// handler (if any) with the given revents exactly once.
func (r *Reactor) Fire(fd int, revents api.EventKind) {
	if entry, ok := r.ioRegs[fd]; ok {
		entry.handler(revents)
	}
}

// FireSignal synthesizes delivery of signum to every watcher registered
// against it.
func (r *Reactor) FireSignal(signum int) {
	for _, s := range r.signals {
		if s.signum == signum {
			s.handler(api.Signal)
		}
	}
}

// AdvanceTime moves the fake clock forward by d, firing (and, for
// periodic timers, rescheduling) every timer whose deadline falls at or
// before the new time - in deadline order, once per due deadline, so a
// periodic timer fires once for every period that elapses within d.
func (r *Reactor) AdvanceTime(d time.Duration) {
	r.now = r.now.Add(d)
	for r.timers.Len() > 0 && !r.timers[0].when.After(r.now) {
		entry := heap.Pop(&r.timers).(*timerEntry)
		if !entry.live {
			continue
		}
		entry.handler(api.Timeout)
		if entry.repeat > 0 && entry.live {
			entry.when = entry.when.Add(entry.repeat)
			heap.Push(&r.timers, entry)
		}
	}
}

// RunOnce implements api.Reactor. The fake reactor has no real waiting
// mechanism; RunOnce merely reports whether any registration remains.
func (r *Reactor) RunOnce() (bool, error) {
	return len(r.ioRegs) > 0 || r.timers.Len() > 0 || len(r.signals) > 0, nil
}

// Now implements api.Reactor.
func (r *Reactor) Now() time.Time { return r.now }

// Start implements api.Reactor by looping RunOnce until Stop is called
// or nothing remains registered. Since the fake never blocks, callers
// drive progress via AdvanceTime/Fire/FireSignal from another goroutine
// or before calling Start.
func (r *Reactor) Start() error {
	r.running = true
	defer func() { r.running = false }()
	r.stopped = false
	for !r.stopped {
		more, err := r.RunOnce()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Stop implements api.Reactor.
func (r *Reactor) Stop() { r.stopped = true }

// Running implements api.Reactor.
func (r *Reactor) Running() bool { return r.running }

// Close implements api.Reactor.
func (r *Reactor) Close() error {
	r.closed = true
	return nil
}

type cancelFunc func()

func (c cancelFunc) Cancel() { c() }
