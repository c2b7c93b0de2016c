//go:build linux

// File: reactor/loop_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7)-based PlatformLoop: the one backend this module depends
// on for IO, timer and signal readiness. Timers are armed as timerfd(2)
// descriptors and signals are bridged from the Go runtime's os/signal
// package through an eventfd(2) wakeup, so that every registration the
// core sees - IO, timer, signal - is, underneath, just another epoll fd.
// This is the same self-pipe trick libev itself uses for ev_signal.

package reactor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/squallgo/affinity"
	"github.com/momentics/squallgo/api"
)

// PlatformLoop is the Linux epoll-backed api.Reactor implementation.
type PlatformLoop struct {
	cfg  config
	epfd int

	wakeFd int // eventfd: wakes epoll_wait from Stop and from signal delivery

	ioHandlers  map[int32]api.Handler
	timerFds    map[int32]int // epoll fd -> raw timerfd (same value, kept for Close bookkeeping)
	signalChans map[int]chan os.Signal

	signalMu    sync.Mutex
	signalQueue []pendingSignal

	events []unix.EpollEvent

	running       atomic.Bool
	stopRequested atomic.Bool
	closed        atomic.Bool
}

func newPlatformLoop(cfg config) (*PlatformLoop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("reactor: eventfd: %w", err)
	}

	l := &PlatformLoop{
		cfg:         cfg,
		epfd:        epfd,
		wakeFd:      wakeFd,
		ioHandlers:  make(map[int32]api.Handler),
		timerFds:    make(map[int32]int),
		signalChans: make(map[int]chan os.Signal),
		events:      make([]unix.EpollEvent, cfg.maxEvents),
	}

	if err := l.epollAdd(wakeFd, unix.EPOLLIN); err != nil {
		_ = unix.Close(wakeFd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("reactor: arm wakeup fd: %w", err)
	}

	return l, nil
}

func (l *PlatformLoop) epollAdd(fd int, events uint32) error {
	return unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: events, Fd: int32(fd)})
}

func (l *PlatformLoop) epollDel(fd int) {
	_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// RegisterIO implements api.Reactor.
func (l *PlatformLoop) RegisterIO(fd int, mode api.EventKind, handler api.Handler) (api.Registration, error) {
	if fd < 0 || mode == 0 {
		return nil, fmt.Errorf("reactor: invalid io registration (fd=%d mode=%s)", fd, mode)
	}
	var events uint32
	if mode&api.Read != 0 {
		events |= unix.EPOLLIN
	}
	if mode&api.Write != 0 {
		events |= unix.EPOLLOUT
	}
	if err := l.epollAdd(fd, events); err != nil {
		return nil, fmt.Errorf("reactor: epoll_ctl add fd=%d: %w", fd, err)
	}
	l.ioHandlers[int32(fd)] = handler

	return newRegistration(func() {
		l.epollDel(fd)
		delete(l.ioHandlers, int32(fd))
	}), nil
}

// RegisterTimer implements api.Reactor using a Linux timerfd so the
// kernel - not userland bookkeeping - handles drift and rearming.
func (l *PlatformLoop) RegisterTimer(after, repeat time.Duration, handler api.Handler) (api.Registration, error) {
	if after < 0 {
		return nil, fmt.Errorf("reactor: negative timer delay %v", after)
	}
	tfd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("reactor: timerfd_create: %w", err)
	}
	spec := &unix.ItimerSpec{
		Value:    unix.NsecToTimespec(after.Nanoseconds()),
		Interval: unix.NsecToTimespec(repeat.Nanoseconds()),
	}
	if after == 0 {
		// timerfd treats a zero Value as "disarmed"; arm it at the
		// smallest representable delay so a zero-delay timer still fires.
		spec.Value = unix.NsecToTimespec(1)
	}
	if err := unix.TimerfdSettime(tfd, 0, spec, nil); err != nil {
		_ = unix.Close(tfd)
		return nil, fmt.Errorf("reactor: timerfd_settime: %w", err)
	}
	if err := l.epollAdd(tfd, unix.EPOLLIN); err != nil {
		_ = unix.Close(tfd)
		return nil, fmt.Errorf("reactor: epoll_ctl add timerfd: %w", err)
	}
	l.ioHandlers[int32(tfd)] = func(revents api.EventKind) {
		var buf [8]byte
		_, _ = unix.Read(tfd, buf[:])
		handler(api.Timeout)
	}
	l.timerFds[int32(tfd)] = tfd

	return newRegistration(func() {
		l.epollDel(tfd)
		delete(l.ioHandlers, int32(tfd))
		delete(l.timerFds, int32(tfd))
		_ = unix.Close(tfd)
	}), nil
}

// RegisterSignal implements api.Reactor by bridging os/signal delivery
// into the epoll loop through the shared wakeup eventfd.
func (l *PlatformLoop) RegisterSignal(signum int, handler api.Handler) (api.Registration, error) {
	if signum <= 0 {
		return nil, fmt.Errorf("reactor: invalid signal number %d", signum)
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.Signal(signum))
	l.signalChans[signum] = ch

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				l.cfg.logger.Debug("reactor: signal received", slog.Int("signum", signum))
				l.postSignal(signum, handler)
			case <-done:
				return
			}
		}
	}()

	return newRegistration(func() {
		signal.Stop(ch)
		close(done)
		delete(l.signalChans, signum)
	}), nil
}

// pendingSignal is posted from the signal-forwarding goroutine and
// drained on the loop's own goroutine inside RunOnce, keeping all user
// handler invocations on the single cooperative thread.
type pendingSignal struct {
	signum  int
	handler api.Handler
}

func (l *PlatformLoop) postSignal(signum int, handler api.Handler) {
	l.signalMu.Lock()
	l.signalQueue = append(l.signalQueue, pendingSignal{signum: signum, handler: handler})
	l.signalMu.Unlock()
	l.wake()
}

func (l *PlatformLoop) wake() {
	var one [8]byte
	one[0] = 1
	_, _ = unix.Write(l.wakeFd, one[:])
}

// RunOnce implements api.Reactor.
func (l *PlatformLoop) RunOnce() (bool, error) {
	if len(l.ioHandlers) == 0 && len(l.signalChans) == 0 {
		return false, nil
	}

	n, err := unix.EpollWait(l.epfd, l.events, -1)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return true, nil
		}
		return false, fmt.Errorf("reactor: epoll_wait: %w", err)
	}

	for i := 0; i < n; i++ {
		ev := l.events[i]
		fd := ev.Fd
		if int(fd) == l.wakeFd {
			l.drainWake()
			l.runPendingSignals()
			continue
		}
		handler, ok := l.ioHandlers[fd]
		if !ok {
			continue
		}
		revents := decodeEpollEvents(ev.Events)
		handler(revents)
	}

	return true, nil
}

func (l *PlatformLoop) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(l.wakeFd, buf[:])
}

func (l *PlatformLoop) runPendingSignals() {
	l.signalMu.Lock()
	pending := l.signalQueue
	l.signalQueue = nil
	l.signalMu.Unlock()
	for _, p := range pending {
		p.handler(api.Signal)
	}
}

func decodeEpollEvents(events uint32) api.EventKind {
	var revents api.EventKind
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		revents |= api.Error
	}
	if events&unix.EPOLLIN != 0 {
		revents |= api.Read
	}
	if events&unix.EPOLLOUT != 0 {
		revents |= api.Write
	}
	return revents
}

// Now implements api.Reactor.
func (l *PlatformLoop) Now() time.Time {
	return time.Now()
}

// Start implements api.Reactor.
func (l *PlatformLoop) Start() error {
	if l.cfg.cpuID >= 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := affinity.SetAffinity(l.cfg.cpuID); err != nil {
			l.cfg.logger.Warn("reactor: cpu affinity pin failed", slog.Int("cpu", l.cfg.cpuID), slog.Any("err", err))
		}
	}

	l.running.Store(true)
	defer l.running.Store(false)
	l.stopRequested.Store(false)

	for !l.stopRequested.Load() {
		more, err := l.RunOnce()
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
func (l *PlatformLoop) Stop() {
	if l.stopRequested.CompareAndSwap(false, true) {
		l.wake()
	}
}

// Running implements api.Reactor.
func (l *PlatformLoop) Running() bool {
	return l.running.Load()
}

// Close implements api.Reactor.
func (l *PlatformLoop) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	for signum, ch := range l.signalChans {
		signal.Stop(ch)
		delete(l.signalChans, signum)
	}
	for fd := range l.timerFds {
		_ = unix.Close(int(fd))
	}
	_ = unix.Close(l.wakeFd)
	return unix.Close(l.epfd)
}
