// Package reactor implements api.Reactor: PlatformLoop, the single
// concrete platform-dependent reactor the rest of squallgo depends on.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"log/slog"
)

// config holds construction-time options for PlatformLoop.
type config struct {
	logger    *slog.Logger
	maxEvents int
	cpuID     int
}

const defaultMaxEvents = 128

func newConfig(opts []Option) config {
	cfg := config{
		logger:    slog.Default(),
		maxEvents: defaultMaxEvents,
		cpuID:     -1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a PlatformLoop at construction time.
type Option func(*config)

// WithLogger injects a structured logger for loop-level diagnostics
// (received signals, failed CPU affinity pinning). Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxEvents bounds how many ready events a single RunOnce call drains
// from the OS in one batch. Defaults to 128.
func WithMaxEvents(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxEvents = n
		}
	}
}

// WithAffinity pins the OS thread running Start's loop to cpuID, trading
// portability for cache locality under sustained load. Leave unset to let
// the OS scheduler place the loop freely.
func WithAffinity(cpuID int) Option {
	return func(c *config) {
		if cpuID >= 0 {
			c.cpuID = cpuID
		}
	}
}

// New constructs a new PlatformLoop. Construction fails only if the
// underlying reactor cannot be created.
func New(opts ...Option) (*PlatformLoop, error) {
	return newPlatformLoop(newConfig(opts))
}
