package fsio

import (
	"log/slog"
	"runtime"
)

// Option configures Pack and Extract.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	exclude   []string
	workers   int
	overwrite bool
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// workerCount returns the extraction worker limit.
func (c *config) workerCount() int {
	if c.workers > 0 {
		return c.workers
	}
	return runtime.GOMAXPROCS(0)
}

// WithLogger sets the logger for pack and extract events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithExclude sets the patterns skipped by Pack.
//
// A pattern ending in "/" matches any directory whose name matches the rest
// of the pattern. Other patterns are matched against base names, or against
// the whole slash-separated relative path when they contain "/".
func WithExclude(patterns ...string) Option {
	return func(c *config) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// WithWorkers bounds the number of files Extract writes concurrently.
// Values <= 0 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithOverwrite allows Extract to replace existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) Option {
	return func(c *config) {
		c.overwrite = overwrite
	}
}
