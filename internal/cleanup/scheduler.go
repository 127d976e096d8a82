// Package cleanup removes scratch files after a delay, detached from the
// request that produced them.
package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultDelay leaves time for the response transfer to finish before the
// files it was read from disappear.
const DefaultDelay = 5 * time.Second

// RemoveFunc deletes the given files.
type RemoveFunc func(ctx context.Context, paths []string) error

// entry is one armed deletion.
type entry struct {
	paths []string
	timer clock.Timer
}

// Scheduler arms one timer per Schedule call and removes the files when it
// fires. Removal failures are logged and never returned to anyone.
type Scheduler struct {
	clock  clock.WithDelayedExecution
	delay  time.Duration
	remove RemoveFunc
	logger *slog.Logger

	mu      sync.Mutex
	next    uint64
	pending map[uint64]*entry
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the real clock, typically with a fake one in tests.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// NewScheduler creates a Scheduler that calls remove delay after Schedule.
// A negative delay is treated as zero.
func NewScheduler(remove RemoveFunc, delay time.Duration, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if delay < 0 {
		delay = 0
	}
	s := &Scheduler{
		clock:   clock.RealClock{},
		delay:   delay,
		remove:  remove,
		logger:  logger,
		pending: make(map[uint64]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the configured delay.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// Schedule arms deletion of paths after the configured delay.
func (s *Scheduler) Schedule(paths []string) {
	if len(paths) == 0 {
		return
	}

	s.mu.Lock()
	s.next++
	key := s.next
	s.pending[key] = &entry{paths: paths}
	s.mu.Unlock()

	// The clock may invoke the callback synchronously while holding its own
	// lock, so it is armed without holding s.mu.
	t := s.clock.AfterFunc(s.delay, func() { s.fire(key) })

	s.mu.Lock()
	if e, ok := s.pending[key]; ok {
		e.timer = t
	}
	s.mu.Unlock()
}

// Pending returns the number of armed deletions.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush stops every armed timer and removes its files immediately.
// Used on shutdown so nothing is left behind in the scratch directory.
func (s *Scheduler) Flush(ctx context.Context) {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.pending))
	for key, e := range s.pending {
		entries = append(entries, e)
		delete(s.pending, key)
	}
	s.mu.Unlock()

	for _, e := range entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		s.run(ctx, e.paths)
	}
}

func (s *Scheduler) fire(key uint64) {
	s.mu.Lock()
	e, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()

	// Already flushed
	if !ok {
		return
	}
	s.run(context.Background(), e.paths)
}

func (s *Scheduler) run(ctx context.Context, paths []string) {
	if err := s.remove(ctx, paths); err != nil {
		s.logger.Warn("deferred cleanup failed",
			slog.Any("paths", paths),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("cleaned up scratch files",
		slog.Any("paths", paths),
	)
}
