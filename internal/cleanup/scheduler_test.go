package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

// recorder captures RemoveFunc invocations.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recorder) remove(_ context.Context, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_FiresAfterDelay(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	rec := &recorder{}
	s := NewScheduler(rec.remove, DefaultDelay, testLogger(), WithClock(fake))

	s.Schedule([]string{"a.mp4", "b.mp4", "c.mp4"})
	assert.Equal(t, 1, s.Pending())
	assert.True(t, fake.HasWaiters())

	fake.Step(4 * time.Second)
	assert.Equal(t, 0, rec.count(), "removed before the delay elapsed")

	fake.Step(time.Second)
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.Pending())

	rec.mu.Lock()
	assert.Equal(t, []string{"a.mp4", "b.mp4", "c.mp4"}, rec.calls[0])
	rec.mu.Unlock()
}

func TestScheduler_IndependentTimers(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	rec := &recorder{}
	s := NewScheduler(rec.remove, 5*time.Second, testLogger(), WithClock(fake))

	s.Schedule([]string{"first.mp4"})
	fake.Step(3 * time.Second)
	s.Schedule([]string{"second.mp4"})
	assert.Equal(t, 2, s.Pending())

	fake.Step(2 * time.Second)
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, s.Pending())

	fake.Step(3 * time.Second)
	assert.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_EmptyPathsIgnored(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	rec := &recorder{}
	s := NewScheduler(rec.remove, time.Second, testLogger(), WithClock(fake))

	s.Schedule(nil)
	assert.Equal(t, 0, s.Pending())
	assert.False(t, fake.HasWaiters())
}

func TestScheduler_FailureIsSwallowed(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	rec := &recorder{err: errors.New("permission denied")}
	s := NewScheduler(rec.remove, time.Second, testLogger(), WithClock(fake))

	s.Schedule([]string{"locked.mp4"})
	fake.Step(time.Second)

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_Flush(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	rec := &recorder{}
	s := NewScheduler(rec.remove, time.Minute, testLogger(), WithClock(fake))

	s.Schedule([]string{"one.mp4"})
	s.Schedule([]string{"two.mp4"})

	s.Flush(context.Background())
	assert.Equal(t, 2, rec.count())
	assert.Equal(t, 0, s.Pending())

	// Stopped timers never fire again
	fake.Step(time.Hour)
	assert.Never(t, func() bool { return rec.count() != 2 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_RealClockRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output_abc.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0600))

	remove := func(_ context.Context, paths []string) error {
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		return nil
	}
	s := NewScheduler(remove, 10*time.Millisecond, testLogger())

	s.Schedule([]string{path})
	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewScheduler_NegativeDelay(t *testing.T) {
	s := NewScheduler(func(context.Context, []string) error { return nil }, -time.Second, nil)
	assert.Equal(t, time.Duration(0), s.Delay())
}
