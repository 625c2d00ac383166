package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingReaper struct {
	calls  atomic.Int32
	maxAge atomic.Int64
	err    error
}

func (r *countingReaper) ReapStaleRuns(ctx context.Context, maxAge time.Duration) (int, error) {
	r.calls.Add(1)
	r.maxAge.Store(int64(maxAge))
	return 0, r.err
}

type countingEvicter struct{ calls atomic.Int32 }

func (e *countingEvicter) EvictExpired() { e.calls.Add(1) }

func TestStart_RunsTasksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reaper := &countingReaper{err: errors.New("db down")}
	evicter := &countingEvicter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan struct{})
	go func() {
		Start(ctx, reaper, evicter, Config{
			CacheEvictInterval: 5 * time.Millisecond,
			StaleRunInterval:   5 * time.Millisecond,
			StaleRunAge:        time.Hour,
		}, logger)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return reaper.calls.Load() >= 2 && evicter.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(time.Hour), reaper.maxAge.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStart_DisabledTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reaper := &countingReaper{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan struct{})
	go func() {
		Start(ctx, reaper, nil, Config{}, logger)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, reaper.calls.Load())
}
