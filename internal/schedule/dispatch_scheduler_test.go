package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"DignityDialogue/internal/cache"
	"DignityDialogue/internal/dispatch"
)

type fakeCycle struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeCycle) RunCycle(ctx context.Context) (dispatch.CycleReport, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return dispatch.CycleReport{Fetched: 1, Sent: 1}, f.err
}

func (f *fakeCycle) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newLocker(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb, "test"), mr
}

func TestRunOnce_ReleasesLock(t *testing.T) {
	locker, mr := newLocker(t)
	cycle := &fakeCycle{}
	s := NewDispatchScheduler(cycle, locker, time.Minute, zap.NewNop())

	report, ran, err := s.RunOnce(context.Background())
	if err != nil || !ran {
		t.Fatalf("expected cycle to run, got ran=%v err=%v", ran, err)
	}
	if report.Sent != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if mr.Exists("test:lock:dispatch:cycle") {
		t.Fatalf("cycle lock must be released")
	}
	if s.LastJobTime().IsZero() {
		t.Fatalf("expected last job time to be recorded")
	}
}

func TestRunOnce_SkipsWhenAnotherInstanceHoldsLock(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()

	held, err := locker.TryLock(ctx, cycleLockName, time.Minute)
	if err != nil || held == nil {
		t.Fatalf("failed to pre-acquire: %v", err)
	}

	cycle := &fakeCycle{}
	s := NewDispatchScheduler(cycle, locker, time.Minute, zap.NewNop())

	_, ran, err := s.RunOnce(ctx)
	if err != nil || ran {
		t.Fatalf("expected skip, got ran=%v err=%v", ran, err)
	}
	if cycle.count() != 0 {
		t.Fatalf("cycle must not run while lock is held")
	}
}

func TestRunOnce_SkipsOverlappingRun(t *testing.T) {
	cycle := &fakeCycle{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := NewDispatchScheduler(cycle, nil, time.Minute, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = s.RunOnce(context.Background())
	}()
	<-cycle.entered

	_, ran, err := s.RunOnce(context.Background())
	if err != nil || ran {
		t.Fatalf("expected overlapping run to be skipped, got ran=%v err=%v", ran, err)
	}

	close(cycle.block)
	<-done

	if cycle.count() != 1 {
		t.Fatalf("expected exactly one cycle, got %d", cycle.count())
	}
}

func TestRunOnce_PropagatesCycleError(t *testing.T) {
	cycle := &fakeCycle{err: errors.New("list queued requests: boom")}
	s := NewDispatchScheduler(cycle, nil, time.Minute, zap.NewNop())

	if _, ran, err := s.RunOnce(context.Background()); !ran || err == nil {
		t.Fatalf("expected error from cycle, got ran=%v err=%v", ran, err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cycle := &fakeCycle{}
	s := NewDispatchScheduler(cycle, nil, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, time.Hour)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for cycle.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if cycle.count() != 1 {
		t.Fatalf("expected one immediate cycle, got %d", cycle.count())
	}
}
