package schedule

// 派发调度器：按固定间隔触发一次派发周期，同一时刻全局只跑一个周期

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"DignityDialogue/internal/dispatch"
)

const cycleLockName = "dispatch:cycle"

// Cycle 一次派发周期，由 dispatch.Worker 实现
type Cycle interface {
	RunCycle(ctx context.Context) (dispatch.CycleReport, error)
}

type DispatchScheduler struct {
	cycle   Cycle
	locker  dispatch.Locker
	lockTTL time.Duration
	timeout time.Duration
	logger  *zap.Logger

	jobMu       sync.Mutex
	jobRunning  bool
	lastJobTime time.Time
}

// NewDispatchScheduler locker 为空时只做进程内互斥
func NewDispatchScheduler(cycle Cycle, locker dispatch.Locker, lockTTL time.Duration, logger *zap.Logger) *DispatchScheduler {
	if lockTTL <= 0 {
		lockTTL = dispatch.DefaultClaimTTL
	}
	return &DispatchScheduler{
		cycle:   cycle,
		locker:  locker,
		lockTTL: lockTTL,
		timeout: lockTTL,
		logger:  logger,
	}
}

// RunOnce 执行一个周期；已有周期在跑（本进程或其他实例）时返回 false
func (s *DispatchScheduler) RunOnce(ctx context.Context) (dispatch.CycleReport, bool, error) {
	s.jobMu.Lock()
	if s.jobRunning {
		s.jobMu.Unlock()
		s.logger.Info("Dispatch job already running, skipping")
		return dispatch.CycleReport{}, false, nil
	}
	s.jobRunning = true
	s.jobMu.Unlock()

	defer func() {
		s.jobMu.Lock()
		s.jobRunning = false
		s.jobMu.Unlock()
	}()

	if s.locker != nil {
		lock, err := s.locker.TryLock(ctx, cycleLockName, s.lockTTL)
		if err != nil {
			return dispatch.CycleReport{}, false, err
		}
		if lock == nil {
			s.logger.Info("Dispatch cycle held by another instance, skipping")
			return dispatch.CycleReport{}, false, nil
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), lock); err != nil {
				s.logger.Warn("Failed to release dispatch cycle lock", zap.Error(err))
			}
		}()
	}

	startTime := time.Now()
	s.jobMu.Lock()
	s.lastJobTime = startTime
	s.jobMu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.cycle.RunCycle(runCtx)
	s.logger.Info("Dispatch job finished",
		zap.Duration("elapsed", time.Since(startTime)),
		zap.Int("fetched", report.Fetched),
		zap.Error(err),
	)
	return report, true, err
}

// Run 立即执行一次，之后每 interval 执行一次，直到 ctx 结束
func (s *DispatchScheduler) Run(ctx context.Context, interval time.Duration) {
	s.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *DispatchScheduler) tick(ctx context.Context) {
	if _, _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Dispatch cycle failed", zap.Error(err))
	}
}

// LastJobTime 最近一次真正执行周期的开始时间
func (s *DispatchScheduler) LastJobTime() time.Time {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.lastJobTime
}
