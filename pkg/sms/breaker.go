package sms

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen 熔断中，本次没有调用通道
var ErrCircuitOpen = errors.New("sms circuit breaker is open")

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 关闭状态：正常工作
	StateOpen                  // 开启状态：熔断中
	StateHalfOpen              // 半开状态：尝试恢复
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerClient 给短信通道加熔断，连续失败 maxFailures 次后在 resetTimeout 内直接拒绝
type BreakerClient struct {
	next         Client
	maxFailures  int
	resetTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	lastFailTime time.Time
	probing      bool
}

func NewBreakerClient(next Client, maxFailures int, resetTimeout time.Duration, logger *zap.Logger) *BreakerClient {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &BreakerClient{
		next:         next,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		logger:       logger,
		now:          time.Now,
		state:        StateClosed,
	}
}

func (b *BreakerClient) Provider() string {
	return b.next.Provider()
}

func (b *BreakerClient) Send(ctx context.Context, to, body string) (*SendResponse, error) {
	if !b.allowRequest() {
		return nil, ErrCircuitOpen
	}

	resp, err := b.next.Send(ctx, to, body)
	b.recordResult(err)
	return resp, err
}

// State 当前状态
func (b *BreakerClient) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BreakerClient) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailTime) < b.resetTimeout {
			return false
		}
		b.transition(StateHalfOpen)
		b.probing = true
		return true
	case StateHalfOpen:
		// 半开时只放行一个探测请求
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return false
	}
}

func (b *BreakerClient) recordResult(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil {
		b.failures = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}

	b.failures++
	b.lastFailTime = b.now()

	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.transition(StateOpen)
	}
}

func (b *BreakerClient) transition(to State) {
	if b.state == to {
		return
	}
	b.logger.Warn("SMS circuit breaker state changed",
		zap.String("provider", b.next.Provider()),
		zap.String("from", b.state.String()),
		zap.String("to", to.String()),
		zap.Int("failures", b.failures),
	)
	b.state = to
}
