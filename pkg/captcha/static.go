package captcha

import (
	"context"
	"sync"
)

// StaticClient 不做真实校验，固定返回 Result
// 用于本地开发和测试
type StaticClient struct {
	Result bool
	Err    error

	mu     sync.Mutex
	tokens []string
}

func NewStaticClient(result bool) *StaticClient {
	return &StaticClient{Result: result}
}

func (s *StaticClient) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	s.mu.Lock()
	s.tokens = append(s.tokens, token)
	s.mu.Unlock()

	if s.Err != nil {
		return false, s.Err
	}
	return s.Result, nil
}

// Tokens 已校验过的 token
func (s *StaticClient) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}
