package sms

import (
	"context"
	"errors"
	"sync"
)

type MockCall struct {
	To   string
	Body string
}

// MockClient 可配置的短信客户端 mock，实现 Client 接口
type MockClient struct {
	mu    sync.Mutex
	Calls []MockCall

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
	// FailAll 置为 true 时，每次调用都失败
	FailAll bool
	// Err 失败时返回的错误，为空时使用默认错误
	Err error
}

func NewMockClient() *MockClient {
	return &MockClient{
		Calls: make([]MockCall, 0),
	}
}

func (m *MockClient) Provider() string {
	return "mock"
}

func (m *MockClient) Send(ctx context.Context, to, body string) (*SendResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{To: to, Body: body})

	if m.FailNext || m.FailAll {
		m.FailNext = false
		err := m.Err
		if err == nil {
			err = errors.New("mock sms send failure")
		}
		return nil, transportError(m.Provider(), err)
	}

	return &SendResponse{
		MessageID: "mock-message-id",
		Status:    "OK",
		Code:      "OK",
		Message:   "mock send success",
		RequestID: "mock-request-id",
		Provider:  m.Provider(),
	}, nil
}

// CallCount 已发生的调用次数
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
