package sms

import (
	"context"

	"go.uber.org/zap"

	"DignityDialogue/utils"
)

// StubMessageID 未配置通道时统一返回的消息 ID
const StubMessageID = "stub-message-id"

// StubClient 只记录日志、不真正下发
type StubClient struct {
	logger *zap.Logger
}

func NewStubClient(logger *zap.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (s *StubClient) Provider() string {
	return "stub"
}

func (s *StubClient) Send(ctx context.Context, to, body string) (*SendResponse, error) {
	s.logger.Info("SMS transport not configured, message not delivered",
		zap.String("phone", utils.MaskPhone(to)),
		zap.Int("length", len(body)),
	)

	return &SendResponse{
		MessageID: StubMessageID,
		Status:    "stubbed",
		Provider:  s.Provider(),
	}, nil
}
