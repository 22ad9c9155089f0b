package sms

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"DignityDialogue/config"
	"DignityDialogue/pkg/errors"
)

// Client 短信通道接口
type Client interface {
	// Send 发送一条短信，成功时返回通道分配的消息 ID
	Send(ctx context.Context, to, body string) (*SendResponse, error)
	// Provider 通道名称，用于日志与指标
	Provider() string
}

// SendResponse 短信发送响应
type SendResponse struct {
	MessageID string // 通道返回的消息 ID（twilio sid / aliyun BizId）
	Status    string // 通道返回的状态（queued, OK ...）
	Code      string // 业务状态码
	Message   string // 通道返回的说明
	RequestID string // 通道请求 ID
	Provider  string
}

// New 按配置选择通道，凭据不全时退化为 stub
func New(cfg *config.Config, logger *zap.Logger) (Client, error) {
	switch cfg.SMSProvider {
	case "twilio", "aliyun", "stub":
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedSMSProvider, cfg.SMSProvider)
	}

	if cfg.SMSProvider == "stub" || !cfg.SMSConfigured() {
		logger.Warn("SMS transport is not configured, using stub client",
			zap.String("provider", cfg.SMSProvider),
		)
		return NewStubClient(logger), nil
	}

	var (
		client Client
		err    error
	)

	switch cfg.SMSProvider {
	case "twilio":
		client = NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, logger)
	case "aliyun":
		client, err = NewAliyunClient(cfg.SMSSignName, cfg.SMSTemplateCode, logger)
	}

	if err != nil {
		logger.Error("Failed to initialize SMS client", zap.Error(err))
		return nil, err
	}

	logger.Info("SMS client initialized successfully",
		zap.String("provider", cfg.SMSProvider),
	)
	return client, nil
}

func transportError(provider string, err error) error {
	return &errors.TransportError{Provider: provider, Err: err}
}

// NewWithBreaker 真实通道外层套一层熔断，stub 原样返回
func NewWithBreaker(cfg *config.Config, logger *zap.Logger) (Client, error) {
	client, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, ok := client.(*StubClient); ok {
		return client, nil
	}
	return NewBreakerClient(client, cfg.SMSBreakerFailures, cfg.SMSBreakerReset, logger), nil
}
