package captcha

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"DignityDialogue/config"
	"DignityDialogue/pkg/errors"
)

// Client 人机验证客户端接口
type Client interface {
	// Verify 校验前端提交的 token
	// remoteIP: 提交者 IP，recaptcha 会一并上报
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// New 按 CAPTCHA_PROVIDER 创建客户端
// recaptcha 未配置密钥时退化为不校验
func New(cfg *config.Config, logger *zap.Logger) (Client, error) {
	var (
		client Client
		err    error
	)

	switch cfg.CaptchaProvider {
	case "recaptcha":
		if cfg.RecaptchaSecretKey == "" {
			logger.Warn("Recaptcha secret is not set, human verification is disabled")
			return NewStaticClient(true), nil
		}
		client, err = NewRecaptchaClient(cfg.RecaptchaSecretKey, cfg.RecaptchaVerifyURL, logger)
	case "aliyun":
		client, err = NewAliyunClient(cfg.CaptchaSceneID, logger)
	case "none":
		client = NewStaticClient(true)
	default:
		err = fmt.Errorf("%w: %s", errors.ErrUnsupportedCaptchaProvider, cfg.CaptchaProvider)
	}

	if err != nil {
		logger.Error("Failed to initialize captcha client", zap.Error(err))
		return nil, err
	}

	logger.Info("Captcha client initialized successfully",
		zap.String("provider", cfg.CaptchaProvider),
	)
	return client, nil
}
