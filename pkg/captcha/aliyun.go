package captcha

import (
	"context"
	"fmt"

	captcha "github.com/alibabacloud-go/captcha-20230305/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"go.uber.org/zap"

	"DignityDialogue/pkg/errors"
)

// AliyunClient 阿里云智能验证码
type AliyunClient struct {
	client  *captcha.Client
	sceneID string
	logger  *zap.Logger
}

func NewAliyunClient(sceneID string, logger *zap.Logger) (*AliyunClient, error) {
	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun credential: %w", err)
	}

	client, err := captcha.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("captcha.cn-hangzhou.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create captcha client: %w", err)
	}

	return &AliyunClient{
		client:  client,
		sceneID: sceneID,
		logger:  logger,
	}, nil
}

// Verify token 即前端组件返回的 CaptchaVerifyParam，remoteIP 仅用于日志
func (c *AliyunClient) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if token == "" {
		return false, errors.ErrCaptchaTokenRequired
	}

	response, err := c.client.VerifyIntelligentCaptcha(&captcha.VerifyIntelligentCaptchaRequest{
		CaptchaVerifyParam: tea.String(token),
		SceneId:            tea.String(c.sceneID),
	})
	if err != nil {
		c.logger.Error("Failed to verify captcha",
			zap.String("scene", c.sceneID),
			zap.String("remoteIp", remoteIP),
			zap.Error(err),
		)
		return false, fmt.Errorf("failed to verify captcha: %w", err)
	}

	if response == nil || response.Body == nil {
		return false, errors.ErrCaptchaResponseNil
	}

	body := response.Body
	if body.Result != nil && body.Result.VerifyResult != nil && *body.Result.VerifyResult {
		return true, nil
	}

	if body.Code != nil && *body.Code != "200" {
		message := tea.StringValue(body.Message)
		c.logger.Warn("Captcha verification failed",
			zap.String("code", *body.Code),
			zap.String("message", message),
			zap.String("scene", c.sceneID),
		)
		return false, fmt.Errorf("%w: %s - %s", errors.ErrCaptchaVerificationFailed, *body.Code, message)
	}

	return false, nil
}
