package sms

import (
	"context"
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	openapiutil "github.com/alibabacloud-go/openapi-util/service"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"go.uber.org/zap"

	"DignityDialogue/pkg/errors"
	"DignityDialogue/utils"
)

// AliyunClient 阿里云短信通道，正文作为模板参数 content 下发
type AliyunClient struct {
	client       *openapi.Client
	signName     string
	templateCode string
	logger       *zap.Logger
}

// NewAliyunClient 创建阿里云 SMS 客户端
// 凭据从 ALIBABA_CLOUD_ACCESS_KEY_ID / ALIBABA_CLOUD_ACCESS_KEY_SECRET 读取
func NewAliyunClient(signName, templateCode string, logger *zap.Logger) (*AliyunClient, error) {
	if signName == "" {
		return nil, errors.ErrSignNameRequired
	}
	if templateCode == "" {
		return nil, errors.ErrTemplateCodeRequired
	}

	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun credential: %w", err)
	}

	client, err := openapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("dysmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun client: %w", err)
	}

	return &AliyunClient{
		client:       client,
		signName:     signName,
		templateCode: templateCode,
		logger:       logger,
	}, nil
}

func (c *AliyunClient) Provider() string {
	return "aliyun"
}

func (c *AliyunClient) createApiInfo(action string) *openapi.Params {
	return &openapi.Params{
		Action:      tea.String(action),
		Version:     tea.String("2017-05-25"),
		Protocol:    tea.String("HTTPS"),
		Method:      tea.String("POST"),
		AuthType:    tea.String("AK"),
		Style:       tea.String("RPC"),
		Pathname:    tea.String("/"),
		ReqBodyType: tea.String("json"),
		BodyType:    tea.String("json"),
	}
}

func (c *AliyunClient) Send(ctx context.Context, to, body string) (*SendResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError(c.Provider(), err)
	}

	templateParam, err := json.Marshal(map[string]string{"content": body})
	if err != nil {
		return nil, transportError(c.Provider(), err)
	}

	queries := map[string]interface{}{
		"PhoneNumbers":  tea.String(to),
		"SignName":      tea.String(c.signName),
		"TemplateCode":  tea.String(c.templateCode),
		"TemplateParam": tea.String(string(templateParam)),
	}

	resp, err := c.client.CallApi(c.createApiInfo("SendSms"), &openapi.OpenApiRequest{
		Query: openapiutil.Query(queries),
	}, &util.RuntimeOptions{})
	if err != nil {
		c.logger.Error("Failed to send SMS",
			zap.String("provider", c.Provider()),
			zap.String("phone", utils.MaskPhone(to)),
			zap.Error(err),
		)
		return nil, transportError(c.Provider(), err)
	}

	out, err := parseAliyunResponse(resp)
	if err != nil {
		c.logger.Error("SMS API returned error",
			zap.String("provider", c.Provider()),
			zap.String("phone", utils.MaskPhone(to)),
			zap.Error(err),
		)
		return nil, transportError(c.Provider(), err)
	}

	c.logger.Info("SMS sent successfully",
		zap.String("provider", c.Provider()),
		zap.String("phone", utils.MaskPhone(to)),
		zap.String("message_id", out.MessageID),
	)
	return out, nil
}

// parseAliyunResponse 解析 CallApi 返回的 map，Code 不为 OK 视为失败
func parseAliyunResponse(resp map[string]interface{}) (*SendResponse, error) {
	if code, ok := parseStatusCode(resp["statusCode"]); ok && code != 200 {
		return nil, fmt.Errorf("SMS API error: statusCode=%d", code)
	}

	if resp["body"] == nil {
		return nil, fmt.Errorf("SMS API returned empty body")
	}

	bodyBytes, err := json.Marshal(resp["body"])
	if err != nil {
		return nil, fmt.Errorf("marshal SMS API body: %w", err)
	}

	var body struct {
		BizID     string `json:"BizId"`
		Code      string `json:"Code"`
		Message   string `json:"Message"`
		RequestID string `json:"RequestId"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil, fmt.Errorf("decode SMS API body: %w", err)
	}

	if body.Code != "OK" {
		return nil, fmt.Errorf("SMS send failed: %s - %s", body.Code, body.Message)
	}

	return &SendResponse{
		MessageID: body.BizID,
		Status:    body.Code,
		Code:      body.Code,
		Message:   body.Message,
		RequestID: body.RequestID,
		Provider:  "aliyun",
	}, nil
}

func parseStatusCode(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case *int:
		if n == nil {
			return 0, false
		}
		return *n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
