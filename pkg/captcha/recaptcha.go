package captcha

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"go.uber.org/zap"

	"DignityDialogue/pkg/errors"
)

// RecaptchaClient Google reCAPTCHA siteverify
type RecaptchaClient struct {
	http      *client.Client
	secret    string
	verifyURL string
	logger    *zap.Logger
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

func NewRecaptchaClient(secret, verifyURL string, logger *zap.Logger) (*RecaptchaClient, error) {
	c, err := client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		client.WithDialTimeout(3*time.Second),
		client.WithClientReadTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recaptcha http client: %w", err)
	}

	return &RecaptchaClient{
		http:      c,
		secret:    secret,
		verifyURL: verifyURL,
		logger:    logger,
	}, nil
}

func (c *RecaptchaClient) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if token == "" {
		return false, errors.ErrCaptchaTokenRequired
	}

	args := &protocol.Args{}
	args.Set("secret", c.secret)
	args.Set("response", token)
	if remoteIP != "" && remoteIP != "unknown" {
		args.Set("remoteip", remoteIP)
	}

	status, body, err := c.http.Post(ctx, nil, c.verifyURL, args)
	if err != nil {
		c.logger.Error("Failed to verify captcha",
			zap.String("remoteIp", remoteIP),
			zap.Error(err),
		)
		return false, fmt.Errorf("failed to verify captcha: %w", err)
	}
	if status != 200 {
		return false, fmt.Errorf("%w: siteverify status %d", errors.ErrCaptchaVerificationFailed, status)
	}

	var resp siteverifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("decode siteverify response: %w", err)
	}

	if !resp.Success {
		c.logger.Warn("Captcha verification failed",
			zap.String("remoteIp", remoteIP),
			zap.String("codes", strings.Join(resp.ErrorCodes, ",")),
		)
		return false, nil
	}

	return true, nil
}
