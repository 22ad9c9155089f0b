package sms

import (
	"context"
	"errors"
	"strconv"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"DignityDialogue/utils"
)

// messageCreator 抽出 twilio REST 调用，便于替换
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioClient Twilio Programmable Messaging
type TwilioClient struct {
	api    messageCreator
	from   string
	logger *zap.Logger
}

func NewTwilioClient(accountSID, authToken, from string, logger *zap.Logger) *TwilioClient {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioClient{
		api:    rest.Api,
		from:   from,
		logger: logger,
	}
}

func (c *TwilioClient) Provider() string {
	return "twilio"
}

func (c *TwilioClient) Send(ctx context.Context, to, body string) (*SendResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError(c.Provider(), err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		c.logger.Error("Failed to send SMS",
			zap.String("provider", c.Provider()),
			zap.String("phone", utils.MaskPhone(to)),
			zap.Error(err),
		)
		return nil, transportError(c.Provider(), err)
	}

	if resp == nil || resp.Sid == nil {
		return nil, transportError(c.Provider(), errors.New("twilio returned no message sid"))
	}

	out := &SendResponse{
		MessageID: *resp.Sid,
		Provider:  c.Provider(),
	}
	if resp.Status != nil {
		out.Status = *resp.Status
	}
	if resp.ErrorCode != nil {
		out.Code = strconv.Itoa(*resp.ErrorCode)
	}
	if resp.ErrorMessage != nil {
		out.Message = *resp.ErrorMessage
	}

	c.logger.Info("SMS sent successfully",
		zap.String("provider", c.Provider()),
		zap.String("phone", utils.MaskPhone(to)),
		zap.String("message_id", out.MessageID),
		zap.String("status", out.Status),
	)

	return out, nil
}
