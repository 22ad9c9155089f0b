package sms

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"DignityDialogue/config"
	"DignityDialogue/pkg/errors"
)

type fakeCreator struct {
	params *twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	return f.resp, f.err
}

func strPtr(s string) *string { return &s }

func TestNew_FallsBackToStub(t *testing.T) {
	cfg := &config.Config{SMSProvider: "twilio", TwilioAccountSID: "AC123"}

	client, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if client.Provider() != "stub" {
		t.Fatalf("expected stub provider, got %s", client.Provider())
	}
}

func TestNew_Twilio(t *testing.T) {
	cfg := &config.Config{
		SMSProvider:       "twilio",
		TwilioAccountSID:  "AC123",
		TwilioAuthToken:   "secret",
		TwilioPhoneNumber: "+15550001111",
	}

	client, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if client.Provider() != "twilio" {
		t.Fatalf("expected twilio provider, got %s", client.Provider())
	}
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(&config.Config{SMSProvider: "pigeon"}, zap.NewNop())
	if !stderrors.Is(err, errors.ErrUnsupportedSMSProvider) {
		t.Fatalf("expected ErrUnsupportedSMSProvider, got %v", err)
	}
}

func TestStubClient_Send(t *testing.T) {
	resp, err := NewStubClient(zap.NewNop()).Send(context.Background(), "+1234567890", "Hello")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if resp.MessageID != StubMessageID {
		t.Fatalf("expected %s, got %s", StubMessageID, resp.MessageID)
	}
}

func TestTwilioClient_Send(t *testing.T) {
	fake := &fakeCreator{resp: &twilioApi.ApiV2010Message{Sid: strPtr("SM42"), Status: strPtr("queued")}}
	c := &TwilioClient{api: fake, from: "+15550001111", logger: zap.NewNop()}

	resp, err := c.Send(context.Background(), "+1234567890", "Hello Jane")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if resp.MessageID != "SM42" || resp.Status != "queued" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if *fake.params.To != "+1234567890" || *fake.params.From != "+15550001111" || *fake.params.Body != "Hello Jane" {
		t.Fatalf("unexpected params to=%v from=%v body=%v", *fake.params.To, *fake.params.From, *fake.params.Body)
	}
}

func TestTwilioClient_SendError(t *testing.T) {
	fake := &fakeCreator{err: stderrors.New("invalid 'To' phone number")}
	c := &TwilioClient{api: fake, from: "+15550001111", logger: zap.NewNop()}

	_, err := c.Send(context.Background(), "+1234567890", "Hello")
	var te *errors.TransportError
	if !stderrors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Provider != "twilio" || err.Error() != "invalid 'To' phone number" {
		t.Fatalf("unexpected transport error %q from %s", err.Error(), te.Provider)
	}
}

func TestTwilioClient_MissingSid(t *testing.T) {
	c := &TwilioClient{api: &fakeCreator{resp: &twilioApi.ApiV2010Message{}}, logger: zap.NewNop()}

	if _, err := c.Send(context.Background(), "+1234567890", "Hello"); err == nil {
		t.Fatalf("expected error for missing sid")
	}
}

func TestParseAliyunResponse(t *testing.T) {
	ok := map[string]interface{}{
		"statusCode": 200,
		"body": map[string]interface{}{
			"BizId":     "biz-1",
			"Code":      "OK",
			"Message":   "OK",
			"RequestId": "req-1",
		},
	}
	resp, err := parseAliyunResponse(ok)
	if err != nil {
		t.Fatalf("parseAliyunResponse() error: %v", err)
	}
	if resp.MessageID != "biz-1" || resp.RequestID != "req-1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	rejected := map[string]interface{}{
		"statusCode": 200,
		"body":       map[string]interface{}{"Code": "isv.MOBILE_NUMBER_ILLEGAL", "Message": "invalid number"},
	}
	if _, err := parseAliyunResponse(rejected); err == nil || !strings.Contains(err.Error(), "isv.MOBILE_NUMBER_ILLEGAL") {
		t.Fatalf("expected business error, got %v", err)
	}

	if _, err := parseAliyunResponse(map[string]interface{}{"statusCode": 500}); err == nil {
		t.Fatalf("expected status code error")
	}
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	m.FailNext = true

	if _, err := m.Send(context.Background(), "+1", "a"); err == nil {
		t.Fatalf("expected first call to fail")
	}
	if _, err := m.Send(context.Background(), "+1", "b"); err != nil {
		t.Fatalf("expected second call to succeed, got %v", err)
	}
	if m.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", m.CallCount())
	}
}
