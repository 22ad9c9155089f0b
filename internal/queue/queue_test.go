package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"DignityDialogue/internal/cache"
	"DignityDialogue/internal/model"
	"DignityDialogue/pkg/errors"
	"DignityDialogue/pkg/sms"
	"DignityDialogue/storage/mq"
)

func newDedup(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb, "test")
}

func encode(t *testing.T, msg model.ConfirmationMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandle_MalformedIsDropped(t *testing.T) {
	h := NewConfirmationHandler(nil, nil, zap.NewNop())

	for _, body := range [][]byte{[]byte("{not json"), []byte(`{"intake_id":"abc"}`)} {
		err := h.Handle(context.Background(), body)
		if mq.Decide(err) != mq.ActionDrop {
			t.Fatalf("%s: expected drop, got %v", body, err)
		}
	}
}

func TestHandle_SendsSMSToPhoneContact(t *testing.T) {
	client := sms.NewMockClient()
	h := NewConfirmationHandler(newDedup(t), client, zap.NewNop())

	body := encode(t, model.ConfirmationMessage{
		MessageID:        "confirm_1",
		IntakeID:         "req-1",
		RequesterName:    "Alex",
		RequesterContact: "+14155550123",
	})

	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if client.CallCount() != 1 {
		t.Fatalf("expected one SMS, got %d", client.CallCount())
	}
	if !strings.HasPrefix(client.Calls[0].Body, "Hi Alex,") {
		t.Fatalf("unexpected body %q", client.Calls[0].Body)
	}

	// 重投的同一条消息直接跳过
	err := h.Handle(context.Background(), body)
	if !errors.IsSkip(err) {
		t.Fatalf("expected skip on duplicate, got %v", err)
	}
	if client.CallCount() != 1 {
		t.Fatalf("duplicate must not resend")
	}
}

func TestHandle_EmailContactOnlyLogs(t *testing.T) {
	client := sms.NewMockClient()
	h := NewConfirmationHandler(newDedup(t), client, zap.NewNop())

	body := encode(t, model.ConfirmationMessage{
		MessageID:        "confirm_2",
		IntakeID:         "req-2",
		RequesterName:    "Alex",
		RequesterContact: "alex@example.com",
	})

	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if client.CallCount() != 0 {
		t.Fatalf("email contact must not trigger SMS")
	}
}

func TestHandle_SendFailureRequeuesAndUnmarks(t *testing.T) {
	client := sms.NewMockClient()
	client.FailNext = true
	h := NewConfirmationHandler(newDedup(t), client, zap.NewNop())

	body := encode(t, model.ConfirmationMessage{
		MessageID:        "confirm_3",
		IntakeID:         "req-3",
		RequesterName:    "Alex",
		RequesterContact: "+14155550123",
	})

	err := h.Handle(context.Background(), body)
	if mq.Decide(err) != mq.ActionRequeue {
		t.Fatalf("expected requeue, got %v", err)
	}

	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatalf("redelivery should be processed, got %v", err)
	}
	if client.CallCount() != 2 {
		t.Fatalf("expected retry to send, got %d calls", client.CallCount())
	}
}

func TestPublishConfirmation(t *testing.T) {
	var (
		gotExchange, gotKey, gotID string
		gotBody                    interface{}
	)
	p := &MQPublisher{
		publish: func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error {
			gotExchange, gotKey, gotID, gotBody = exchange, routingKey, messageID, body
			return nil
		},
		logger: zap.NewNop(),
	}

	err := p.PublishConfirmation(context.Background(), model.ConfirmationMessage{MessageID: "confirm_x", IntakeID: "req-9"})
	if err != nil {
		t.Fatalf("PublishConfirmation() error: %v", err)
	}
	if gotExchange != IntakeExchange || gotKey != ConfirmationRoutingKey || gotID != "confirm_x" {
		t.Fatalf("unexpected routing %s %s %s", gotExchange, gotKey, gotID)
	}
	msg, ok := gotBody.(model.ConfirmationMessage)
	if !ok || msg.SubmittedAt == "" {
		t.Fatalf("expected submitted_at to be stamped, got %+v", gotBody)
	}
}

func TestPublishConfirmation_PropagatesError(t *testing.T) {
	boom := stderrors.New("channel closed")
	p := &MQPublisher{
		publish: func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error {
			return boom
		},
		logger: zap.NewNop(),
	}

	err := p.PublishConfirmation(context.Background(), model.ConfirmationMessage{MessageID: "confirm_y"})
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}
}
