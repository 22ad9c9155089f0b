package mq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestInjectExtractTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	original := amqp.Table{"x-source": "intake"}
	headers := InjectTrace(ctx, original)

	if headers["x-source"] != "intake" {
		t.Fatalf("expected existing headers to be kept")
	}
	if _, ok := original["traceparent"]; ok {
		t.Fatalf("input headers must not be mutated")
	}
	if _, ok := headers["traceparent"]; !ok {
		t.Fatalf("expected traceparent header, got %v", headers)
	}

	got := trace.SpanContextFromContext(ExtractTrace(context.Background(), headers))
	if got.TraceID() != traceID {
		t.Fatalf("expected trace id %s, got %s", traceID, got.TraceID())
	}
}

func TestMessageHeaderCarrier_NonString(t *testing.T) {
	c := &MessageHeaderCarrier{Headers: amqp.Table{"n": int32(3)}}
	if c.Get("n") != "" {
		t.Fatalf("non-string header must read as empty")
	}
	c.Set("k", "v")
	if c.Get("k") != "v" || len(c.Keys()) != 2 {
		t.Fatalf("unexpected carrier state %v", c.Headers)
	}
}
