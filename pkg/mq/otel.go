package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dignity-dialogue.rabbitmq"

// MessageHeaderCarrier 实现 propagation.TextMapCarrier 接口
type MessageHeaderCarrier struct {
	Headers amqp.Table
}

func (m *MessageHeaderCarrier) Get(key string) string {
	if val, ok := m.Headers[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (m *MessageHeaderCarrier) Set(key, value string) {
	if m.Headers == nil {
		m.Headers = make(amqp.Table)
	}
	m.Headers[key] = value
}

func (m *MessageHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	return keys
}

// InjectTrace 把当前 span 上下文写进消息头，返回新的 headers
func InjectTrace(ctx context.Context, headers amqp.Table) amqp.Table {
	carrier := &MessageHeaderCarrier{Headers: make(amqp.Table, len(headers)+2)}
	for k, v := range headers {
		carrier.Headers[k] = v
	}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.Headers
}

// ExtractTrace 从消息头恢复上游的 span 上下文
func ExtractTrace(ctx context.Context, headers amqp.Table) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, &MessageHeaderCarrier{Headers: headers})
}

// StartPublishSpan 发布端 producer span
func StartPublishSpan(ctx context.Context, exchange, routingKey string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "rabbitmq.publish "+exchange,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			attribute.String("messaging.rabbitmq.exchange", exchange),
			semconv.MessagingRabbitmqDestinationRoutingKey(routingKey),
		),
	)
}

// StartConsumeSpan 消费端 consumer span，父上下文来自消息头
func StartConsumeSpan(ctx context.Context, queue string, msg amqp.Delivery) (context.Context, trace.Span) {
	ctx = ExtractTrace(ctx, msg.Headers)
	return otel.Tracer(tracerName).Start(ctx, "rabbitmq.process "+queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			attribute.String("messaging.rabbitmq.queue", queue),
			semconv.MessagingMessageID(msg.MessageId),
		),
	)
}
