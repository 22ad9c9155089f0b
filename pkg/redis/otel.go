package redis

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingHook 给每条 Redis 命令建一个 client span
type TracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

func NewOTELHook(serviceName string) *TracingHook {
	return &TracingHook{
		tracer: otel.Tracer(serviceName + ".redis"),
		attrs: []attribute.KeyValue{
			semconv.DBSystemRedis,
			attribute.String("service.name", serviceName),
		},
	}
}

func (th *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (th *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis."+cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
		)
		defer span.End()

		span.SetAttributes(semconv.DBOperation(cmd.Name()))
		if keys := extractKeys(cmd.Args()); len(keys) > 0 {
			span.SetAttributes(attribute.StringSlice("redis.keys", keys))
		}

		err := next(ctx, cmd)
		recordStatus(span, err)
		return err
	}
}

func (th *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
		)
		defer span.End()

		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}
		span.SetAttributes(
			attribute.Int("redis.pipeline.count", len(cmds)),
			attribute.String("redis.pipeline.commands", strings.Join(names, ";")),
		)

		err := next(ctx, cmds)
		recordStatus(span, err)
		return err
	}
}

func recordStatus(span trace.Span, err error) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case err == redis.Nil:
		span.SetStatus(codes.Ok, "key not found")
	default:
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
}

// extractKeys 只取命令后的前几个字符串参数，值不上报
func extractKeys(args []interface{}) []string {
	if len(args) < 2 {
		return nil
	}

	keys := make([]string, 0, 1)
	if key, ok := args[1].(string); ok {
		keys = append(keys, sanitizeKey(key))
	}
	return keys
}

// sanitizeKey 含 token 的 key 只保留前缀
func sanitizeKey(key string) string {
	if strings.Contains(key, "token") || strings.Contains(key, "secret") {
		parts := strings.Split(key, ":")
		if len(parts) > 1 {
			return parts[0] + ":***"
		}
		return "***"
	}

	if len(key) > 100 {
		return key[:100] + "..."
	}
	return key
}
