package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// httpMetrics HTTP 服务端指标
type httpMetrics struct {
	requestTotal   metric.Int64Counter
	duration       metric.Float64Histogram
	requestSize    metric.Int64Histogram
	activeRequests metric.Int64UpDownCounter
}

// toValidUTF8 统一清洗用户可控字符串，防止非法 UTF-8 触发指标/trace 序列化失败
func toValidUTF8(val string) string {
	return strings.ToValidUTF8(val, "")
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error

	m.requestTotal, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.duration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, err
	}

	m.requestSize, err = meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("HTTP request size"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	m.activeRequests, err = meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// OpenTelemetryMiddleware 为每个请求建 span 并记录指标，meter 为空时使用全局 MeterProvider
func OpenTelemetryMiddleware(meter metric.Meter) (app.HandlerFunc, error) {
	if meter == nil {
		meter = otel.Meter("hertz-server")
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}
	tracer := otel.Tracer("hertz-server")

	return func(ctx context.Context, c *app.RequestContext) {
		startTime := time.Now()
		m.activeRequests.Add(ctx, 1)
		defer m.activeRequests.Add(ctx, -1)

		method := toValidUTF8(string(c.Method()))
		// 路由模板，避免把路径参数带进指标标签
		route := c.FullPath()
		if route == "" {
			route = toValidUTF8(string(c.Path()))
		}

		spanCtx, span := tracer.Start(ctx, method+" "+route, trace.WithAttributes(
			semconv.HTTPMethod(method),
			semconv.HTTPRoute(route),
			semconv.HTTPScheme(toValidUTF8(string(c.Request.URI().Scheme()))),
			attribute.String("http.host", toValidUTF8(string(c.Host()))),
			attribute.String("http.user_agent", toValidUTF8(UserAgent(c))),
		))
		defer span.End()

		if requestID := c.GetHeader("X-Request-Id"); len(requestID) > 0 {
			span.SetAttributes(attribute.String("http.request_id", toValidUTF8(string(requestID))))
		}

		c.Next(spanCtx)

		duration := time.Since(startTime).Seconds()
		statusCode := c.Response.StatusCode()

		span.SetAttributes(semconv.HTTPStatusCode(statusCode))
		if statusCode >= 500 {
			span.SetStatus(codes.Error, "HTTP server error")
			if lastErr := c.Errors.Last(); lastErr != nil {
				span.RecordError(lastErr)
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}

		labels := metric.WithAttributes(
			semconv.HTTPMethod(method),
			semconv.HTTPRoute(route),
			semconv.HTTPStatusCode(statusCode),
		)
		m.requestTotal.Add(ctx, 1, labels)
		m.duration.Record(ctx, duration, labels)
		if size := int64(c.Request.Header.ContentLength()); size > 0 {
			m.requestSize.Record(ctx, size, labels)
		}
	}, nil
}

// NewServerTracerConfig Hertz server 的追踪配置，返回 server 选项和中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
