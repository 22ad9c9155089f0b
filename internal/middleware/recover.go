package middleware

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"DignityDialogue/pkg/errors"
	"DignityDialogue/pkg/response"
)

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	Logger *zap.Logger
	// 是否启用堆栈追踪
	EnableStackTrace bool
	// 堆栈追踪级别（full, simple, none）
	StackTraceLevel string
	// 是否在 span 中记录异常
	RecordInSpan bool
	// 生产环境只返回通用错误文案
	IsProduction bool
}

func NewRecoverConfig(logger *zap.Logger, isProduction bool) RecoverConfig {
	return RecoverConfig{
		Logger:           logger,
		EnableStackTrace: true,
		StackTraceLevel:  "simple",
		RecordInSpan:     true,
		IsProduction:     isProduction,
	}
}

// RecoverMiddleware 创建 recover 中间件
func RecoverMiddleware(logger *zap.Logger, isProduction bool) app.HandlerFunc {
	return RecoverMiddlewareWithConfig(NewRecoverConfig(logger, isProduction))
}

func RecoverMiddlewareWithConfig(config RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err, config)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}, config RecoverConfig) {
	var stack []byte
	if config.EnableStackTrace {
		stack = getStackTrace(config.StackTraceLevel)
	}

	logPanic(ctx, c, err, stack, config)

	if config.RecordInSpan {
		span := trace.SpanFromContext(ctx)
		span.RecordError(fmt.Errorf("panic: %v", err))
		span.SetStatus(codes.Error, "panic recovered")
	}

	writeErrorResponse(ctx, c, err, config)
}

// writeErrorResponse 生产环境不透出 panic 内容
func writeErrorResponse(ctx context.Context, c *app.RequestContext, err interface{}, config RecoverConfig) {
	if config.IsProduction {
		response.Error(ctx, c, errors.InternalError)
	} else {
		c.JSON(consts.StatusInternalServerError, response.ErrorResponse{
			Error: fmt.Sprintf("Internal error: %v", err),
		})
	}
	c.Abort()
}

// getStackTrace 获取堆栈追踪
func getStackTrace(level string) []byte {
	var buf bytes.Buffer

	switch level {
	case "full":
		buf.Write(debug.Stack())
	case "simple":
		buf.WriteString("goroutine panic:\n")
		skip := 3 // 跳过 runtime 和 recover 相关的函数
		for i := skip; ; i++ {
			pc, file, line, ok := runtime.Caller(i)
			if !ok {
				break
			}
			fn := runtime.FuncForPC(pc)
			if fn == nil {
				continue
			}
			buf.WriteString(fmt.Sprintf("  %s:%d\n    %s\n", file, line, fn.Name()))
		}
	}

	return buf.Bytes()
}

// getFormattedStack 移除 runtime 相关的冗余行
func getFormattedStack(stack []byte) []byte {
	if len(stack) == 0 {
		return nil
	}

	lines := strings.Split(string(stack), "\n")
	var filtered []string

	for _, line := range lines {
		if strings.Contains(line, "runtime/panic.go") ||
			strings.Contains(line, "runtime/defer.go") ||
			strings.Contains(line, "/runtime/") {
			continue
		}
		filtered = append(filtered, line)
	}

	return []byte(strings.Join(filtered, "\n"))
}

// logPanic 请求体里有手机号和验证 token，不记录 body 与 header
func logPanic(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte, config RecoverConfig) {
	log := config.Logger
	if log == nil {
		log = zap.L()
	}

	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", OriginAddress(c)),
		zap.String("user_agent", UserAgent(c)),
		zap.Time("time", time.Now()),
	}

	if traceID := string(c.GetHeader("X-Request-Id")); traceID != "" {
		fields = append(fields, zap.String("http_request_id", traceID))
	}

	if config.EnableStackTrace {
		fields = append(fields, zap.ByteString("stack", getFormattedStack(stack)))
	}

	if isSeverePanic(err) {
		log.Error("[SEVERE PANIC DETECTED]", fields...)
		return
	}
	log.Error("[PANIC RECOVERED]", fields...)
}

func isSeverePanic(err interface{}) bool {
	if err == nil {
		return false
	}

	errStr := fmt.Sprintf("%v", err)

	severePatterns := []string{
		"runtime: out of memory",
		"fatal error:",
		"concurrent map writes",
		"concurrent map read and map write",
		"runtime error: makeslice:",
		"all goroutines are asleep - deadlock!",
		"index out of range",
		"slice bounds out of range",
		"unexpected signal",
	}

	for _, pattern := range severePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
