package middleware

import (
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
)

const unknown = "unknown"

// OriginAddress X-Forwarded-For 第一个地址，其次 X-Real-IP，再次连接地址
func OriginAddress(c *app.RequestContext) string {
	if xff := string(c.Request.Header.Peek("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(string(c.Request.Header.Peek("X-Real-IP"))); ip != "" {
		return ip
	}

	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return unknown
}

func UserAgent(c *app.RequestContext) string {
	if ua := string(c.UserAgent()); ua != "" {
		return ua
	}
	return unknown
}
