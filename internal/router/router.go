package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"DignityDialogue/internal/handler"
)

// Options 中间件由 cmd/server 按配置组装后传入
type Options struct {
	// Global 全局中间件，按顺序挂载
	Global []app.HandlerFunc
	// IntakeLimiter 仅作用于提交接口，为空时不限流
	IntakeLimiter app.HandlerFunc
}

func Register(h *server.Hertz, intake *handler.IntakeHandler, opts Options) {
	h.Use(opts.Global...)

	h.GET("/healthz", handler.Health)

	submit := []app.HandlerFunc{intake.Submit}
	if opts.IntakeLimiter != nil {
		submit = append([]app.HandlerFunc{opts.IntakeLimiter}, submit...)
	}

	v1 := h.Group("/v1")
	{
		v1.POST("/intakes", submit...)
	}

	// 兼容原表单的提交地址
	api := h.Group("/api")
	{
		api.POST("/intake", submit...)
	}
}
