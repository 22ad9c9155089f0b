package handler

import (
	"context"
	stderrors "errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"DignityDialogue/internal/middleware"
	"DignityDialogue/internal/model"
	"DignityDialogue/internal/service"
	"DignityDialogue/pkg/errors"
	"DignityDialogue/pkg/response"
)

// Submitter 由 service.IntakeService 实现
type Submitter interface {
	Submit(ctx context.Context, raw model.IntakeSubmission, prov model.Provenance) (*service.SubmitResult, error)
}

type IntakeHandler struct {
	svc    Submitter
	logger *zap.Logger
}

func NewIntakeHandler(svc Submitter, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{svc: svc, logger: logger}
}

// Submit 接收表单提交。
func (h *IntakeHandler) Submit(ctx context.Context, c *app.RequestContext) {
	var raw model.IntakeSubmission
	if err := c.BindJSON(&raw); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	prov := model.Provenance{
		IPAddress: middleware.OriginAddress(c),
		UserAgent: middleware.UserAgent(c),
	}

	res, err := h.svc.Submit(ctx, raw, prov)
	if err != nil {
		var verrs errors.ValidationErrors
		if stderrors.As(err, &verrs) {
			response.ValidationError(ctx, c, verrs)
			return
		}
		response.Error(ctx, c, err)
		return
	}

	response.Submitted(ctx, c, res.RequestID)
}

// Health 存活探针。
func Health(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}
