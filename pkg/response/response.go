package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"DignityDialogue/pkg/errors"
)

// ErrorResponse 统一的错误响应格式，error 字段直接是面向用户的文案
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details []errors.FieldError `json:"details,omitempty"`
}

// SubmitResponse 提交成功响应
type SubmitResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`
}

func errorToHTTPStatus(err error) int {
	def, ok := err.(errors.Definition)
	if !ok {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case errors.ValidationFailed.Code, errors.VerificationFailed.Code, errors.InvalidRequest.Code:
		return http.StatusBadRequest
	case errors.TooManyRequests.Code:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error 返回错误响应，非 Definition 错误一律按内部错误处理，不透出原始信息
func Error(ctx context.Context, c *app.RequestContext, err error) {
	statusCode := errorToHTTPStatus(err)

	message := errors.InternalError.Message
	if def, ok := err.(errors.Definition); ok {
		message = def.Message
	}

	c.JSON(statusCode, ErrorResponse{Error: message})
}

// ValidationError 返回全部字段错误
func ValidationError(ctx context.Context, c *app.RequestContext, details errors.ValidationErrors) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   errors.ValidationFailed.Message,
		Details: details,
	})
}

// BindError 请求体无法解析时按校验失败返回
func BindError(ctx context.Context, c *app.RequestContext, err error) {
	ValidationError(ctx, c, errors.ValidationErrors{{Field: "body", Message: err.Error()}})
}

func Submitted(ctx context.Context, c *app.RequestContext, requestID string) {
	c.JSON(http.StatusOK, SubmitResponse{
		Success:   true,
		RequestID: requestID,
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, data)
}
