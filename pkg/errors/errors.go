package errors

import (
	"errors"
	"fmt"
	"strings"
)

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示面向提交者的错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 提交流程错误，Message 会原样返回给前端。
var (
	ValidationFailed   = Definition{Code: "VALIDATION_FAILED", Message: "Validation failed"}
	VerificationFailed = Definition{Code: "VERIFICATION_FAILED", Message: "verification failed"}
	SaveFailed         = Definition{Code: "SAVE_FAILED", Message: "Failed to save. Please try again."}
)

// 通用错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later"}
	InternalError   = Definition{Code: "INTERNAL_ERROR", Message: "Internal server error"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	ValidationFailed.Code:   ValidationFailed,
	VerificationFailed.Code: VerificationFailed,
	SaveFailed.Code:         SaveFailed,
	InvalidRequest.Code:     InvalidRequest,
	TooManyRequests.Code:    TooManyRequests,
	InternalError.Code:      InternalError,
}

// Get 根据错误码获取定义
func Get(code string) (Definition, bool) {
	def, ok := Lookup[code]
	return def, ok
}

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors 一次校验中累计的全部字段错误
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has 是否包含某个字段的错误
func (v ValidationErrors) Has(field string) bool {
	for _, fe := range v {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// StoreError 存储层读写失败
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// TransportError 短信通道调用失败，Error() 即写入派发记录的原因
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// 各 provider 共用的哨兵错误
var (
	ErrUnsupportedSMSProvider     = errors.New("unsupported SMS provider")
	ErrUnsupportedCaptchaProvider = errors.New("unsupported captcha provider")
	ErrCaptchaTokenRequired       = errors.New("captcha token is required")
	ErrCaptchaResponseNil         = errors.New("captcha response is nil")
	ErrCaptchaVerificationFailed  = errors.New("captcha verification failed")
	ErrSignNameRequired           = errors.New("sms sign name is required")
	ErrTemplateCodeRequired       = errors.New("sms template code is required")
)

// SkipMessageError 消费端主动跳过（重复消息等），ack 且不重试
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return e.Reason
}

// IsSkip 判断是否为可跳过的消息
func IsSkip(err error) bool {
	var skip *SkipMessageError
	return errors.As(err, &skip)
}
