package consent

import (
	"context"
	"errors"

	"DignityDialogue/internal/model"
	"DignityDialogue/internal/store"
)

// 拒绝原因会写入 Request.error_message 和派发日志
const (
	ReasonNotFound              = "Intake record not found"
	ReasonRecipientNotConfirmed = "Elder consent not confirmed"
	ReasonNoImpersonationNotSet = "No impersonation consent not confirmed"
	ReasonLogsIncomplete        = "Consent logs incomplete"
)

// Verdict 核对结果
type Verdict struct {
	Valid  bool
	Reason string
	// Request 最新读取的记录，未找到时为 nil
	Request *model.Request
}

// Verify 重新读取记录，要求两个布尔字段为 true 且两种类型都有 consented=true 的日志。
// 存储故障以 error 返回，由调用方留到下一轮，不算作拒绝。
func Verify(ctx context.Context, s store.Store, requestID string) (Verdict, error) {
	req, err := s.GetRequest(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return Verdict{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return Verdict{}, err
	}

	if !req.ConsentElderConfirmed {
		return Verdict{Reason: ReasonRecipientNotConfirmed, Request: req}, nil
	}
	if !req.ConsentNoImpersonation {
		return Verdict{Reason: ReasonNoImpersonationNotSet, Request: req}, nil
	}

	records, err := s.ListConsentRecords(ctx, requestID)
	if err != nil {
		return Verdict{Request: req}, err
	}

	var recipient, noImpersonation bool
	for _, rec := range records {
		if !rec.Consented {
			continue
		}
		switch rec.ConsentType {
		case model.ConsentTypeRecipient:
			recipient = true
		case model.ConsentTypeNoImpersonation:
			noImpersonation = true
		}
	}

	if !recipient || !noImpersonation {
		return Verdict{Reason: ReasonLogsIncomplete, Request: req}, nil
	}

	return Verdict{Valid: true, Request: req}, nil
}
