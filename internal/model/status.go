package model

import (
	"time"
)

// RequestStatus 请求状态：pending -> queued -> sent / failed / rejected
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusQueued   RequestStatus = "queued"
	RequestStatusSent     RequestStatus = "sent"
	RequestStatusFailed   RequestStatus = "failed"
	RequestStatusRejected RequestStatus = "rejected"
)

// 每个目标状态允许的前置状态，queued -> queued 用于重复入队时刷新 processed_at
var predecessors = map[RequestStatus][]RequestStatus{
	RequestStatusQueued:   {RequestStatusPending, RequestStatusQueued},
	RequestStatusSent:     {RequestStatusQueued},
	RequestStatusFailed:   {RequestStatusQueued},
	RequestStatusRejected: {RequestStatusQueued},
}

// IsTerminal 终态没有出边
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusSent || s == RequestStatusFailed || s == RequestStatusRejected
}

// Predecessors 返回可以迁移到 s 的状态集合
func (s RequestStatus) Predecessors() []RequestStatus {
	return predecessors[s]
}

// CanTransitionTo 判断 s -> next 是否是合法边
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, from := range predecessors[next] {
		if from == s {
			return true
		}
	}
	return false
}

// StatusUpdate 状态迁移请求，只能通过 Mark* 构造，保证每种迁移带齐自己的字段
type StatusUpdate struct {
	status       RequestStatus
	errorMessage *string
}

// MarkQueued 入队，刷新 processed_at
func MarkQueued() StatusUpdate {
	return StatusUpdate{status: RequestStatusQueued}
}

// MarkSent 发送成功，写入 sent_at
func MarkSent() StatusUpdate {
	return StatusUpdate{status: RequestStatusSent}
}

// MarkFailed 通道发送失败
func MarkFailed(reason string) StatusUpdate {
	return StatusUpdate{status: RequestStatusFailed, errorMessage: &reason}
}

// MarkRejected 同意校验或内容策略拒绝
func MarkRejected(reason string) StatusUpdate {
	return StatusUpdate{status: RequestStatusRejected, errorMessage: &reason}
}

func (u StatusUpdate) Status() RequestStatus {
	return u.status
}

// ErrorMessage 仅 failed / rejected 携带
func (u StatusUpdate) ErrorMessage() (string, bool) {
	if u.errorMessage == nil {
		return "", false
	}
	return *u.errorMessage, true
}

// Columns 生成需要写入的列，key 为数据库列名
func (u StatusUpdate) Columns(now time.Time) map[string]interface{} {
	cols := map[string]interface{}{
		"status":     u.status,
		"updated_at": now,
	}

	switch u.status {
	case RequestStatusQueued:
		cols["processed_at"] = now
	case RequestStatusSent:
		cols["sent_at"] = now
	}

	if u.errorMessage != nil {
		cols["error_message"] = *u.errorMessage
	}

	return cols
}

// Apply 把迁移作用到内存中的记录上，与 Columns 保持一致
func (u StatusUpdate) Apply(r *Request, now time.Time) {
	r.Status = u.status
	r.UpdatedAt = now

	switch u.status {
	case RequestStatusQueued:
		t := now
		r.ProcessedAt = &t
	case RequestStatusSent:
		t := now
		r.SentAt = &t
	}

	if u.errorMessage != nil {
		msg := *u.errorMessage
		r.ErrorMessage = &msg
	}
}
