package store

import (
	"context"
	"errors"

	"DignityDialogue/internal/model"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrInvalidTransition 当前状态不允许迁移到目标状态（包括并发下已被其他进程迁移）
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store 三张表的读写接口，业务规则不在这一层
type Store interface {
	CreateRequest(ctx context.Context, req *model.Request) (*model.Request, error)
	GetRequest(ctx context.Context, id string) (*model.Request, error)
	// UpdateRequestStatus 条件更新：仅当当前状态是目标状态的合法前置状态时生效
	UpdateRequestStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Request, error)
	// ListQueuedRequests 按 created_at 升序返回最多 limit 条 queued 记录
	ListQueuedRequests(ctx context.Context, limit int) ([]model.Request, error)

	CreateConsentRecord(ctx context.Context, rec *model.ConsentRecord) (*model.ConsentRecord, error)
	ListConsentRecords(ctx context.Context, requestID string) ([]model.ConsentRecord, error)

	CreateDispatchRecord(ctx context.Context, rec *model.DispatchRecord) (*model.DispatchRecord, error)
	ListDispatchRecords(ctx context.Context, requestID string) ([]model.DispatchRecord, error)
}
