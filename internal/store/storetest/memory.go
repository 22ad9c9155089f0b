// Package storetest 提供测试用的内存 Store
package storetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"DignityDialogue/internal/model"
	"DignityDialogue/internal/store"
	apperrors "DignityDialogue/pkg/errors"
)

// ErrInjected 注入的失败
var ErrInjected = errors.New("injected store failure")

// Memory 并发安全的内存实现，语义与 GormStore 一致
type Memory struct {
	mu       sync.Mutex
	requests map[string]*model.Request
	consents []model.ConsentRecord
	dispatch []model.DispatchRecord

	// FailOps 中列出的操作名直接返回 StoreError
	FailOps map[string]bool
	// Now 可替换的时钟，默认每次调用递增一毫秒，保证 created_at 有序
	Now func() time.Time

	clock time.Time
}

func NewMemory() *Memory {
	m := &Memory{
		requests: make(map[string]*model.Request),
		FailOps:  make(map[string]bool),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	m.Now = m.tick
	return m
}

func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

// Fail 让某个操作失败
func (m *Memory) Fail(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailOps[op] = true
}

func (m *Memory) failed(op string) error {
	if m.FailOps[op] {
		return &apperrors.StoreError{Op: op, Err: ErrInjected}
	}
	return nil
}

func (m *Memory) CreateRequest(ctx context.Context, req *model.Request) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failed("create_request"); err != nil {
		return nil, err
	}

	req.EnsureID()
	if req.Status == "" {
		req.Status = model.RequestStatusPending
	}
	now := m.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	stored := *req
	m.requests[req.ID] = &stored
	return req, nil
}

// PutRequest 直接写入任意状态的记录，用于构造测试场景
func (m *Memory) PutRequest(req model.Request) *model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	req.EnsureID()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = m.Now()
	}
	m.requests[req.ID] = &req
	out := req
	return &out
}

func (m *Memory) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failed("get_request"); err != nil {
		return nil, err
	}

	req, ok := m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *req
	return &out, nil
}

func (m *Memory) UpdateRequestStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failed("update_request_status"); err != nil {
		return nil, err
	}

	req, ok := m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !req.Status.CanTransitionTo(update.Status()) {
		return nil, store.ErrInvalidTransition
	}

	update.Apply(req, m.Now())
	out := *req
	return &out, nil
}

func (m *Memory) ListQueuedRequests(ctx context.Context, limit int) ([]model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failed("list_queued_requests"); err != nil {
		return nil, err
	}

	var out []model.Request
	for _, req := range m.requests {
		if req.Status == model.RequestStatusQueued {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CreateConsentRecord(ctx context.Context, rec *model.ConsentRecord) (*model.ConsentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failed("create_consent_record"); err != nil {
		return nil, err
	}
	if rec.IntakeID == "" {
		return nil, &apperrors.StoreError{Op: "create_consent_record", Err: errors.New("intake id is required")}
	}

	rec.EnsureID()
	rec.CreatedAt = m.Now()
	m.consents = append(m.consents, *rec)
	return rec, nil
}

func (m *Memory) ListConsentRecords(ctx context.Context, requestID string) ([]model.ConsentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failed("list_consent_records"); err != nil {
		return nil, err
	}

	var out []model.ConsentRecord
	for _, rec := range m.consents {
		if rec.IntakeID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) CreateDispatchRecord(ctx context.Context, rec *model.DispatchRecord) (*model.DispatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failed("create_dispatch_record"); err != nil {
		return nil, err
	}

	rec.EnsureID()
	now := m.Now()
	rec.CreatedAt = now
	if rec.SentAt.IsZero() {
		rec.SentAt = now
	}
	m.dispatch = append(m.dispatch, *rec)
	return rec, nil
}

func (m *Memory) ListDispatchRecords(ctx context.Context, requestID string) ([]model.DispatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failed("list_dispatch_records"); err != nil {
		return nil, err
	}

	var out []model.DispatchRecord
	for _, rec := range m.dispatch {
		if rec.IntakeID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// RequestCount 记录总数
func (m *Memory) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

var _ store.Store = (*Memory)(nil)
