package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"DignityDialogue/internal/model"
	apperrors "DignityDialogue/pkg/errors"
)

// GormStore 基于 PostgreSQL 的实现
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:  db,
		now: time.Now,
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &apperrors.StoreError{Op: op, Err: err}
}

func (s *GormStore) CreateRequest(ctx context.Context, req *model.Request) (*model.Request, error) {
	if req.Status == "" {
		req.Status = model.RequestStatusPending
	}
	now := s.now()
	req.CreatedAt = now
	req.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, wrap("create_request", err)
	}
	return req, nil
}

func (s *GormStore) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	var req model.Request
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get_request", err)
	}
	return &req, nil
}

func (s *GormStore) UpdateRequestStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Request, error) {
	var updated *model.Request

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// WHERE status IN (...) 保证并发下只有一个进程能把记录移出 queued
		result := tx.Model(&model.Request{}).
			Where("id = ? AND status IN ?", id, update.Status().Predecessors()).
			Updates(update.Columns(s.now()))
		if result.Error != nil {
			return wrap("update_request_status", result.Error)
		}

		var req model.Request
		if err := tx.Where("id = ?", id).Take(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return wrap("update_request_status", err)
		}

		if result.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		updated = &req
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *GormStore) ListQueuedRequests(ctx context.Context, limit int) ([]model.Request, error) {
	var reqs []model.Request
	err := s.db.WithContext(ctx).
		Where("status = ?", model.RequestStatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, wrap("list_queued_requests", err)
	}
	return reqs, nil
}

func (s *GormStore) CreateConsentRecord(ctx context.Context, rec *model.ConsentRecord) (*model.ConsentRecord, error) {
	if rec.IntakeID == "" {
		return nil, wrap("create_consent_record", errors.New("intake id is required"))
	}
	rec.CreatedAt = s.now()

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, wrap("create_consent_record", err)
	}
	return rec, nil
}

func (s *GormStore) ListConsentRecords(ctx context.Context, requestID string) ([]model.ConsentRecord, error) {
	var recs []model.ConsentRecord
	err := s.db.WithContext(ctx).
		Where("intake_id = ?", requestID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, wrap("list_consent_records", err)
	}
	return recs, nil
}

func (s *GormStore) CreateDispatchRecord(ctx context.Context, rec *model.DispatchRecord) (*model.DispatchRecord, error) {
	now := s.now()
	rec.CreatedAt = now
	if rec.SentAt.IsZero() {
		rec.SentAt = now
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, wrap("create_dispatch_record", err)
	}
	return rec, nil
}

func (s *GormStore) ListDispatchRecords(ctx context.Context, requestID string) ([]model.DispatchRecord, error) {
	var recs []model.DispatchRecord
	err := s.db.WithContext(ctx).
		Where("intake_id = ?", requestID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, wrap("list_dispatch_records", err)
	}
	return recs, nil
}

var _ Store = (*GormStore)(nil)
