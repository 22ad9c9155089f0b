package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"DignityDialogue/internal/consent"
	"DignityDialogue/internal/model"
	"DignityDialogue/internal/queue"
	"DignityDialogue/internal/store"
	"DignityDialogue/internal/validate"
	"DignityDialogue/pkg/captcha"
	"DignityDialogue/pkg/errors"
	"DignityDialogue/pkg/metrics"
	"DignityDialogue/utils"
)

const (
	defaultTokenTTL       = 10 * time.Minute
	defaultPublishTimeout = 5 * time.Second
)

// 提交结果，用于指标标签
const (
	OutcomeAccepted           = "accepted"
	OutcomeInvalid            = "invalid"
	OutcomeVerificationFailed = "verification_failed"
	OutcomeSaveFailed         = "save_failed"
)

// TokenGuard 人机验证 token 只能用一次，由 cache.Cache 实现
type TokenGuard interface {
	MarkTokenUsed(ctx context.Context, tokenHash string, ttl time.Duration) (bool, error)
	ReleaseToken(ctx context.Context, tokenHash string) error
}

type IntakeOptions struct {
	// Tokens 为空时不做重放检查
	Tokens TokenGuard
	// Publisher 为空时不发确认通知
	Publisher      queue.Publisher
	Metrics        *metrics.Metrics
	TokenTTL       time.Duration
	PublishTimeout time.Duration
}

type SubmitResult struct {
	RequestID string
}

// IntakeService 提交编排：校验 -> 人机验证 -> 落库 -> 同意日志 -> 入队 -> 确认通知
type IntakeService struct {
	store     store.Store
	recorder  *consent.Recorder
	gate      captcha.Client
	tokens    TokenGuard
	publisher queue.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger

	tokenTTL       time.Duration
	publishTimeout time.Duration

	inflight sync.WaitGroup
}

func NewIntakeService(s store.Store, gate captcha.Client, logger *zap.Logger, opts IntakeOptions) *IntakeService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	if opts.Publisher == nil {
		opts.Publisher = queue.NopPublisher{}
	}

	return &IntakeService{
		store:          s,
		recorder:       consent.NewRecorder(s, logger),
		gate:           gate,
		tokens:         opts.Tokens,
		publisher:      opts.Publisher,
		metrics:        opts.Metrics,
		logger:         logger,
		tokenTTL:       opts.TokenTTL,
		publishTimeout: opts.PublishTimeout,
	}
}

// Submit 成功返回 request id。
// 返回的错误是 errors.ValidationErrors 或 errors.Definition，可以直接交给 response 层。
func (s *IntakeService) Submit(ctx context.Context, raw model.IntakeSubmission, prov model.Provenance) (*SubmitResult, error) {
	validated, verrs := validate.Intake(raw)
	if verrs != nil {
		s.metrics.RecordSubmission(ctx, OutcomeInvalid)
		return nil, verrs
	}

	tokenHash := utils.HashToken(validated.VerificationToken)
	if err := s.verify(ctx, validated.VerificationToken, tokenHash, prov); err != nil {
		s.metrics.RecordSubmission(ctx, OutcomeVerificationFailed)
		return nil, err
	}

	created, err := s.store.CreateRequest(ctx, validated.ToRequest(tokenHash))
	if err != nil {
		s.logger.Error("Failed to create request",
			zap.String("op", "create_request"),
			zap.Error(err),
		)
		s.releaseToken(ctx, tokenHash)
		s.metrics.RecordSubmission(ctx, OutcomeSaveFailed)
		return nil, errors.SaveFailed
	}

	log := s.logger.With(zap.String("request_id", created.ID))

	if err := s.recorder.Record(ctx, created.ID, validated.ConsentElderConfirmed, validated.ConsentNoImpersonation, prov); err != nil {
		// pending 记录已经落库，不会被 worker 捞起
		log.Error("Failed to record consent, request left pending",
			zap.String("op", "record_consent"),
			zap.Error(err),
		)
		s.metrics.RecordSubmission(ctx, OutcomeSaveFailed)
		return nil, errors.SaveFailed
	}

	if _, err := s.store.UpdateRequestStatus(ctx, created.ID, model.MarkQueued()); err != nil {
		log.Error("Failed to queue request, request left pending",
			zap.String("op", "update_request_status"),
			zap.Error(err),
		)
		s.metrics.RecordSubmission(ctx, OutcomeSaveFailed)
		return nil, errors.SaveFailed
	}

	s.publishConfirmation(ctx, created)

	log.Info("Intake request queued",
		zap.String("message_type", string(created.MessageType)),
		zap.String("phone", utils.MaskPhone(created.ElderPhone)),
	)
	s.metrics.RecordSubmission(ctx, OutcomeAccepted)

	return &SubmitResult{RequestID: created.ID}, nil
}

func (s *IntakeService) verify(ctx context.Context, token, tokenHash string, prov model.Provenance) error {
	ok, err := s.gate.Verify(ctx, token, prov.IPAddress)
	if err != nil {
		s.logger.Warn("Human verification errored", zap.String("ip", prov.IPAddress), zap.Error(err))
		return errors.VerificationFailed
	}
	if !ok {
		s.logger.Info("Human verification rejected", zap.String("ip", prov.IPAddress))
		return errors.VerificationFailed
	}

	if s.tokens == nil {
		return nil
	}

	first, err := s.tokens.MarkTokenUsed(ctx, tokenHash, s.tokenTTL)
	if err != nil {
		// Redis 不可用时放行，提供方自身也会拒绝重复 token
		s.logger.Warn("Failed to check token reuse", zap.Error(err))
		return nil
	}
	if !first {
		s.logger.Info("Verification token replayed", zap.String("ip", prov.IPAddress))
		return errors.VerificationFailed
	}
	return nil
}

func (s *IntakeService) releaseToken(ctx context.Context, tokenHash string) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.ReleaseToken(ctx, tokenHash); err != nil {
		s.logger.Warn("Failed to release verification token", zap.Error(err))
	}
}

// publishConfirmation 不阻塞响应，失败只记日志
func (s *IntakeService) publishConfirmation(ctx context.Context, req *model.Request) {
	msg := model.ConfirmationMessage{
		IntakeID:         req.ID,
		RequesterName:    req.RequesterName,
		RequesterContact: req.RequesterContact,
		SubmittedAt:      req.CreatedAt.UTC().Format(time.RFC3339),
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		defer cancel()

		if err := s.publisher.PublishConfirmation(pubCtx, msg); err != nil {
			s.logger.Warn("Failed to publish intake confirmation",
				zap.String("request_id", req.ID),
				zap.Error(err),
			)
		}
	}()
}

// Wait 等待尚未完成的确认通知，关闭 MQ 前调用
func (s *IntakeService) Wait() {
	s.inflight.Wait()
}
