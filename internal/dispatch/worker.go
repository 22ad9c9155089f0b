package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"DignityDialogue/internal/cache"
	"DignityDialogue/internal/consent"
	"DignityDialogue/internal/message"
	"DignityDialogue/internal/model"
	"DignityDialogue/internal/policy"
	"DignityDialogue/internal/store"
	"DignityDialogue/pkg/metrics"
	"DignityDialogue/pkg/sms"
	"DignityDialogue/utils"
)

const (
	DefaultBatchSize = 10
	DefaultClaimTTL  = 2 * time.Minute

	// ReasonImpersonation 写入派发日志
	ReasonImpersonation = "Impersonation attempt detected"
	// RequestReasonImpersonation 写入 Request.error_message
	RequestReasonImpersonation = "Message content attempts to impersonate a relative - rejected"
	requestReasonConsentPrefix = "Consent verification failed: "
)

// Outcome 单条请求在一个周期里的结果
type Outcome string

const (
	OutcomeSent     Outcome = "sent"
	OutcomeFailed   Outcome = "failed"
	OutcomeRejected Outcome = "rejected"
	// OutcomeSkipped 请求保持 queued，留给下一轮
	OutcomeSkipped Outcome = "skipped"
)

// CycleReport 一个周期的统计
type CycleReport struct {
	Fetched  int
	Sent     int
	Failed   int
	Rejected int
	Skipped  int
}

func (r *CycleReport) add(o Outcome) {
	switch o {
	case OutcomeSent:
		r.Sent++
	case OutcomeFailed:
		r.Failed++
	case OutcomeRejected:
		r.Rejected++
	default:
		r.Skipped++
	}
}

// Locker 单条请求的认领锁，跨 worker 实例防止重复发送
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (*cache.Lock, error)
	Unlock(ctx context.Context, l *cache.Lock) error
}

var _ Locker = (*cache.Cache)(nil)

type Options struct {
	BatchSize int
	ClaimTTL  time.Duration
	// Locker 为空时不做认领，依赖调度方保证同一时间只有一个周期
	Locker    Locker
	Generator *message.Generator
	Metrics   *metrics.Metrics
}

// Worker 每次 RunCycle 处理一页 queued 请求，逐条串行
type Worker struct {
	store     store.Store
	sms       sms.Client
	generator *message.Generator
	locker    Locker
	metrics   *metrics.Metrics
	logger    *zap.Logger
	batchSize int
	claimTTL  time.Duration
}

func NewWorker(s store.Store, client sms.Client, logger *zap.Logger, opts Options) *Worker {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = DefaultClaimTTL
	}
	if opts.Generator == nil {
		opts.Generator = message.NewGenerator(nil)
	}

	return &Worker{
		store:     s,
		sms:       client,
		generator: opts.Generator,
		locker:    opts.Locker,
		metrics:   opts.Metrics,
		logger:    logger,
		batchSize: opts.BatchSize,
		claimTTL:  opts.ClaimTTL,
	}
}

// RunCycle 列表查询失败时返回 error，单条请求的存储故障只记日志
func (w *Worker) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	requests, err := w.store.ListQueuedRequests(ctx, w.batchSize)
	if err != nil {
		return report, fmt.Errorf("list queued requests: %w", err)
	}

	report.Fetched = len(requests)
	if len(requests) == 0 {
		w.logger.Info("Nothing to process")
		return report, nil
	}

	w.logger.Info("Found queued requests", zap.Int("count", len(requests)))

	for i := range requests {
		if err := ctx.Err(); err != nil {
			report.Skipped += len(requests) - i
			return report, err
		}

		outcome := w.process(ctx, requests[i].ID)
		report.add(outcome)
		w.metrics.RecordDispatch(ctx, string(outcome))
	}

	w.logger.Info("Dispatch cycle complete",
		zap.Int("fetched", report.Fetched),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("rejected", report.Rejected),
		zap.Int("skipped", report.Skipped),
	)

	return report, nil
}

func (w *Worker) process(ctx context.Context, requestID string) Outcome {
	log := w.logger.With(zap.String("request_id", requestID))

	if w.locker != nil {
		lock, err := w.locker.TryLock(ctx, "dispatch:"+requestID, w.claimTTL)
		if err != nil {
			log.Warn("Failed to claim request", zap.Error(err))
			return OutcomeSkipped
		}
		if lock == nil {
			log.Info("Request claimed by another worker, skipping")
			return OutcomeSkipped
		}
		defer func() {
			if err := w.locker.Unlock(context.WithoutCancel(ctx), lock); err != nil {
				log.Warn("Failed to release claim", zap.Error(err))
			}
		}()
	}

	verdict, err := consent.Verify(ctx, w.store, requestID)
	if err != nil {
		log.Error("Failed to verify consent", zap.String("op", "verify_consent"), zap.Error(err))
		return OutcomeSkipped
	}

	req := verdict.Request
	if req == nil {
		log.Warn("Queued request disappeared before processing")
		return OutcomeSkipped
	}
	if req.Status != model.RequestStatusQueued {
		log.Info("Request already handled, skipping", zap.String("status", string(req.Status)))
		return OutcomeSkipped
	}

	if !verdict.Valid {
		log.Info("Consent verification failed", zap.String("reason", verdict.Reason))
		return w.finalize(ctx, log, req,
			model.MarkRejected(requestReasonConsentPrefix+verdict.Reason),
			model.DispatchRecord{Status: model.DispatchStatusRejected, ErrorMessage: strPtr(verdict.Reason)},
		)
	}

	if policy.DetectImpersonation(req.ElderName, string(req.MessageType), req.Qualifier(), req.ElderPersonality) {
		log.Info("Impersonation detected, rejecting")
		return w.finalize(ctx, log, req,
			model.MarkRejected(RequestReasonImpersonation),
			model.DispatchRecord{Status: model.DispatchStatusRejected, ErrorMessage: strPtr(ReasonImpersonation)},
		)
	}

	content := w.generator.Generate(req.ElderName, req.MessageType, req.Qualifier(), req.ElderPersonality)

	start := time.Now()
	resp, err := w.sms.Send(ctx, req.ElderPhone, content)
	elapsed := time.Since(start).Seconds()

	if stderrors.Is(err, sms.ErrCircuitOpen) {
		log.Warn("SMS transport unavailable, leaving request queued")
		return OutcomeSkipped
	}

	if err != nil {
		w.metrics.RecordSMSSend(ctx, w.sms.Provider(), "error", elapsed)
		log.Warn("Failed to send message",
			zap.String("phone", utils.MaskPhone(req.ElderPhone)),
			zap.Error(err),
		)
		reason := err.Error()
		return w.finalize(ctx, log, req,
			model.MarkFailed(reason),
			model.DispatchRecord{
				Status:         model.DispatchStatusFailed,
				MessageContent: strPtr(content),
				ErrorMessage:   strPtr(reason),
			},
		)
	}

	w.metrics.RecordSMSSend(ctx, w.sms.Provider(), "ok", elapsed)
	return w.finalize(ctx, log, req,
		model.MarkSent(),
		model.DispatchRecord{
			Status:            model.DispatchStatusSent,
			ProviderMessageID: strPtr(resp.MessageID),
			MessageContent:    strPtr(content),
		},
	)
}

// finalize 先做条件状态迁移，成功后再写派发日志
func (w *Worker) finalize(ctx context.Context, log *zap.Logger, req *model.Request, update model.StatusUpdate, record model.DispatchRecord) Outcome {
	updated, err := w.store.UpdateRequestStatus(ctx, req.ID, update)
	if stderrors.Is(err, store.ErrInvalidTransition) {
		log.Warn("Request left queued concurrently, outcome not recorded",
			zap.String("target", string(update.Status())),
		)
		return OutcomeSkipped
	}
	if err != nil {
		log.Error("Failed to update request status",
			zap.String("op", "update_request_status"),
			zap.String("target", string(update.Status())),
			zap.Error(err),
		)
		return OutcomeSkipped
	}

	record.IntakeID = req.ID
	record.SentTo = req.ElderPhone
	if updated.SentAt != nil {
		record.SentAt = *updated.SentAt
	} else {
		record.SentAt = updated.UpdatedAt
	}

	if _, err := w.store.CreateDispatchRecord(ctx, &record); err != nil {
		log.Error("Failed to write dispatch record",
			zap.String("op", "create_dispatch_record"),
			zap.String("status", string(record.Status)),
			zap.Error(err),
		)
	}

	log.Info("Request dispatched", zap.String("status", string(update.Status())))
	return Outcome(update.Status())
}

func strPtr(s string) *string {
	return &s
}
