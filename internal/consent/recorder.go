// Package consent 同意审计：提交时落两条日志，派发前再核对一次
package consent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"DignityDialogue/internal/model"
	"DignityDialogue/internal/store"
)

// Recorder 写入同意日志
type Recorder struct {
	store  store.Store
	logger *zap.Logger
}

func NewRecorder(s store.Store, logger *zap.Logger) *Recorder {
	return &Recorder{store: s, logger: logger}
}

// Record 无论取值真假都写两条，保留否定同意的审计痕迹
func (r *Recorder) Record(ctx context.Context, requestID string, recipientConsent, noImpersonation bool, prov model.Provenance) error {
	entries := []struct {
		consentType model.ConsentType
		consented   bool
	}{
		{model.ConsentTypeRecipient, recipientConsent},
		{model.ConsentTypeNoImpersonation, noImpersonation},
	}

	for _, e := range entries {
		rec := &model.ConsentRecord{
			IntakeID:    requestID,
			ConsentType: e.consentType,
			Consented:   e.consented,
			IPAddress:   prov.IPAddress,
			UserAgent:   prov.UserAgent,
		}
		if _, err := r.store.CreateConsentRecord(ctx, rec); err != nil {
			r.logger.Error("Failed to record consent",
				zap.String("request_id", requestID),
				zap.String("consent_type", string(e.consentType)),
				zap.Error(err),
			)
			return fmt.Errorf("record %s consent: %w", e.consentType, err)
		}
	}

	return nil
}
