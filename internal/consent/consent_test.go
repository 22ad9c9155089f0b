package consent

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"DignityDialogue/internal/model"
	"DignityDialogue/internal/store/storetest"
	apperrors "DignityDialogue/pkg/errors"
)

var prov = model.Provenance{IPAddress: "203.0.113.7", UserAgent: "Mozilla/5.0"}

func TestRecord_WritesBothTypes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := storetest.NewMemory()
	r := NewRecorder(mem, zap.NewNop())

	if err := r.Record(ctx, "req-1", true, true, prov); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	recs, _ := mem.ListConsentRecords(ctx, "req-1")
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ConsentType != model.ConsentTypeRecipient || recs[1].ConsentType != model.ConsentTypeNoImpersonation {
		t.Fatalf("unexpected types %s, %s", recs[0].ConsentType, recs[1].ConsentType)
	}
	for _, rec := range recs {
		if !rec.Consented {
			t.Fatalf("expected consented=true for %s", rec.ConsentType)
		}
		if rec.IPAddress != prov.IPAddress || rec.UserAgent != prov.UserAgent {
			t.Fatalf("provenance not recorded: %+v", rec)
		}
	}
}

func TestRecord_LogsNegativeConsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := storetest.NewMemory()
	r := NewRecorder(mem, zap.NewNop())

	if err := r.Record(ctx, "req-2", false, true, prov); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	recs, _ := mem.ListConsentRecords(ctx, "req-2")
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Consented {
		t.Fatalf("expected recipient consent to be recorded as false")
	}
}

func TestRecord_PropagatesStoreError(t *testing.T) {
	t.Parallel()

	mem := storetest.NewMemory()
	mem.Fail("create_consent_record")
	r := NewRecorder(mem, zap.NewNop())

	err := r.Record(context.Background(), "req-3", true, true, prov)
	var se *apperrors.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}

func seed(t *testing.T, mem *storetest.Memory, req model.Request, recipient, noImp *bool) string {
	t.Helper()
	stored := mem.PutRequest(req)
	ctx := context.Background()
	if recipient != nil {
		_, _ = mem.CreateConsentRecord(ctx, &model.ConsentRecord{IntakeID: stored.ID, ConsentType: model.ConsentTypeRecipient, Consented: *recipient})
	}
	if noImp != nil {
		_, _ = mem.CreateConsentRecord(ctx, &model.ConsentRecord{IntakeID: stored.ID, ConsentType: model.ConsentTypeNoImpersonation, Consented: *noImp})
	}
	return stored.ID
}

func TestVerify(t *testing.T) {
	t.Parallel()

	yes, no := true, false
	ok := model.Request{Status: model.RequestStatusQueued, ConsentElderConfirmed: true, ConsentNoImpersonation: true}

	tests := []struct {
		name       string
		req        model.Request
		recipient  *bool
		noImp      *bool
		wantValid  bool
		wantReason string
	}{
		{"valid", ok, &yes, &yes, true, ""},
		{"recipient flag false", model.Request{ConsentNoImpersonation: true}, &yes, &yes, false, ReasonRecipientNotConfirmed},
		{"no impersonation flag false", model.Request{ConsentElderConfirmed: true}, &yes, &yes, false, ReasonNoImpersonationNotSet},
		{"missing log", ok, &yes, nil, false, ReasonLogsIncomplete},
		{"negative log", ok, &yes, &no, false, ReasonLogsIncomplete},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mem := storetest.NewMemory()
			id := seed(t, mem, tt.req, tt.recipient, tt.noImp)

			v, err := Verify(context.Background(), mem, id)
			if err != nil {
				t.Fatalf("Verify() error: %v", err)
			}
			if v.Valid != tt.wantValid || v.Reason != tt.wantReason {
				t.Fatalf("expected valid=%v reason=%q, got valid=%v reason=%q", tt.wantValid, tt.wantReason, v.Valid, v.Reason)
			}
			if v.Request == nil || v.Request.ID != id {
				t.Fatalf("expected fresh request to be returned")
			}
		})
	}
}

func TestVerify_NotFound(t *testing.T) {
	t.Parallel()

	v, err := Verify(context.Background(), storetest.NewMemory(), "missing")
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if v.Valid || v.Reason != ReasonNotFound {
		t.Fatalf("expected not found verdict, got %+v", v)
	}
}

func TestVerify_StoreFailureIsNotARejection(t *testing.T) {
	t.Parallel()

	mem := storetest.NewMemory()
	id := mem.PutRequest(model.Request{ConsentElderConfirmed: true, ConsentNoImpersonation: true}).ID
	mem.Fail("list_consent_records")

	if _, err := Verify(context.Background(), mem, id); err == nil {
		t.Fatalf("expected store error to be returned")
	}
}
