package model

import (
	"testing"
	"time"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestStatusPending, RequestStatusQueued, true},
		{RequestStatusQueued, RequestStatusQueued, true},
		{RequestStatusQueued, RequestStatusSent, true},
		{RequestStatusQueued, RequestStatusFailed, true},
		{RequestStatusQueued, RequestStatusRejected, true},
		{RequestStatusPending, RequestStatusSent, false},
		{RequestStatusSent, RequestStatusQueued, false},
		{RequestStatusFailed, RequestStatusQueued, false},
		{RequestStatusRejected, RequestStatusSent, false},
		{RequestStatusQueued, RequestStatusPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []RequestStatus{RequestStatusSent, RequestStatusFailed, RequestStatusRejected} {
		if !s.IsTerminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	for _, s := range []RequestStatus{RequestStatusPending, RequestStatusQueued} {
		if s.IsTerminal() {
			t.Fatalf("expected %s to be non-terminal", s)
		}
	}
}

func TestStatusUpdate_Columns(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	queued := MarkQueued().Columns(now)
	if queued["processed_at"] != now {
		t.Fatalf("queued must stamp processed_at, got %v", queued)
	}
	if _, ok := queued["sent_at"]; ok {
		t.Fatalf("queued must not stamp sent_at")
	}
	if _, ok := queued["error_message"]; ok {
		t.Fatalf("queued must not touch error_message")
	}

	sent := MarkSent().Columns(now)
	if sent["sent_at"] != now || sent["status"] != RequestStatusSent {
		t.Fatalf("unexpected sent columns %v", sent)
	}

	failed := MarkFailed("carrier unreachable").Columns(now)
	if failed["error_message"] != "carrier unreachable" {
		t.Fatalf("failed must carry error message, got %v", failed)
	}
	if _, ok := failed["sent_at"]; ok {
		t.Fatalf("failed must not stamp sent_at")
	}
}

func TestStatusUpdate_ApplyMatchesColumns(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := &Request{Status: RequestStatusQueued}

	MarkRejected("Impersonation attempt detected").Apply(r, now)

	if r.Status != RequestStatusRejected {
		t.Fatalf("expected rejected, got %s", r.Status)
	}
	if r.ErrorMessage == nil || *r.ErrorMessage != "Impersonation attempt detected" {
		t.Fatalf("unexpected error message %v", r.ErrorMessage)
	}
	if r.SentAt != nil {
		t.Fatalf("rejected must not set sent_at")
	}
	if !r.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, r.UpdatedAt)
	}

	msg, ok := MarkRejected("x").ErrorMessage()
	if !ok || msg != "x" {
		t.Fatalf("expected error message x, got %q %v", msg, ok)
	}
	if _, ok := MarkSent().ErrorMessage(); ok {
		t.Fatalf("sent carries no error message")
	}
}

func TestMessageTypeValid(t *testing.T) {
	if !MessageType("check_in").Valid() {
		t.Fatalf("check_in should be valid")
	}
	if MessageType("anniversary").Valid() {
		t.Fatalf("anniversary should be invalid")
	}
}
