package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGet(t *testing.T) {
	def, ok := Get("SAVE_FAILED")
	if !ok {
		t.Fatalf("expected SAVE_FAILED to be registered")
	}
	if def.Message != "Failed to save. Please try again." {
		t.Fatalf("unexpected message %q", def.Message)
	}
	if _, ok := Get("NOPE"); ok {
		t.Fatalf("expected unknown code to miss")
	}
}

func TestValidationErrors(t *testing.T) {
	v := ValidationErrors{
		{Field: "elder_phone", Message: "Phone must be in E.164 format"},
		{Field: "elder_age", Message: "Age must be 0 or greater"},
	}

	if !v.Has("elder_age") {
		t.Fatalf("expected elder_age to be present")
	}
	if v.Has("elder_name") {
		t.Fatalf("did not expect elder_name")
	}

	want := "validation failed: elder_phone: Phone must be in E.164 format; elder_age: Age must be 0 or greater"
	if v.Error() != want {
		t.Fatalf("expected %q, got %q", want, v.Error())
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("wrap: %w", &StoreError{Op: "create_request", Err: base})

	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError in chain")
	}
	if se.Op != "create_request" {
		t.Fatalf("unexpected op %q", se.Op)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to be reachable")
	}
}

func TestTransportError_MessageIsProviderText(t *testing.T) {
	err := &TransportError{Provider: "twilio", Err: errors.New("Invalid 'To' Phone Number")}
	if err.Error() != "Invalid 'To' Phone Number" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsSkip(t *testing.T) {
	if !IsSkip(fmt.Errorf("outer: %w", &SkipMessageError{Reason: "dup"})) {
		t.Fatalf("expected wrapped skip error to be detected")
	}
	if IsSkip(errors.New("boom")) {
		t.Fatalf("plain error is not a skip")
	}
}
