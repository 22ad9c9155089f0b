package utils

import "testing"

func TestValidatePhone(t *testing.T) {
	tests := map[string]bool{
		"+1234567890":       true,
		"+12":               true,
		"+442071838750":     true,
		"+123456789012345":  true,
		"+1234567890123456": false,
		"123-456-7890":      false,
		"+0123456789":       false,
		"+1":                false,
		"1234567890":        false,
		"+1 234 567 890":    false,
		"":                  false,
	}

	for in, want := range tests {
		if got := ValidatePhone(in); got != want {
			t.Fatalf("ValidatePhone(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != HashToken("token-a") {
		t.Fatalf("hash must be stable")
	}
	if a == HashToken("token-b") {
		t.Fatalf("different tokens must hash differently")
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("+15551234567"); got != "+15****67" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskPhone("+1"); got != "***" {
		t.Fatalf("unexpected mask %q", got)
	}
}
