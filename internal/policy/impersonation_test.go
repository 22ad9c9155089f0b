package policy

import "testing"

func TestDetectImpersonation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		category    string
		other       string
		personality string
		want        bool
	}{
		{"relative claim", "birthday", "", "Your son sent me", true},
		{"clean", "birthday", "", "Friendly and enjoys gardening", false},
		{"claim in qualifier", "other", "From your family with love", "Enjoys jazz records", true},
		{"upper case", "holiday", "", "THIS IS YOUR NIECE", true},
		{"substring match", "check_in", "", "Loves the seasons changing", true},
		{"mom substring", "encouragement", "", "Enjoys every moment outdoors", true},
		{"first person phrase", "check_in", "", "i am your friend from church", true},
		{"neighbour", "check_in", "", "A neighbour who enjoys crosswords", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectImpersonation("Jane Smith", tt.category, tt.other, tt.personality); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDetectImpersonation_IgnoresRecipientName(t *testing.T) {
	t.Parallel()

	if DetectImpersonation("Madison Sonders", "birthday", "", "Enjoys puzzles and tea") {
		t.Fatalf("recipient name must not be scanned")
	}
}

func TestImpersonationKeywords_Verbatim(t *testing.T) {
	t.Parallel()

	if len(ImpersonationKeywords) != 22 {
		t.Fatalf("expected 22 keywords, got %d", len(ImpersonationKeywords))
	}
	if ImpersonationKeywords[18] != "I am your" {
		t.Fatalf("unexpected keyword %q", ImpersonationKeywords[18])
	}
}

func TestContainsKeyword(t *testing.T) {
	t.Parallel()

	if kw, ok := ContainsKeyword("Greetings from your neighbour"); !ok || kw != "from your" {
		t.Fatalf("expected from your, got %q %v", kw, ok)
	}
	if _, ok := ContainsKeyword("Warm wishes today"); ok {
		t.Fatalf("did not expect a match")
	}
}
