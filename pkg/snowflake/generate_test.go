package snowflake

import "testing"

func TestGenerate(t *testing.T) {
	if err := Init(1, 1); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	a, err := NextID()
	if err != nil {
		t.Fatalf("NextID() error: %v", err)
	}
	b, _ := NextID()
	if b <= a {
		t.Fatalf("expected increasing ids, got %d then %d", a, b)
	}

	s, err := NextString()
	if err != nil || s == "" {
		t.Fatalf("NextString() = %q, %v", s, err)
	}
}
