package ratelimit

import "testing"

func TestAllowWithinCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		if !l.Allow("1.2.3.4", 5, 1) {
			t.Fatalf("request %d should pass within capacity", i+1)
		}
	}
	if l.Allow("1.2.3.4", 5, 1) {
		t.Fatalf("request over capacity should be rejected")
	}
}

func TestAllowKeysIsolated(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		l.Allow("a", 3, 1)
	}
	if l.Allow("a", 3, 1) {
		t.Fatalf("exhausted key should be rejected")
	}
	if !l.Allow("b", 3, 1) {
		t.Fatalf("fresh key must have its own bucket")
	}
}
