package limiter

import "testing"

func TestAllowWithinBurst(t *testing.T) {
	m := NewMessageLimiter(1, 5, 3)

	for i := 0; i < 5; i++ {
		if !m.Allow() {
			t.Fatalf("frame %d rejected inside the burst capacity", i)
		}
	}
	if m.Allow() {
		t.Fatal("frame allowed after the burst was spent")
	}
}

func TestExhaustedAfterConsecutiveStrikes(t *testing.T) {
	m := NewMessageLimiter(1, 1, 3)
	m.Allow() // spend the burst

	for i := 0; i < 2; i++ {
		m.Allow()
		if m.Exhausted() {
			t.Fatalf("exhausted after %d strikes, tolerance is 3", i+1)
		}
	}
	m.Allow()
	if !m.Exhausted() {
		t.Fatal("not exhausted after 3 consecutive strikes")
	}
}

func TestAllowedFrameResetsStrikes(t *testing.T) {
	m := NewMessageLimiter(1000, 1, 2)
	m.Allow()

	// Strike once, then wait for a token so the next frame passes.
	m.Allow()
	for !m.Allow() {
	}
	if m.Exhausted() {
		t.Fatal("strikes survived an allowed frame")
	}
}
