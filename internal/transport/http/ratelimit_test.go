package http

import "testing"

func TestRateLimiterBurst(t *testing.T) {
	limiter := newRateLimiter(3)
	for i := range 3 {
		if !limiter.allow() {
			t.Fatalf("frame %d should be allowed", i)
		}
	}
	if limiter.allow() {
		t.Fatal("fourth frame within the minute should be limited")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0)
	for range 1000 {
		if !limiter.allow() {
			t.Fatal("disabled limiter must allow everything")
		}
	}
}
