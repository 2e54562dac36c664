package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(60, 2) // one token per second
	l.now = func() time.Time { return clock }

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Error("third request should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}

	clock = clock.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("token should refill after a second")
	}

	clock = clock.Add(limiterTTL + time.Second)
	l.Allow("10.0.0.3")
	if _, ok := l.clients["10.0.0.2"]; ok {
		t.Error("idle client should be evicted")
	}
}

func TestClientKey(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:5432": "127.0.0.1",
		"[::1]:80":       "::1",
		"pipe":           "pipe",
	}
	for addr, want := range tests {
		if got := clientKey(addr); got != want {
			t.Errorf("clientKey(%q) = %q, want %q", addr, got, want)
		}
	}
}
