package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow_WithinBudget(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("198.51.100.7") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("198.51.100.7") {
		t.Fatal("fourth request should be rejected")
	}
}

func TestAllow_PerIPIsolation(t *testing.T) {
	l := New(1, time.Minute)
	if !l.Allow("198.51.100.1") {
		t.Fatal("first IP should be allowed")
	}
	if !l.Allow("198.51.100.2") {
		t.Fatal("second IP has its own budget")
	}
	if l.Allow("198.51.100.1") {
		t.Fatal("first IP exhausted its budget")
	}
}

func TestAllow_WindowReset(t *testing.T) {
	l := New(1, 10*time.Millisecond)
	if !l.Allow("198.51.100.9") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("198.51.100.9") {
		t.Fatal("budget exhausted")
	}
	time.Sleep(15 * time.Millisecond)
	if !l.Allow("198.51.100.9") {
		t.Fatal("budget should refill after the window elapses")
	}
}

func TestClientIP_DirectConnectionIgnoresHeaders(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.5:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.99")
	if got := ClientIP(r); got != "203.0.113.5" {
		t.Fatalf("ClientIP = %q, want RemoteAddr host", got)
	}
}

func TestClientIP_TrustedProxyHonorsForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.3:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.77, 10.0.0.3")
	if got := ClientIP(r); got != "203.0.113.77" {
		t.Fatalf("ClientIP = %q, want first forwarded entry", got)
	}
}
