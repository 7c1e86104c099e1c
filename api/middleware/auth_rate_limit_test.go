package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type stubRateLimiter struct {
	counts map[string]int64
}

func newStubRateLimiter() *stubRateLimiter {
	return &stubRateLimiter{counts: make(map[string]int64)}
}

func (s *stubRateLimiter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.counts[key]++
	return s.counts[key], nil
}

func loginRequest(email, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"`+email+`","password":"secret123"}`))
	req.RemoteAddr = ip + ":52100"
	return req
}

func TestAuthRateLimitBlocksEmailAfterLimit(t *testing.T) {
	store := newStubRateLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 100, 3)
	mw := AuthRateLimit(policy, store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, loginRequest("alice@example.com", "10.0.0.1"))
		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, loginRequest("Alice@Example.com", "10.0.0.2"))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding email limit, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "RATE_LIMIT_EXCEEDED") {
		t.Fatalf("expected rate limit error code, got %s", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, loginRequest("bob@example.com", "10.0.0.3"))
	if resp.Code != http.StatusOK {
		t.Fatalf("other emails must still pass, got %d", resp.Code)
	}
}

func TestAuthRateLimitBlocksIPAfterLimit(t *testing.T) {
	store := newStubRateLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 100)
	mw := AuthRateLimit(policy, store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, loginRequest("user"+string(rune('a'+i))+"@example.com", "10.0.0.9"))
		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, loginRequest("another@example.com", "10.0.0.9"))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding ip limit, got %d", resp.Code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	mw := AuthRateLimit(AuthRateLimitPolicy{}, newStubRateLimiter(), nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, loginRequest("alice@example.com", "10.0.0.1"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected pass-through for disabled policy, got %d", resp.Code)
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}
}
