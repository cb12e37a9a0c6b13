package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"decision-hub/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimitedHandler(rl *RateLimiter) http.Handler {
	return rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(handler http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/decisions", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterInMemory(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 2, Duration: time.Minute}, nil, "test:")
	defer rl.Close()
	handler := newLimitedHandler(rl)

	for i := 0; i < 2; i++ {
		if code := hit(handler, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := hit(handler, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", code)
	}
	if code := hit(handler, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("Expected other client to pass, got %d", code)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: false, Requests: 1, Duration: time.Minute}, nil, "test:")
	defer rl.Close()
	handler := newLimitedHandler(rl)

	for i := 0; i < 5; i++ {
		if code := hit(handler, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, code)
		}
	}
}

func TestRateLimiterRedisWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 3, Duration: time.Minute}, client, "test:")
	defer rl.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if !rl.Allow(ctx, "10.0.0.1") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	if rl.Allow(ctx, "10.0.0.1") {
		t.Error("Fourth request should be limited")
	}

	if !mr.Exists("test:ratelimit:10.0.0.1") {
		t.Fatal("Expected window key in Redis")
	}
	if ttl := mr.TTL("test:ratelimit:10.0.0.1"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("Unexpected window TTL %s", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if !rl.Allow(ctx, "10.0.0.1") {
		t.Error("Request after the window should be allowed")
	}
}

func TestRateLimiterRedisFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 1, Duration: time.Minute}, client, "test:")
	defer rl.Close()

	ctx := context.Background()
	if !rl.Allow(ctx, "10.0.0.1") {
		t.Fatal("First request should be allowed by the fallback")
	}
	if rl.Allow(ctx, "10.0.0.1") {
		t.Error("Second request should be limited by the fallback")
	}
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, remote: "3.3.3.3:1", want: "1.1.1.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "4.4.4.4"}, remote: "3.3.3.3:1", want: "4.4.4.4"},
		{name: "remote addr", remote: "3.3.3.3:1", want: "3.3.3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getIP(req); got != tt.want {
				t.Errorf("getIP() = %s, want %s", got, tt.want)
			}
		})
	}
}
