package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"decision-hub/internal/config"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts a hit and starts the window on the first one
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter limits requests per client IP. With a Redis client the count is a fixed
// window shared by all replicas; otherwise each process keeps its own token buckets.
type RateLimiter struct {
	enabled  bool
	requests int
	duration time.Duration
	redis    *redis.Client
	prefix   string
	visitors map[string]*visitor
	mu       sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	lastSeen time.Time
	tokens   int
}

// NewRateLimiter creates a new rate limiter. client may be nil.
func NewRateLimiter(cfg *config.RateLimitConfig, client *redis.Client, keyPrefix string) *RateLimiter {
	rl := &RateLimiter{
		enabled:  cfg.Enabled,
		requests: cfg.Requests,
		duration: cfg.Duration,
		redis:    client,
		prefix:   keyPrefix + "ratelimit:",
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}

	go rl.cleanupVisitors()

	return rl
}

// Close stops the background cleanup
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Limit rate limits requests based on IP address
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled || rl.Allow(r.Context(), getIP(r)) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", retryAfter(rl.duration))
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"Rate limit exceeded. Please try again later."}`))
	})
}

// Allow records one request for key and reports whether it is within the limit.
// A Redis error falls back to the in-memory bucket.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.redis != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		count, err := fixedWindowScript.Run(ctx, rl.redis, []string{rl.prefix + key}, rl.duration.Milliseconds()).Int64()
		if err == nil {
			return count <= int64(rl.requests)
		}
		slog.Warn("Redis rate limit failed, using in-memory limiter", "error", err)
	}
	return rl.allowLocal(key)
}

func (rl *RateLimiter) allowLocal(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.visitors[key]
	if !exists || now.Sub(v.lastSeen) >= rl.duration {
		rl.visitors[key] = &visitor{lastSeen: now, tokens: rl.requests - 1}
		return rl.requests > 0
	}

	if v.tokens > 0 {
		v.tokens--
		v.lastSeen = now
		return true
	}
	return false
}

// cleanupVisitors removes idle visitors every minute
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 3*rl.duration {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func retryAfter(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

// getIP gets the client IP address from the request
func getIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
