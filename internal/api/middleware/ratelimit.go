package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a fixed-window rate limiter with per-key counters. The
// window is one minute to match the configured requests-per-minute limits.
type RateLimiter struct {
	mu       sync.Mutex
	counts   map[string]*windowCount
	limit    int
	window   time.Duration
	stopOnce sync.Once
	stopped  chan struct{}
}

type windowCount struct {
	n     int
	reset time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per minute.
func NewRateLimiter(limit int) *RateLimiter {
	rl := &RateLimiter{
		counts:  make(map[string]*windowCount),
		limit:   limit,
		window:  time.Minute,
		stopped: make(chan struct{}),
	}

	go rl.evictLoop()

	return rl
}

// Allow reports whether a request for the key fits in the current window.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	wc := rl.counts[key]
	if wc == nil || now.After(wc.reset) {
		rl.counts[key] = &windowCount{n: 1, reset: now.Add(rl.window)}
		return true
	}

	if wc.n >= rl.limit {
		return false
	}
	wc.n++
	return true
}

// evictLoop drops counters whose window has passed.
func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopped:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, wc := range rl.counts {
				if now.After(wc.reset) {
					delete(rl.counts, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop terminates the background eviction goroutine. Safe to call more
// than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopped) })
}

// jsonRateLimited writes a rate limited error response.
func jsonRateLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "RATE_LIMITED",
			"message": "too many requests",
		},
	})
}

// RateLimitByIP returns middleware that rate limits by client IP.
func RateLimitByIP(limiter *RateLimiter) func(http.Handler) http.Handler {
	return rateLimit(limiter, func(r *http.Request) string {
		return getClientIP(r)
	})
}

// RateLimitByUser returns middleware that rate limits by authenticated user,
// falling back to client IP for anonymous requests.
func RateLimitByUser(limiter *RateLimiter) func(http.Handler) http.Handler {
	return rateLimit(limiter, func(r *http.Request) string {
		if userID := GetUserID(r.Context()); userID != "" {
			return userID
		}
		return getClientIP(r)
	})
}

func rateLimit(limiter *RateLimiter, keyFor func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFor(r)) {
				jsonRateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip, _, err := net.SplitHostPort(xff); err == nil {
			return ip
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
