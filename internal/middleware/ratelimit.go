package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// sweepThreshold is the number of tracked clients above which expired
// windows are dropped.
const sweepThreshold = 1024

type window struct {
	count int
	until time.Time
}

// windowLimiter counts requests per key in fixed windows.
type windowLimiter struct {
	limit int
	per   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func newWindowLimiter(limit int, per time.Duration, now func() time.Time) *windowLimiter {
	return &windowLimiter{limit: limit, per: per, now: now, windows: make(map[string]*window)}
}

// allow records one request for key. When the window is full it returns
// false and the time until the window resets.
func (l *windowLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.until) {
		if len(l.windows) >= sweepThreshold {
			l.sweep(now)
		}
		w = &window{until: now.Add(l.per)}
		l.windows[key] = w
	}
	if w.count >= l.limit {
		return false, w.until.Sub(now)
	}
	w.count++
	return true, 0
}

func (l *windowLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.until) {
			delete(l.windows, key)
		}
	}
}

// RateLimit allows limit requests per client IP in each fixed window of per.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	limiter := newWindowLimiter(limit, per, time.Now)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.allow(rateLimitKey(r))
			if !ok {
				writeRateLimited(w, r, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, wait time.Duration) {
	message := "요청이 너무 많습니다. 잠시 후 다시 시도하세요."
	if LocaleFromContext(r.Context()) == LocaleEnglish {
		message = "Too many requests. Try again shortly."
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "rate_limited", "message": message},
	})
}

// rateLimitKey is the first valid forwarded address, else the remote host.
func rateLimitKey(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
