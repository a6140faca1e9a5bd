package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window limiter.
type RateLimitConfig struct {
	// Max requests per Window. Zero disables limiting.
	Max    int
	Window time.Duration
	// Key identifies the client. Defaults to ClientIP.
	Key func(*http.Request) string
}

// window counts requests in the current and previous fixed windows. The
// effective count weights the previous window by its overlap with the
// sliding window ending now.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

type limiter struct {
	max  int
	size time.Duration
	key  func(*http.Request) string

	mu      sync.Mutex
	clients map[string]*window
}

func newLimiter(cfg RateLimitConfig) *limiter {
	key := cfg.Key
	if key == nil {
		key = ClientIP
	}
	return &limiter{
		max:     cfg.Max,
		size:    cfg.Window,
		key:     key,
		clients: make(map[string]*window),
	}
}

// take records a request for key at now. It reports whether the request is
// admitted, how many requests remain and when the current window ends.
func (l *limiter) take(key string, now time.Time) (ok bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.clients[key]
	if w == nil {
		w = &window{start: now.Truncate(l.size)}
		l.clients[key] = w
	}
	if elapsed := now.Sub(w.start); elapsed >= l.size {
		if elapsed >= 2*l.size {
			w.prev = 0
		} else {
			w.prev = w.curr
		}
		w.curr = 0
		w.start = now.Truncate(l.size)
	}

	overlap := 1 - float64(now.Sub(w.start))/float64(l.size)
	used := w.prev*overlap + w.curr
	reset = w.start.Add(l.size)
	if used >= float64(l.max) {
		return false, 0, reset
	}
	w.curr++
	return true, max(0, int(float64(l.max)-used-1)), reset
}

// evict drops clients idle for two full windows.
func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, w := range l.clients {
		if now.Sub(w.start) >= 2*l.size {
			delete(l.clients, k)
		}
	}
}

// RateLimit returns a middleware that answers 429 with the failure envelope
// once a client exceeds cfg.Max requests per cfg.Window. Idle clients are
// evicted in the background until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * l.size)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evict(now)
			}
		}
	}()

	limit := strconv.Itoa(l.max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			ok, remaining, reset := l.take(l.key(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				retry := math.Ceil(max(0, reset.Sub(now).Seconds()))
				h.Set("Retry-After", strconv.Itoa(int(retry)))
				writeFailure(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// address host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
