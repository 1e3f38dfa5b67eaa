package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// bucket is a greedy-refill token bucket. Updates happen under the
// per-bucket mutex so concurrent consumes never double-count.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

// RateLimiter sheds load per source IP before any authentication work.
// Buckets hold capacity tokens and refill at capacity-per-window.
type RateLimiter struct {
	capacity float64
	window   time.Duration

	mu      sync.RWMutex
	buckets map[string]*bucket

	stop chan struct{}
	now  func() time.Time
}

// NewRateLimiter builds a limiter with the given bucket capacity and
// refill window and starts a janitor that drops buckets idle for three
// windows. An evicted bucket would have refilled to capacity anyway,
// so eviction never grants a caller extra tokens.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		capacity: float64(capacity),
		window:   window,
		buckets:  make(map[string]*bucket),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go rl.janitor()
	return rl
}

// Stop terminates the janitor. The limiter keeps working without it.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Allow atomically attempts to consume one token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()

	if !ok {
		rl.mu.Lock()
		if b, ok = rl.buckets[key]; !ok {
			b = &bucket{tokens: rl.capacity, lastRefill: rl.now()}
			rl.buckets[key] = b
		}
		rl.mu.Unlock()
	}

	now := rl.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		b.tokens += elapsed.Seconds() * rl.capacity / rl.window.Seconds()
		if b.tokens > rl.capacity {
			b.tokens = rl.capacity
		}
		b.lastRefill = now
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-3 * rl.window)
	rl.mu.Lock()
	for key, b := range rl.buckets {
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, key)
		}
	}
	rl.mu.Unlock()
}

// Handler enforces the limit per remote IP. It runs before token
// verification so unauthenticated traffic is shed too.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	windowMinutes := int(rl.window.Minutes())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Allow(clientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": "too_many_requests",
			"detail": fmt.Sprintf("Rate limit exceeded: %d requests per %d minutes. Try again later.",
				int(rl.capacity), windowMinutes),
			"retry_after_minutes": windowMinutes,
		})
	})
}

// clientIP strips the port from RemoteAddr; chi's RealIP middleware has
// already folded X-Forwarded-For/X-Real-IP into it.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
