// Package ratelimit throttles requests per client address over a fixed
// one-minute window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Window is the length of one counting window.
const Window = time.Minute

// Limiter counts requests per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window
	now     func() time.Time

	limit           int
	staleAfter      time.Duration
	cleanupInterval time.Duration

	hits    atomic.Int64
	stop    chan struct{}
	stopped sync.Once
}

type window struct {
	start time.Time
	count int
}

// Config configures a Limiter.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// StaleAfter drops clients idle for longer than this on cleanup.
	StaleAfter time.Duration
	// Methods restricts the middleware to these methods. Empty means all.
	Methods []string
}

// DefaultConfig returns the upload limits.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 30,
		CleanupInterval:   5 * time.Minute,
		StaleAfter:        10 * time.Minute,
		Methods:           []string{http.MethodPost},
	}
}

// Metrics is a snapshot of limiter activity.
type Metrics struct {
	Rejected int64
	Clients  int64
}

// NewLimiter creates a limiter and starts its cleanup goroutine. Call Stop to end it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	l := &Limiter{
		clients:         make(map[string]*window),
		now:             time.Now,
		limit:           cfg.RequestsPerMinute,
		staleAfter:      cfg.StaleAfter,
		cleanupInterval: cfg.CleanupInterval,
		stop:            make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// WithClock replaces the time source. Tests only.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
	return l
}

// Allow records one request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= Window {
		l.clients[key] = &window{start: now, count: 1}
		return true
	}
	w.count++
	if w.count > l.limit {
		l.hits.Add(1)
		return false
	}
	return true
}

// RetryAfter returns the seconds until key's window resets, at least 1.
func (l *Limiter) RetryAfter(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.clients[key]
	if !ok {
		return 1
	}
	left := Window - l.now().Sub(w.start)
	if secs := int(left.Round(time.Second) / time.Second); secs > 0 {
		return secs
	}
	return 1
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-l.stop:
			return
		}
	}
}

// Cleanup forgets clients idle longer than StaleAfter and returns how many were dropped.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.staleAfter)
	n := 0
	for key, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopped.Do(func() { close(l.stop) })
}

// GetMetrics returns current counters.
func (l *Limiter) GetMetrics() Metrics {
	l.mu.Lock()
	clients := int64(len(l.clients))
	l.mu.Unlock()
	return Metrics{Rejected: l.hits.Load(), Clients: clients}
}

// Middleware rejects over-limit requests with 429. Requests whose method is
// not in methods pass through untouched. onLimit, when set, writes the
// rejection instead of the plain-text default.
func (l *Limiter) Middleware(keyFn func(*http.Request) string, methods []string, onLimit func(http.ResponseWriter, *http.Request, int)) func(http.Handler) http.Handler {
	only := make(map[string]bool, len(methods))
	for _, m := range methods {
		only[m] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(only) > 0 && !only[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			key := keyFn(r)
			if l.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}
			retry := l.RetryAfter(key)
			if onLimit != nil {
				onLimit(w, r, retry)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
