// Package ratelimit caps API calls per client address in fixed one-minute
// windows.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	window = time.Minute

	defaultRequestsPerMinute = 60
	defaultIdleAfter         = 10 * time.Minute
	defaultSweepInterval     = 5 * time.Minute
)

type Config struct {
	RequestsPerMinute int
	// IdleAfter is how long a client may stay quiet before its window is
	// forgotten.
	IdleAfter     time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

// budget is one client's usage in its current window.
type budget struct {
	start time.Time
	last  time.Time
	used  int
}

type Limiter struct {
	mu      sync.Mutex
	budgets map[string]*budget

	limit     int
	idleAfter time.Duration
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter with a background sweep of idle clients.
// Call Stop to end the sweep.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = defaultIdleAfter
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := &Limiter{
		budgets:   make(map[string]*budget),
		limit:     cfg.RequestsPerMinute,
		idleAfter: cfg.IdleAfter,
		now:       cfg.Now,
		stop:      make(chan struct{}),
	}
	go l.sweepEvery(cfg.SweepInterval)
	return l
}

// Allow spends one call from client's budget.
func (l *Limiter) Allow(client string) bool {
	ok, _ := l.take(client)
	return ok
}

// take spends one call, or reports how long until client's window resets.
// Rejected calls do not count against the budget.
func (l *Limiter) take(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.budgets[client]
	if b == nil || now.Sub(b.start) >= window {
		b = &budget{start: now}
		l.budgets[client] = b
	}
	b.last = now

	if b.used >= l.limit {
		return false, b.start.Add(window).Sub(now)
	}
	b.used++
	return true, 0
}

func (l *Limiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep forgets clients idle for longer than IdleAfter and returns how many
// were dropped.
func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleAfter)
	dropped := 0
	for client, b := range l.budgets {
		if b.last.Before(cutoff) {
			delete(l.budgets, client)
			dropped++
		}
	}
	return dropped
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware rejects over-budget calls with Retry-After set to the seconds
// left in the client's window. onLimit writes the response body.
func (l *Limiter) Middleware(clientOf func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.take(clientOf(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			if onLimit == nil {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}

func retryAfterSeconds(wait time.Duration) int {
	s := int(math.Ceil(wait.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
