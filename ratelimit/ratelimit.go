// Package ratelimit implements the per-client sliding-window limiter
// the endpoint dispatcher applies after authentication, grounded on
// the ancestor project's IP-filter middleware striping pattern
// (middleware/ip_filter.go: a map keyed by client identity, guarded by
// one mutex, checked on every request) generalized from allow/deny-
// by-IP into token-bucket accounting via golang.org/x/time/rate, which
// already approximates a sliding window over its burst/refill model.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config is one client class's limit: requests permitted per window.
type Config struct {
	Requests int
	Window   time.Duration
}

// Limiter stripes per-client token buckets behind a single mutex,
// with a background sweep, once a minute, for buckets idle for more
// than ten minutes.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	def     Config
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New builds a Limiter using def as the bucket shape for any client
// not given a more specific Config via Allow's perClient override.
func New(def Config) *Limiter {
	l := &Limiter{clients: make(map[string]*client), def: def}
	go l.sweep()
	return l
}

// Allow reports whether clientID may proceed now under cfg (or the
// limiter's default Config if cfg is the zero value), and the
// Retry-After delay to report to the caller when denied.
func (l *Limiter) Allow(clientID string, cfg Config) (ok bool, retryAfter time.Duration) {
	if cfg.Requests == 0 {
		cfg = l.def
	}
	l.mu.Lock()
	c, found := l.clients[clientID]
	if !found {
		c = &client{lim: rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.Requests)), cfg.Requests)}
		l.clients[clientID] = c
	}
	c.lastSeen = time.Now()
	res := c.lim.ReserveN(time.Now(), 1)
	l.mu.Unlock()

	if !res.OK() {
		return false, cfg.Window
	}
	delay := res.Delay()
	if delay > 0 {
		res.Cancel()
		return false, delay
	}
	return true, 0
}

// Limit and Window report the configured default, for X-RateLimit-*
// response headers.
func (l *Limiter) Limit() int             { return l.def.Requests }
func (l *Limiter) Window() time.Duration  { return l.def.Window }

func (l *Limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		l.mu.Lock()
		for id, c := range l.clients {
			if c.lastSeen.Before(cutoff) {
				delete(l.clients, id)
			}
		}
		l.mu.Unlock()
	}
}
