// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"
)

// sweepEvery is how often idle clients are dropped from the limiter.
const sweepEvery = 5 * time.Minute

// RateLimiter counts requests per client address over a sliding window.
// The client address is the TCP peer unless that peer is a trusted proxy,
// in which case it is taken from the forwarding headers.
type RateLimiter struct {
	limit   int
	window  time.Duration
	proxies []netip.Prefix
	now     func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// TrustProxies makes the limiter honour X-Forwarded-For and X-Real-IP on
// requests whose peer address falls in one of prefixes.
func TrustProxies(prefixes ...netip.Prefix) Option {
	return func(rl *RateLimiter) {
		rl.proxies = append(rl.proxies, prefixes...)
	}
}

// NewRateLimiter allows limit requests per window and client. A goroutine
// forgets idle clients until Stop is called.
func NewRateLimiter(limit int, window time.Duration, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the sweeping goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweepLoop() {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.sweep()
		}
	}
}

// recent drops the timestamps that left the window. The slice is reused.
func recent(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return append(ts[:0], ts[i:]...)
}

// allow records a hit for key and reports whether it is within the limit.
// Rejected hits are not recorded.
func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	ts := recent(rl.hits[key], now.Add(-rl.window))
	if len(ts) >= rl.limit {
		rl.hits[key] = ts
		return false
	}
	rl.hits[key] = append(ts, now)
	return true
}

// sweep forgets clients with no hit inside the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, ts := range rl.hits {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(rl.hits, key)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// of one window.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, rl.proxies)
		if !rl.allow(ip) {
			slog.Warn("rate limit exceeded", "client", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", retryAfter)
			writeError(w, http.StatusTooManyRequests, "too_many_requests", "too many attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
