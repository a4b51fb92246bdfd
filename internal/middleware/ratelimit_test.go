// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"
)

// clock is a settable time source for the limiter.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, window time.Duration, opts ...Option) (*RateLimiter, *clock) {
	t.Helper()
	rl := NewRateLimiter(limit, window, opts...)
	t.Cleanup(rl.Stop)
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = c.now
	return rl, c
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Second)

	for i := 0; i < 3; i++ {
		if !rl.allow("a") {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	if rl.allow("a") {
		t.Error("4th hit should be limited")
	}
	if !rl.allow("b") {
		t.Error("another client has its own budget")
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl, c := newTestLimiter(t, 2, time.Minute)

	rl.allow("a")
	c.advance(30 * time.Second)
	rl.allow("a")
	if rl.allow("a") {
		t.Fatal("third hit inside the window should be limited")
	}

	// The first hit leaves the window; the second is still inside it.
	c.advance(31 * time.Second)
	if !rl.allow("a") {
		t.Error("a slot should have freed up")
	}
	if rl.allow("a") {
		t.Error("only one slot should have freed up")
	}
}

func TestRateLimiterRejectedHitsDoNotExtendWindow(t *testing.T) {
	rl, c := newTestLimiter(t, 1, time.Minute)

	rl.allow("a")
	for i := 0; i < 5; i++ {
		c.advance(10 * time.Second)
		rl.allow("a")
	}
	c.advance(11 * time.Second)
	if !rl.allow("a") {
		t.Error("limited hits must not keep the client blocked")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, c := newTestLimiter(t, 10, time.Minute)

	rl.allow("old")
	c.advance(45 * time.Second)
	rl.allow("fresh")
	c.advance(20 * time.Second)
	rl.sweep()

	rl.mu.Lock()
	_, oldKept := rl.hits["old"]
	_, freshKept := rl.hits["fresh"]
	n := len(rl.hits)
	rl.mu.Unlock()

	if oldKept {
		t.Error("idle client should be forgotten")
	}
	if !freshKept || n != 1 {
		t.Errorf("active client should stay, have %d entries", n)
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	rl.Stop()
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Second)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, xff string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remote
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	// A forged header on a direct connection does not buy a fresh budget.
	for i, xff := range []string{"", "1.1.1.1"} {
		if rr := send("192.168.1.1:12345", xff); rr.Code != http.StatusOK {
			t.Fatalf("hit %d: got %d, want 200", i+1, rr.Code)
		}
	}
	rr := send("192.168.1.1:12345", "2.2.2.2")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After: got %q, want %q", got, "1")
	}
	if !strings.Contains(rr.Body.String(), `"error":"too_many_requests"`) {
		t.Errorf("body: got %q, want JSON error envelope", rr.Body.String())
	}
}

func TestRateLimiterBehindTrustedProxy(t *testing.T) {
	proxy := netip.MustParsePrefix("10.0.0.0/8")
	rl, _ := newTestLimiter(t, 1, time.Minute, TrustProxies(proxy))
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, client := range []string{"203.0.113.7", "203.0.113.8"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.1.2.3:5000"
		req.Header.Set("X-Forwarded-For", client)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, clients behind one proxy should be counted apart", client, rr.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("2001:db8:ffff::/48"),
	}
	tests := []struct {
		name    string
		remote  string
		xff     []string
		xri     string
		trusted []netip.Prefix
		want    string
	}{
		{name: "direct peer", remote: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "forged xff ignored without proxies", remote: "192.168.1.1:1234", xff: []string{"10.9.9.9"}, want: "192.168.1.1"},
		{name: "forged xff ignored from untrusted peer", remote: "192.168.1.1:1234", xff: []string{"1.2.3.4"}, trusted: trusted, want: "192.168.1.1"},
		{name: "forged real ip ignored", remote: "192.168.1.1:1234", xri: "1.2.3.4", want: "192.168.1.1"},
		{name: "trusted peer single hop", remote: "10.0.0.5:80", xff: []string{"203.0.113.9"}, trusted: trusted, want: "203.0.113.9"},
		{name: "rightmost untrusted hop wins", remote: "10.0.0.5:80", xff: []string{"6.6.6.6, 203.0.113.9, 10.0.0.7"}, trusted: trusted, want: "203.0.113.9"},
		{name: "repeated headers joined", remote: "10.0.0.5:80", xff: []string{"6.6.6.6", "203.0.113.9"}, trusted: trusted, want: "203.0.113.9"},
		{name: "all hops trusted", remote: "10.0.0.5:80", xff: []string{"10.0.0.8, 10.0.0.7"}, trusted: trusted, want: "10.0.0.8"},
		{name: "garbage hop stops the walk", remote: "10.0.0.5:80", xff: []string{"203.0.113.9, junk, 10.0.0.7"}, trusted: trusted, want: "10.0.0.7"},
		{name: "real ip from trusted peer", remote: "10.0.0.5:80", xri: "203.0.113.10", trusted: trusted, want: "203.0.113.10"},
		{name: "trusted peer without headers", remote: "10.0.0.5:80", trusted: trusted, want: "10.0.0.5"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "ipv6 trusted proxy", remote: "[2001:db8:ffff::2]:443", xff: []string{"2001:db8::42"}, trusted: trusted, want: "2001:db8::42"},
		{name: "mapped ipv4 peer", remote: "[::ffff:10.0.0.5]:80", xff: []string{"203.0.113.9"}, trusted: trusted, want: "203.0.113.9"},
		{name: "peer without port", remote: "192.168.1.1", want: "192.168.1.1"},
		{name: "unparseable peer", remote: "pipe", want: "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(req, tt.trusted); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
