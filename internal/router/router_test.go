// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint. None of them reach the database.
package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pocketratings/internal/auth"
	"pocketratings/internal/handlers"
	"pocketratings/internal/listcache"
	"pocketratings/internal/middleware"
)

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) http.Handler {
	t.Helper()
	codec := auth.NewCodec([]byte("router-test-secret-0123456789abcdef"), 30*24*time.Hour)
	api := handlers.NewAPI(handlers.Stores{}, listcache.New(), nil, codec, auth.NewHasher(bcrypt.MinCost), "1.2.3")
	return New(api, auth.NewGuard(codec, 7*24*time.Hour), limiter)
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func TestPublicRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/version", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("version: got %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"1.2.3"`) {
		t.Errorf("version body: %s", w.Body.String())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t, nil)

	routes := []struct{ method, path string }{
		{"GET", "/api/v1/me"},
		{"GET", "/api/v1/categories"},
		{"POST", "/api/v1/categories"},
		{"GET", "/api/v1/categories/00000000-0000-0000-0000-000000000001"},
		{"PATCH", "/api/v1/products/00000000-0000-0000-0000-000000000001"},
		{"DELETE", "/api/v1/locations/00000000-0000-0000-0000-000000000001"},
		{"GET", "/api/v1/reviews"},
		{"POST", "/api/v1/purchases"},
	}
	for _, rt := range routes {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d, want 401", rt.method, rt.path, w.Code)
		}
	}
}

func TestUnknownRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		method, path string
		wantStatus   int
		wantCode     string
	}{
		{"GET", "/nope", http.StatusNotFound, "not_found"},
		{"GET", "/api/v2/categories", http.StatusNotFound, "not_found"},
		{"PUT", "/api/v1/version", http.StatusMethodNotAllowed, "method_not_allowed"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != tt.wantStatus {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
			continue
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Errorf("%s %s: body is not JSON: %q", tt.method, tt.path, w.Body.String())
			continue
		}
		if body["error"] != tt.wantCode {
			t.Errorf("%s %s: error code %q, want %q", tt.method, tt.path, body["error"], tt.wantCode)
		}
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	rl := middleware.NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	h := newTestRouter(t, rl)

	// Empty bodies are rejected before any lookup, which is enough to count.
	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{}`))
		r.RemoteAddr = "192.0.2.10:5555"
		h.ServeHTTP(w, r)
		codes[i] = w.Code
	}
	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusBadRequest {
		t.Errorf("first attempts: got %v, want 400s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third attempt: got %d, want 429", codes[2])
	}

	// Other routes are not limited.
	for range 5 {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/v1/version", nil)
		r.RemoteAddr = "192.0.2.10:5555"
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("version after limit: got %d", w.Code)
		}
	}
}
