// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// TestLoadFrom_Defaults verifies the development defaults applied when no
// variables are set at all.
func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom() returned unexpected error: %v", err)
	}

	check := func(field, got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
	check("Host", cfg.Host, "0.0.0.0")
	check("Port", cfg.Port, "8080")
	check("Env", cfg.Env, "development")
	check("DBHost", cfg.DBHost, "localhost")
	check("DBUser", cfg.DBUser, "pocketratings")
	check("DBName", cfg.DBName, "pocketratings")
	check("ValkeyHost", cfg.ValkeyHost, "")
	check("ValkeyPort", cfg.ValkeyPort, "6379")

	if cfg.JWTTTL != 30*24*time.Hour {
		t.Errorf("JWTTTL = %s, want 720h", cfg.JWTTTL)
	}
	if cfg.RefreshThreshold != 7*24*time.Hour {
		t.Errorf("RefreshThreshold = %s, want 168h", cfg.RefreshThreshold)
	}
	if cfg.LoginRateLimit != 10 {
		t.Errorf("LoginRateLimit = %d, want 10", cfg.LoginRateLimit)
	}
	if cfg.JWTSecret == "" {
		t.Error("development mode should fill in a JWT secret")
	}
	if cfg.ValkeyEnabled() {
		t.Error("ValkeyEnabled() = true with no host configured")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"APP_PORT":              "9090",
		"JWT_TTL":               "2h",
		"JWT_REFRESH_THRESHOLD": "30m",
		"JWT_SECRET":            "s3cret",
		"VALKEY_HOST":           "cache",
	})
	if err != nil {
		t.Fatalf("LoadFrom() returned unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.JWTTTL != 2*time.Hour || cfg.RefreshThreshold != 30*time.Minute {
		t.Errorf("durations = %s/%s, want 2h/30m", cfg.JWTTTL, cfg.RefreshThreshold)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q, want explicit value kept", cfg.JWTSecret)
	}
	if !cfg.ValkeyEnabled() {
		t.Error("ValkeyEnabled() = false with VALKEY_HOST set")
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	longSecret := strings.Repeat("k", minSecretLen)

	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{
			name:    "threshold equal to ttl",
			vars:    map[string]string{"JWT_TTL": "24h", "JWT_REFRESH_THRESHOLD": "24h"},
			wantErr: "JWT_REFRESH_THRESHOLD",
		},
		{
			name:    "threshold above ttl",
			vars:    map[string]string{"JWT_TTL": "1h", "JWT_REFRESH_THRESHOLD": "2h"},
			wantErr: "JWT_REFRESH_THRESHOLD",
		},
		{
			name:    "zero ttl",
			vars:    map[string]string{"JWT_TTL": "0s"},
			wantErr: "JWT_TTL",
		},
		{
			name:    "zero rate limit",
			vars:    map[string]string{"LOGIN_RATE_LIMIT": "0"},
			wantErr: "LOGIN_RATE_LIMIT",
		},
		{
			name:    "testing without secret",
			vars:    map[string]string{"APP_ENV": "testing"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "production default password",
			vars:    map[string]string{"APP_ENV": "production", "JWT_SECRET": longSecret},
			wantErr: "POSTGRES_PASSWORD",
		},
		{
			name: "production short secret",
			vars: map[string]string{
				"APP_ENV": "production", "POSTGRES_PASSWORD": "real", "JWT_SECRET": "short",
			},
			wantErr: "at least",
		},
		{
			name:    "bad proxy range",
			vars:    map[string]string{"TRUSTED_PROXIES": "10.0.0.0/33"},
			wantErr: "TRUSTED_PROXIES",
		},
		{
			name:    "proxy hostname",
			vars:    map[string]string{"TRUSTED_PROXIES": "10.0.0.1,proxy.local"},
			wantErr: "TRUSTED_PROXIES",
		},
		{
			name:    "malformed duration",
			vars:    map[string]string{"JWT_TTL": "thirty days"},
			wantErr: "parse env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(tt.vars)
			if err == nil {
				t.Fatalf("LoadFrom() = %+v, want error containing %q", cfg, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFrom_TrustedProxies(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom() returned unexpected error: %v", err)
	}
	if len(cfg.Proxies()) != 0 {
		t.Errorf("Proxies() = %v, want none by default", cfg.Proxies())
	}

	cfg, err = LoadFrom(map[string]string{"TRUSTED_PROXIES": " 10.1.2.3/8 ,192.168.1.7,,2001:db8::1"})
	if err != nil {
		t.Fatalf("LoadFrom() returned unexpected error: %v", err)
	}
	want := []string{"10.0.0.0/8", "192.168.1.7/32", "2001:db8::1/128"}
	got := cfg.Proxies()
	if len(got) != len(want) {
		t.Fatalf("Proxies() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("proxy %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLoadFrom_ProductionValid(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"APP_ENV":           "production",
		"POSTGRES_PASSWORD": "not-the-default",
		"JWT_SECRET":        strings.Repeat("x", 48),
	})
	if err != nil {
		t.Fatalf("LoadFrom() returned unexpected error: %v", err)
	}
	if cfg.IsDev() {
		t.Error("IsDev() = true in production")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5433", DBName: "ratings",
	}
	want := "postgres://u:p@db:5433/ratings?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: "3000"}
	if got := cfg.Addr(); got != "127.0.0.1:3000" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:3000")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		env, level string
		want       slog.Level
	}{
		{"development", "", slog.LevelDebug},
		{"production", "", slog.LevelInfo},
		{"production", "WARN", slog.LevelWarn},
		{"development", "error", slog.LevelError},
		{"development", "info", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{Env: tt.env, LogLevel: tt.level}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(env=%s, level=%q) = %v, want %v", tt.env, tt.level, got, tt.want)
		}
	}
}
