// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. An optional .env file in the working directory is read first;
// real environment variables take precedence over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// defaultDBPassword is the development password that production refuses.
	defaultDBPassword = "changeme"

	// minSecretLen is the shortest JWT secret accepted in production (256 bits).
	minSecretLen = 32
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port     string `env:"APP_PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"development"` // "development", "production", "testing"
	LogLevel string `env:"LOG_LEVEL"`

	// PostgreSQL connection
	DBHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	DBPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	DBUser     string `env:"POSTGRES_USER" envDefault:"pocketratings"`
	DBPassword string `env:"POSTGRES_PASSWORD" envDefault:"changeme"`
	DBName     string `env:"POSTGRES_DB" envDefault:"pocketratings"`

	// Valkey (Redis-compatible). Empty host disables cross-process
	// cache invalidation; the in-process list cache still works.
	ValkeyHost     string `env:"VALKEY_HOST"`
	ValkeyPort     string `env:"VALKEY_PORT" envDefault:"6379"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`

	// Session tokens
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTTTL           time.Duration `env:"JWT_TTL" envDefault:"720h"`
	RefreshThreshold time.Duration `env:"JWT_REFRESH_THRESHOLD" envDefault:"168h"`

	// LoginRateLimit is the number of login attempts allowed per client IP per minute.
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT" envDefault:"10"`

	// TrustedProxies lists the reverse proxies (addresses or CIDR ranges)
	// whose X-Forwarded-For and X-Real-IP headers name the client. Empty
	// means the TCP peer is always the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	proxies        []netip.Prefix

	// BcryptCost is passed to the password hasher; zero means bcrypt.DefaultCost.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"0"`
}

// Load reads .env (if present) and then the process environment, applying
// defaults for development where appropriate. Returns an error if critical
// values are missing or inconsistent.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom builds a Config from an explicit variable set instead of the
// process environment. No .env file is consulted.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.RefreshThreshold <= 0 || c.RefreshThreshold >= c.JWTTTL {
		return fmt.Errorf("JWT_REFRESH_THRESHOLD must be positive and below JWT_TTL (%s)", c.JWTTTL)
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("LOGIN_RATE_LIMIT must be positive")
	}
	proxies, err := parseProxies(c.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	c.proxies = proxies

	if c.IsDev() {
		if c.JWTSecret == "" {
			c.JWTSecret = "dev-secret-do-not-use-in-production"
		}
		return nil
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Env == "production" {
		if c.DBPassword == defaultDBPassword {
			return errors.New("POSTGRES_PASSWORD must be set in production")
		}
		if len(c.JWTSecret) < minSecretLen {
			return fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minSecretLen)
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Proxies returns TRUSTED_PROXIES as address ranges.
func (c *Config) Proxies() []netip.Prefix {
	return c.proxies
}

// parseProxies accepts CIDR ranges and bare addresses, the latter taken
// as single hosts.
func parseProxies(values []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("invalid range %q", v)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q", v)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

// ValkeyEnabled reports whether a Valkey host was configured.
func (c *Config) ValkeyEnabled() bool {
	return c.ValkeyHost != ""
}

// SlogLevel maps LOG_LEVEL to a slog level. Unset means debug in
// development and info everywhere else.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if c.IsDev() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
