// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the pocketratings server and its
// admin commands. It loads configuration, connects to services, and
// dispatches to the cobra command tree.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pocketratings/internal/cache"
	"pocketratings/internal/config"
	"pocketratings/internal/database"
	"pocketratings/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "pocketratings",
	Short:         "Personal product ratings and purchase history API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the default logger. Every
// command starts here.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	// Structured logger, text output, level from LOG_LEVEL.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	return cfg, nil
}

// openDB connects to PostgreSQL and applies pending migrations.
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// connect is setup followed by openDB.
func connect() (*config.Config, *sql.DB, error) {
	cfg, err := setup()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// notify runs the same invalidation a server runs after a write: the
// change is logged and, when Valkey is configured, running servers drop
// the affected snapshots. The write itself already happened, so failures
// here are only logged.
func notify(ctx context.Context, cfg *config.Config, db *sql.DB, e cache.Entity, id uuid.UUID, action string) {
	var broadcaster *cache.Broadcaster
	if cfg.ValkeyEnabled() {
		client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Warn("running servers were not notified", "entity", e, "id", id, "error", err)
		} else {
			defer client.Close()
			broadcaster = cache.NewBroadcaster(client, nil)
		}
	}
	cache.NewInvalidator(nil, store.NewCacheLogStore(db), broadcaster).Invalidate(ctx, e, id, action)
}

func parseID(what, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

// optionalID reads a UUID flag; an unset flag gives nil.
func optionalID(cmd *cobra.Command, flag, what string) (*uuid.UUID, error) {
	s, _ := cmd.Flags().GetString(flag)
	if s == "" {
		return nil, nil
	}
	id, err := parseID(what, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Output formats accepted by --output.
const (
	outputHuman = "human"
	outputJSON  = "json"
)

func addOutputFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().StringP("output", "o", outputHuman, "Output format: human or json")
	}
}

// wantJSON validates --output and reports whether JSON was requested.
func wantJSON(cmd *cobra.Command) (bool, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case outputHuman:
		return false, nil
	case outputJSON:
		return true, nil
	}
	return false, fmt.Errorf("unknown output format %q (want %s or %s)", format, outputHuman, outputJSON)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// when formats an optional timestamp for tables.
func when(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}
