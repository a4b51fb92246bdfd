// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pocketratings/internal/auth"
	"pocketratings/internal/cache"
	"pocketratings/internal/database"
	"pocketratings/internal/handlers"
	"pocketratings/internal/listcache"
	"pocketratings/internal/middleware"
	"pocketratings/internal/router"
	"pocketratings/internal/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Connects to PostgreSQL, applies migrations and serves the REST API.
When VALKEY_HOST is set, list cache invalidations are shared with every
other instance through Valkey pub/sub.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		slog.Info("configuration loaded",
			"env", cfg.Env,
			"addr", cfg.Addr(),
			"version", version,
		)

		// Graceful shutdown on SIGINT or SIGTERM.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		// Seed development data (no-op if data already exists).
		if cfg.IsDev() {
			if err := database.Seed(db); err != nil {
				return fmt.Errorf("seed database: %w", err)
			}
		}

		lists := listcache.New()

		// Valkey is optional; without it each instance only drops its own
		// snapshots.
		var broadcaster *cache.Broadcaster
		if cfg.ValkeyEnabled() {
			client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
			if err != nil {
				return fmt.Errorf("connect to valkey: %w", err)
			}
			defer client.Close()
			broadcaster = cache.NewBroadcaster(client, lists)
		} else {
			slog.Warn("valkey not configured, cache invalidation stays local")
		}

		stores := handlers.Stores{
			Categories: store.NewCategoryStore(db),
			Products:   store.NewProductStore(db),
			Locations:  store.NewLocationStore(db),
			Reviews:    store.NewReviewStore(db),
			Purchases:  store.NewPurchaseStore(db),
			Users:      store.NewUserStore(db),
		}
		invalidator := cache.NewInvalidator(lists, store.NewCacheLogStore(db), broadcaster)

		codec := auth.NewCodec([]byte(cfg.JWTSecret), cfg.JWTTTL)
		guard := auth.NewGuard(codec, cfg.RefreshThreshold)
		hasher := auth.NewHasher(cfg.BcryptCost)

		limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute, middleware.TrustProxies(cfg.Proxies()...))
		defer limiter.Stop()

		api := handlers.NewAPI(stores, lists, invalidator, codec, hasher, version)
		r := router.New(api, guard, limiter)

		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			slog.Info("server starting", "addr", cfg.Addr())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		})

		if broadcaster != nil {
			g.Go(func() error {
				return broadcaster.Run(gctx)
			})
		}

		g.Go(func() error {
			<-gctx.Done()
			slog.Info("shutting down")

			// Give active requests up to 30 seconds to complete.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return err
		}
		slog.Info("server stopped gracefully")
		return nil
	},
}
