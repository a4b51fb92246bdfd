// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// pocketratings API. Everything under /api/v1 except login and version
// requires a bearer token.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pocketratings/internal/auth"
	"pocketratings/internal/handlers"
	"pocketratings/internal/middleware"
)

// New creates and returns the configured Chi router. limiter guards the
// login endpoint and may be nil.
func New(api *handlers.API, guard *auth.Guard, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(rateLimited(limiter)).Post("/auth/login", api.Login)
		r.Get("/version", api.Version)

		// Authenticated area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(guard))

			r.Get("/me", api.Me)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", api.ListCategories)
				r.Post("/", api.CreateCategory)
				r.Get("/{id}", api.GetCategory)
				r.Patch("/{id}", api.UpdateCategory)
				r.Delete("/{id}", api.DeleteCategory)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", api.ListProducts)
				r.Post("/", api.CreateProduct)
				r.Get("/{id}", api.GetProduct)
				r.Patch("/{id}", api.UpdateProduct)
				r.Delete("/{id}", api.DeleteProduct)
			})

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", api.ListLocations)
				r.Post("/", api.CreateLocation)
				r.Get("/{id}", api.GetLocation)
				r.Patch("/{id}", api.UpdateLocation)
				r.Delete("/{id}", api.DeleteLocation)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", api.ListReviews)
				r.Post("/", api.CreateReview)
				r.Get("/{id}", api.GetReview)
				r.Patch("/{id}", api.UpdateReview)
				r.Delete("/{id}", api.DeleteReview)
			})

			r.Route("/purchases", func(r chi.Router) {
				r.Get("/", api.ListPurchases)
				r.Post("/", api.CreatePurchase)
				r.Get("/{id}", api.GetPurchase)
				r.Patch("/{id}", api.UpdatePurchase)
				r.Delete("/{id}", api.DeletePurchase)
			})
		})
	})

	return r
}

func rateLimited(limiter *middleware.RateLimiter) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return limiter.Middleware
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
