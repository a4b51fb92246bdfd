// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pocketratings/internal/auth"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's id.
	UserIDKey contextKey = "user_id"

	// NewTokenHeader carries a reissued token back to the client.
	NewTokenHeader = "X-New-Token"
)

// RequireToken rejects requests without a valid bearer token with 401 and
// stores the token subject in the request context. When the token is close
// to expiry, a replacement is sent in the X-New-Token response header; the
// presented token keeps working until its own expiry.
func RequireToken(g *auth.Guard) func(http.Handler) http.Handler {
	return requireToken(g, time.Now)
}

func requireToken(g *auth.Guard, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out, err := g.Evaluate(r.Header.Get("Authorization"), now())
			if err != nil {
				// Still authenticated; the client just misses a fresh token.
				slog.Error("token reissue failed", "error", err)
			}

			switch out.State {
			case auth.Unauthenticated:
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			case auth.Invalid:
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			if out.NewToken != "" {
				w.Header().Set(NewTokenHeader, out.NewToken)
				w.Header().Add("Access-Control-Expose-Headers", NewTokenHeader)
				slog.Debug("token reissued", "user_id", out.Claims.Subject, "expires", out.NewExpiry)
			}

			ctx := context.WithValue(r.Context(), UserIDKey, out.Claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromCtx returns the authenticated user id stored by RequireToken.
// The second result is false outside a protected route.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok
}

// WithUserID returns a context carrying id as the authenticated user.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}
