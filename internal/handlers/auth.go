// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"pocketratings/internal/auth"
)

// errBadCredentials is the only answer a failed login gets, whether the
// email is unknown or the password is wrong.
var errBadCredentials = unauthorized("invalid email or password")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges email and password for a bearer token.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		respondError(w, r, badRequest("email and password are required"))
		return
	}

	user, err := a.stores.Users.FindByEmail(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if user == nil {
		// Spend the same bcrypt time as a real comparison.
		a.hasher.CompareDummy(req.Password)
		slog.Info("login failed", "reason", "unknown email")
		respondError(w, r, errBadCredentials)
		return
	}
	if err := a.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			respondError(w, r, err)
			return
		}
		slog.Info("login failed", "reason", "password mismatch", "user_id", user.ID)
		respondError(w, r, errBadCredentials)
		return
	}

	token, _, err := a.codec.Issue(user.ID, a.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	slog.Info("login succeeded", "user_id", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

type meResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// Me returns the authenticated user.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	user, err := a.stores.Users.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if user == nil {
		// Token is still valid but the account was deleted.
		respondError(w, r, unauthorized("user no longer exists"))
		return
	}
	writeJSON(w, http.StatusOK, meResponse{UserID: user.ID, Name: user.Name})
}

// Version reports the running build.
func (a *API) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": a.version})
}
