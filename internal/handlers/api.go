// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers for the pocketratings
// API. Handlers receive their dependencies through the API struct; list
// and get-by-id reads are served from list cache snapshots, mutations go
// to the stores and invalidate the affected snapshots before responding.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pocketratings/internal/auth"
	"pocketratings/internal/cache"
	"pocketratings/internal/integrity"
	"pocketratings/internal/listcache"
	"pocketratings/internal/middleware"
	"pocketratings/internal/store"
	"pocketratings/internal/tree"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Stores bundles the repositories the API talks to.
type Stores struct {
	Categories *store.CategoryStore
	Products   *store.ProductStore
	Locations  *store.LocationStore
	Reviews    *store.ReviewStore
	Purchases  *store.PurchaseStore
	Users      *store.UserStore
}

// API groups every REST handler and its dependencies.
type API struct {
	stores      Stores
	lists       *listcache.Cache
	invalidator *cache.Invalidator
	codec       *auth.Codec
	hasher      *auth.Hasher
	version     string
	now         func() time.Time
}

// NewAPI creates the handler group. invalidator must drop keys from the
// same lists cache the handlers read from.
func NewAPI(stores Stores, lists *listcache.Cache, invalidator *cache.Invalidator, codec *auth.Codec, hasher *auth.Hasher, version string) *API {
	return &API{
		stores:      stores,
		lists:       lists,
		invalidator: invalidator,
		codec:       codec,
		hasher:      hasher,
		version:     version,
		now:         time.Now,
	}
}

// invalidate drops the snapshots a mutation touched. It must run before
// the response is written so the caller can read its own write.
func (a *API) invalidate(ctx context.Context, e cache.Entity, id uuid.UUID, action string) {
	a.invalidator.Invalidate(ctx, e, id, action)
}

// --- responses ---

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// apiError is an error with a fixed HTTP mapping.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.code + ": " + e.message }

func badRequest(format string, args ...any) error {
	return &apiError{http.StatusBadRequest, "bad_request", fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &apiError{http.StatusNotFound, "not_found", what + " not found"}
}

func forbidden(message string) error {
	return &apiError{http.StatusForbidden, "forbidden", message}
}

func unauthorized(message string) error {
	return &apiError{http.StatusUnauthorized, "unauthorized", message}
}

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "no such route"})
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed", Message: r.Method + " is not supported here"})
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// respondError maps err onto the error envelope. Anything not recognised
// is logged and answered with a bare 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ae       *apiError
		conflict *integrity.ConflictError
	)
	switch {
	case errors.As(err, &ae):
		writeJSON(w, ae.status, errorResponse{Error: ae.code, Message: ae.message})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict", Message: conflict.Error()})
	case errors.Is(err, store.ErrReferenced):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict", Message: "still referenced by other records"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "resource not found"})
	case errors.Is(err, store.ErrMissingReference):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: missingMessage(err)})
	case errors.Is(err, store.ErrDuplicate):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "name already exists at this level"})
	case errors.Is(err, tree.ErrCycle):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: tree.ErrCycle.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_server_error"})
	}
}

// missingMessage turns "missing reference: category" into "category not found".
func missingMessage(err error) string {
	_, what, ok := strings.Cut(err.Error(), store.ErrMissingReference.Error()+": ")
	if !ok || what == "" {
		return "referenced resource not found"
	}
	return what + " not found"
}

// --- request helpers ---

// decodeJSON reads a single JSON object into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("invalid JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid id")
	}
	return id, nil
}

// queryID parses an optional UUID query parameter.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, badRequest("invalid %s", name)
	}
	return &id, nil
}

// parseForce reads the force query flag: "true" (any case) or "1".
func parseForce(r *http.Request) bool {
	v := r.URL.Query().Get("force")
	return strings.EqualFold(v, "true") || v == "1"
}

// callerID returns the authenticated user. Protected routes always have
// one; its absence is a wiring bug.
func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		return uuid.Nil, unauthorized("missing bearer token")
	}
	return id, nil
}

// optionalUUID distinguishes an absent JSON field from an explicit null.
type optionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *optionalUUID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// optionalString distinguishes an absent JSON field from null or a value.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
