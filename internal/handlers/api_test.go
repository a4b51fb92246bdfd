// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"pocketratings/internal/integrity"
	"pocketratings/internal/store"
	"pocketratings/internal/tree"
)

func TestRespondError(t *testing.T) {
	conflict := &integrity.ConflictError{
		Resource: integrity.Category, ID: uuid.New(), Ref: integrity.ChildCategories, Count: 1,
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"bad request", badRequest("depth must be %d", 1), http.StatusBadRequest, "bad_request", "depth must be 1"},
		{"forbidden", forbidden("nope"), http.StatusForbidden, "forbidden", "nope"},
		{"unauthorized", unauthorized("who"), http.StatusUnauthorized, "unauthorized", "who"},
		{"guard conflict", fmt.Errorf("delete: %w", conflict), http.StatusConflict, "conflict", conflict.Error()},
		{"fk on force delete", fmt.Errorf("delete: %w", store.ErrReferenced), http.StatusConflict, "conflict", ""},
		{"not found", store.ErrNotFound, http.StatusNotFound, "not_found", ""},
		{"missing parent", fmt.Errorf("%w: parent category", store.ErrMissingReference), http.StatusNotFound, "not_found", "parent category not found"},
		{"duplicate", fmt.Errorf("%w: x", store.ErrDuplicate), http.StatusBadRequest, "bad_request", ""},
		{"cycle", tree.ErrCycle, http.StatusBadRequest, "bad_request", tree.ErrCycle.Error()},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "internal_server_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			respondError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %q", ct)
			}
			var body errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantCode {
				t.Errorf("code: got %q, want %q", body.Error, tt.wantCode)
			}
			if tt.wantMsg != "" && body.Message != tt.wantMsg {
				t.Errorf("message: got %q, want %q", body.Message, tt.wantMsg)
			}
		})
	}

	t.Run("500 carries no message", func(t *testing.T) {
		rr := httptest.NewRecorder()
		respondError(rr, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret detail"))
		if strings.Contains(rr.Body.String(), "secret detail") {
			t.Errorf("internal error leaked: %s", rr.Body.String())
		}
	})
}

func TestParseForce(t *testing.T) {
	tests := map[string]bool{
		"":             false,
		"?force=":      false,
		"?force=1":     true,
		"?force=true":  true,
		"?force=TRUE":  true,
		"?force=True":  true,
		"?force=0":     false,
		"?force=yes":   false,
		"?force=false": false,
	}
	for query, want := range tests {
		r := httptest.NewRequest(http.MethodDelete, "/api/v1/categories/x"+query, nil)
		if got := parseForce(r); got != want {
			t.Errorf("parseForce(%q) = %v, want %v", query, got, want)
		}
	}
}

func TestOptionalUUID(t *testing.T) {
	id := uuid.New()

	var absent struct {
		ParentID optionalUUID `json:"parent_id"`
	}
	if err := json.Unmarshal([]byte(`{}`), &absent); err != nil {
		t.Fatal(err)
	}
	if absent.ParentID.Set {
		t.Error("absent field should not be Set")
	}

	var null struct {
		ParentID optionalUUID `json:"parent_id"`
	}
	if err := json.Unmarshal([]byte(`{"parent_id":null}`), &null); err != nil {
		t.Fatal(err)
	}
	if !null.ParentID.Set || null.ParentID.Value != nil {
		t.Errorf("null: got %+v, want Set with nil Value", null.ParentID)
	}

	var set struct {
		ParentID optionalUUID `json:"parent_id"`
	}
	if err := json.Unmarshal([]byte(`{"parent_id":"`+id.String()+`"}`), &set); err != nil {
		t.Fatal(err)
	}
	if !set.ParentID.Set || set.ParentID.Value == nil || *set.ParentID.Value != id {
		t.Errorf("value: got %+v", set.ParentID)
	}

	if err := json.Unmarshal([]byte(`{"parent_id":"nope"}`), &set); err == nil {
		t.Error("invalid uuid should fail")
	}
}

func TestOptionalString(t *testing.T) {
	var v struct {
		Text optionalString `json:"text"`
	}
	if err := json.Unmarshal([]byte(`{"text":""}`), &v); err != nil {
		t.Fatal(err)
	}
	if !v.Text.Set || v.Text.Value == nil || *v.Text.Value != "" {
		t.Errorf("empty string: got %+v", v.Text)
	}
	v.Text = optionalString{}
	if err := json.Unmarshal([]byte(`{"text":null}`), &v); err != nil {
		t.Fatal(err)
	}
	if !v.Text.Set || v.Text.Value != nil {
		t.Errorf("null: got %+v", v.Text)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"name":"x"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"two objects", `{"name":"x"}{"name":"y"}`, true},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst locationRequest
			rr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := decodeJSON(rr, r, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			var ae *apiError
			if err != nil && (!errors.As(err, &ae) || ae.status != http.StatusBadRequest) {
				t.Errorf("error should map to 400, got %v", err)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	id := uuid.New()
	r := withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String())
	got, err := pathID(r)
	if err != nil || got != id {
		t.Errorf("pathID = %s, %v", got, err)
	}

	r = withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "42")
	if _, err := pathID(r); err == nil {
		t.Error("non-uuid id should fail")
	}
}
