// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"pocketratings/internal/cache"
)

// ListLocations returns every active location.
func (a *API) ListLocations(w http.ResponseWriter, r *http.Request) {
	items, err := a.locationList(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]locationResponse, 0, len(items))
	for _, l := range items {
		out = append(out, newLocationResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetLocation returns one active location.
func (a *API) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	l, err := a.locationFromSnapshot(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLocationResponse(l))
}

type locationRequest struct {
	Name string `json:"name"`
}

func (a *API) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name, err := validateName("name", req.Name, maxNameLen)
	if err != nil {
		respondError(w, r, err)
		return
	}
	created, err := a.stores.Locations.Create(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Location, created.ID, "create")
	writeJSON(w, http.StatusCreated, newLocationResponse(*created))
}

func (a *API) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name, err := validateName("name", req.Name, maxNameLen)
	if err != nil {
		respondError(w, r, err)
		return
	}
	updated, changed, err := a.stores.Locations.Update(r.Context(), id, name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if changed {
		a.invalidate(r.Context(), cache.Location, id, "update")
	}
	writeJSON(w, http.StatusOK, newLocationResponse(*updated))
}

func (a *API) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := a.stores.Locations.Delete(r.Context(), id, parseForce(r)); err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Location, id, "delete")
	w.WriteHeader(http.StatusNoContent)
}
