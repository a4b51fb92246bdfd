// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"pocketratings/internal/cache"
	"pocketratings/internal/tree"
)

// parseDepth reads an optional non-negative depth query parameter.
func parseDepth(r *http.Request, min int) (int, bool, error) {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return 0, false, nil
	}
	d, err := strconv.Atoi(raw)
	if err != nil || d < min {
		return 0, false, badRequest("depth must be an integer >= %d", min)
	}
	return d, true, nil
}

// ListCategories returns the category forest. parent_id scopes the top
// level to that category's children; depth=1 returns only the top level
// and depth=0, like no depth at all, returns every level.
func (a *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	parent, err := queryID(r, "parent_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	depth, ok, err := parseDepth(r, 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok || depth == 0 {
		depth = tree.Unbounded
	}

	ix, err := a.categoryIndex(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if parent != nil {
		if _, found := ix.Get(*parent); !found {
			respondError(w, r, notFound("parent category"))
			return
		}
	}

	nodes := ix.Forest(parent, depth)
	out := make([]categoryResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, newCategoryTree(n))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCategory returns one category with its subtree; depth limits how
// many levels below it are included (0 = none).
func (a *API) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	depth, ok, err := parseDepth(r, 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		depth = tree.Unbounded
	}
	a.respondCategory(w, r, http.StatusOK, id, depth)
}

func (a *API) respondCategory(w http.ResponseWriter, r *http.Request, status int, id uuid.UUID, depth int) {
	ix, err := a.categoryIndex(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	node, ok := ix.Subtree(id, depth)
	if !ok {
		respondError(w, r, notFound("category"))
		return
	}
	writeJSON(w, status, newCategoryTree(node))
}

type createCategoryRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// CreateCategory adds a category under parent_id, or at the root.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name, err := validateName("name", req.Name, maxNameLen)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := a.stores.Categories.Create(r.Context(), req.ParentID, name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Category, created.ID, "create")
	a.respondCategory(w, r, http.StatusCreated, created.ID, tree.Unbounded)
}

type updateCategoryRequest struct {
	Name     *string      `json:"name"`
	ParentID optionalUUID `json:"parent_id"`
}

// UpdateCategory renames and/or moves a category. An absent parent_id
// keeps the current parent; an explicit null moves it to the root.
func (a *API) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	existing, err := a.stores.Categories.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	name := existing.Name
	if req.Name != nil {
		if name, err = validateName("name", *req.Name, maxNameLen); err != nil {
			respondError(w, r, err)
			return
		}
	}
	parent := existing.ParentID
	if req.ParentID.Set {
		parent = req.ParentID.Value
	}
	if parent != nil && *parent == id {
		respondError(w, r, badRequest("a category cannot be its own parent"))
		return
	}

	_, changed, err := a.stores.Categories.Update(r.Context(), id, name, parent)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if changed {
		a.invalidate(r.Context(), cache.Category, id, "update")
	}
	a.respondCategory(w, r, http.StatusOK, id, tree.Unbounded)
}

// DeleteCategory soft-deletes a category without active children or
// products, or hard-deletes it with force.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := a.stores.Categories.Delete(r.Context(), id, parseForce(r)); err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Category, id, "delete")
	w.WriteHeader(http.StatusNoContent)
}
