// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"pocketratings/internal/cache"
	"pocketratings/internal/models"
)

// ListProducts returns active products. category_id matches the whole
// subtree of that category; q matches brand or name case-insensitively.
func (a *API) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "category_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	var inScope map[uuid.UUID]bool
	if categoryID != nil {
		ix, err := a.categoryIndex(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		ids := ix.Descendants(*categoryID)
		if ids == nil {
			respondError(w, r, notFound("category"))
			return
		}
		inScope = make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			inScope[id] = true
		}
	}

	items, err := a.productList(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := []productResponse{}
	for _, p := range items {
		if inScope != nil && !inScope[p.CategoryID] {
			continue
		}
		if !p.Matches(q) {
			continue
		}
		out = append(out, newProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct returns one active product.
func (a *API) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.respondProduct(w, r, http.StatusOK, id)
}

func (a *API) respondProduct(w http.ResponseWriter, r *http.Request, status int, id uuid.UUID) {
	p, err := a.productFromSnapshot(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, status, newProductResponse(p))
}

type productRequest struct {
	CategoryID *uuid.UUID `json:"category_id"`
	Brand      *string    `json:"brand"`
	Name       *string    `json:"name"`
}

// fill validates the request against base, which holds the current values
// for an update and is zero for a create.
func (req productRequest) fill(base models.Product) (models.Product, error) {
	out := base
	if req.CategoryID != nil {
		out.CategoryID = *req.CategoryID
	}
	if out.CategoryID == uuid.Nil {
		return out, badRequest("category_id is required")
	}
	var err error
	if req.Brand != nil {
		if out.Brand, err = validateName("brand", *req.Brand, maxBrandLen); err != nil {
			return out, err
		}
	} else if out.Brand == "" {
		return out, badRequest("brand is required")
	}
	if req.Name != nil {
		if out.Name, err = validateName("name", *req.Name, maxNameLen); err != nil {
			return out, err
		}
	} else if out.Name == "" {
		return out, badRequest("name is required")
	}
	return out, nil
}

// CreateProduct adds a product to an active category.
func (a *API) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := req.fill(models.Product{})
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := a.stores.Products.Create(r.Context(), p.CategoryID, p.Brand, p.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Product, created.ID, "create")
	a.respondProduct(w, r, http.StatusCreated, created.ID)
}

// UpdateProduct changes any of category_id, brand and name.
func (a *API) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	existing, err := a.stores.Products.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := req.fill(*existing)
	if err != nil {
		respondError(w, r, err)
		return
	}

	_, changed, err := a.stores.Products.Update(r.Context(), id, p.CategoryID, p.Brand, p.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if changed {
		a.invalidate(r.Context(), cache.Product, id, "update")
	}
	a.respondProduct(w, r, http.StatusOK, id)
}

// DeleteProduct soft-deletes a product without active purchases, or
// hard-deletes it with force.
func (a *API) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := a.stores.Products.Delete(r.Context(), id, parseForce(r)); err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Product, id, "delete")
	w.WriteHeader(http.StatusNoContent)
}
