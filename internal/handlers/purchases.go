// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"pocketratings/internal/cache"
	"pocketratings/internal/models"
	"pocketratings/internal/store"
)

// ListPurchases returns active purchases, newest first. user_id defaults
// to the caller; from and to bound purchased_at inclusively.
func (a *API) ListPurchases(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()

	userID, err := queryID(r, "user_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if userID == nil {
		userID = &caller
	}
	productID, err := queryID(r, "product_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	locationID, err := queryID(r, "location_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	from, err := parseDateBound("from", q.Get("from"), false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	to, err := parseDateBound("to", q.Get("to"), true)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := a.purchaseList(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := []purchaseResponse{}
	for _, p := range items {
		switch {
		case p.UserID != *userID:
			continue
		case productID != nil && p.ProductID != *productID:
			continue
		case locationID != nil && p.LocationID != *locationID:
			continue
		case from != nil && p.PurchasedAt.Before(*from):
			continue
		case to != nil && !p.PurchasedAt.Before(*to):
			continue
		}
		out = append(out, newPurchaseResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPurchase returns one active purchase.
func (a *API) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.respondPurchase(w, r, http.StatusOK, id)
}

func (a *API) respondPurchase(w http.ResponseWriter, r *http.Request, status int, id uuid.UUID) {
	p, err := a.purchaseFromSnapshot(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, status, newPurchaseResponse(p))
}

type purchaseRequest struct {
	ProductID   *uuid.UUID `json:"product_id"`
	LocationID  *uuid.UUID `json:"location_id"`
	Quantity    *int       `json:"quantity"`
	Price       *string    `json:"price"`
	PurchasedAt *flexTime  `json:"purchased_at"`
}

// input merges the request over base and validates the result.
func (req purchaseRequest) input(base store.PurchaseInput) (store.PurchaseInput, error) {
	in := base
	if req.ProductID != nil {
		in.ProductID = *req.ProductID
	}
	if req.LocationID != nil {
		in.LocationID = *req.LocationID
	}
	if req.Quantity != nil {
		in.Quantity = *req.Quantity
	}
	if req.PurchasedAt != nil {
		in.PurchasedAt = req.PurchasedAt.Time
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return in, err
		}
		in.Price = price
	}

	switch {
	case in.ProductID == uuid.Nil:
		return in, badRequest("product_id is required")
	case in.LocationID == uuid.Nil:
		return in, badRequest("location_id is required")
	case in.Price == "":
		return in, badRequest("price is required")
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return in, err
	}
	return in, nil
}

// CreatePurchase records a purchase by the caller. quantity defaults to 1
// and purchased_at to now.
func (a *API) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req purchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.input(store.PurchaseInput{Quantity: 1, PurchasedAt: a.now().UTC()})
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := a.stores.Purchases.Create(r.Context(), caller, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Purchase, created.ID, "create")
	a.respondPurchase(w, r, http.StatusCreated, created.ID)
}

// ownedPurchase loads an active purchase and checks the caller made it.
func (a *API) ownedPurchase(r *http.Request) (*models.Purchase, error) {
	caller, err := callerID(r)
	if err != nil {
		return nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	p, err := a.stores.Purchases.FindByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if p.UserID != caller {
		return nil, forbidden("only the buyer may change this purchase")
	}
	return p, nil
}

// UpdatePurchase changes any writable field of one of the caller's purchases.
func (a *API) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	existing, err := a.ownedPurchase(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.input(store.PurchaseInput{
		ProductID:   existing.ProductID,
		LocationID:  existing.LocationID,
		Quantity:    existing.Quantity,
		Price:       existing.Price,
		PurchasedAt: existing.PurchasedAt,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	_, changed, err := a.stores.Purchases.Update(r.Context(), existing.ID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if changed {
		a.invalidate(r.Context(), cache.Purchase, existing.ID, "update")
	}
	a.respondPurchase(w, r, http.StatusOK, existing.ID)
}

// DeletePurchase removes one of the caller's purchases.
func (a *API) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	existing, err := a.ownedPurchase(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := a.stores.Purchases.Delete(r.Context(), existing.ID, parseForce(r)); err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Purchase, existing.ID, "delete")
	w.WriteHeader(http.StatusNoContent)
}
