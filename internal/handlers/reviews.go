// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"pocketratings/internal/cache"
	"pocketratings/internal/models"
)

// ListReviews returns active reviews, filtered by product_id and by
// user_id, which defaults to the caller.
func (a *API) ListReviews(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	productID, err := queryID(r, "product_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	userID, err := queryID(r, "user_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if userID == nil {
		userID = &caller
	}

	items, err := a.reviewList(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := []reviewResponse{}
	for _, rv := range items {
		if rv.UserID != *userID {
			continue
		}
		if productID != nil && rv.ProductID != *productID {
			continue
		}
		out = append(out, newReviewResponse(rv))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetReview returns one active review.
func (a *API) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.respondReview(w, r, http.StatusOK, id)
}

func (a *API) respondReview(w http.ResponseWriter, r *http.Request, status int, id uuid.UUID) {
	rv, err := a.reviewFromSnapshot(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, status, newReviewResponse(rv))
}

type createReviewRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Rating    *float64  `json:"rating"`
	Text      *string   `json:"text"`
}

// CreateReview records the caller's rating of a product.
func (a *API) CreateReview(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.ProductID == uuid.Nil {
		respondError(w, r, badRequest("product_id is required"))
		return
	}
	if req.Rating == nil {
		respondError(w, r, badRequest("rating is required"))
		return
	}
	if err := validateRating(*req.Rating); err != nil {
		respondError(w, r, err)
		return
	}
	text, err := normalizeText(req.Text)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := a.stores.Reviews.Create(r.Context(), caller, req.ProductID, *req.Rating, text)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Review, created.ID, "create")
	a.respondReview(w, r, http.StatusCreated, created.ID)
}

type updateReviewRequest struct {
	Rating *float64       `json:"rating"`
	Text   optionalString `json:"text"`
}

// ownedReview loads an active review and checks the caller wrote it.
func (a *API) ownedReview(r *http.Request) (*models.Review, error) {
	caller, err := callerID(r)
	if err != nil {
		return nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	rv, err := a.stores.Reviews.FindByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if rv.UserID != caller {
		return nil, forbidden("only the author may change this review")
	}
	return rv, nil
}

// UpdateReview changes the rating and/or text. Text null or "" clears it.
func (a *API) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req updateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	existing, err := a.ownedReview(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rating := existing.Rating
	if req.Rating != nil {
		if err := validateRating(*req.Rating); err != nil {
			respondError(w, r, err)
			return
		}
		rating = *req.Rating
	}
	text := existing.Text
	if req.Text.Set {
		if text, err = normalizeText(req.Text.Value); err != nil {
			respondError(w, r, err)
			return
		}
	}

	_, changed, err := a.stores.Reviews.Update(r.Context(), existing.ID, rating, text)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if changed {
		a.invalidate(r.Context(), cache.Review, existing.ID, "update")
	}
	a.respondReview(w, r, http.StatusOK, existing.ID)
}

// DeleteReview removes one of the caller's reviews.
func (a *API) DeleteReview(w http.ResponseWriter, r *http.Request) {
	existing, err := a.ownedReview(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := a.stores.Reviews.Delete(r.Context(), existing.ID, parseForce(r)); err != nil {
		respondError(w, r, err)
		return
	}
	a.invalidate(r.Context(), cache.Review, existing.ID, "delete")
	w.WriteHeader(http.StatusNoContent)
}
