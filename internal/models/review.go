// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Review is one user's rating of a product.
type Review struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Rating    float64    `json:"rating"`
	Text      *string    `json:"text,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ReviewWithRelations is a review joined with its product and author, as
// served by the review list.
type ReviewWithRelations struct {
	Review
	ProductBrand string `json:"product_brand"`
	ProductName  string `json:"product_name"`
	UserName     string `json:"user_name"`
}

// ValidRating reports whether r is within [MinRating, MaxRating] and has at
// most one fractional digit, which is what the rating column stores.
func ValidRating(r float64) bool {
	if math.IsNaN(r) || r < MinRating || r > MaxRating {
		return false
	}
	return math.Abs(r*10-math.Round(r*10)) < 1e-9
}
