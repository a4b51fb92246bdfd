// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase records that a user bought a quantity of a product at a
// location. Price is a decimal string with at most two fractional digits.
type Purchase struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ProductID   uuid.UUID  `json:"product_id"`
	LocationID  uuid.UUID  `json:"location_id"`
	Quantity    int        `json:"quantity"`
	Price       string     `json:"price"`
	PurchasedAt time.Time  `json:"purchased_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// PurchaseWithRelations is a purchase joined with the names of everything
// it references, as served by the purchase list.
type PurchaseWithRelations struct {
	Purchase
	UserName     string `json:"user_name"`
	ProductBrand string `json:"product_brand"`
	ProductName  string `json:"product_name"`
	LocationName string `json:"location_name"`
}
