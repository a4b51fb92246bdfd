// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"time"

	"github.com/google/uuid"

	"pocketratings/internal/models"
	"pocketratings/internal/tree"
)

// Response shapes. Timestamps are Unix seconds and deleted_at is omitted
// for active rows.

func unix(t time.Time) int64 { return t.Unix() }

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}

type categoryResponse struct {
	ID        uuid.UUID          `json:"id"`
	ParentID  *uuid.UUID         `json:"parent_id"`
	Name      string             `json:"name"`
	CreatedAt int64              `json:"created_at"`
	UpdatedAt int64              `json:"updated_at"`
	DeletedAt *int64             `json:"deleted_at,omitempty"`
	Children  []categoryResponse `json:"children"`
}

func newCategoryResponse(c models.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		ParentID:  c.ParentID,
		Name:      c.Name,
		CreatedAt: unix(c.CreatedAt),
		UpdatedAt: unix(c.UpdatedAt),
		DeletedAt: unixPtr(c.DeletedAt),
		Children:  []categoryResponse{},
	}
}

func newCategoryTree(n *tree.Node) categoryResponse {
	out := newCategoryResponse(n.Category)
	for _, child := range n.Children {
		out.Children = append(out.Children, newCategoryTree(child))
	}
	return out
}

type productResponse struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Brand        string    `json:"brand"`
	Name         string    `json:"name"`
	CreatedAt    int64     `json:"created_at"`
	UpdatedAt    int64     `json:"updated_at"`
	DeletedAt    *int64    `json:"deleted_at,omitempty"`
}

func newProductResponse(p models.ProductWithCategory) productResponse {
	return productResponse{
		ID:           p.ID,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Brand:        p.Brand,
		Name:         p.Name,
		CreatedAt:    unix(p.CreatedAt),
		UpdatedAt:    unix(p.UpdatedAt),
		DeletedAt:    unixPtr(p.DeletedAt),
	}
}

type locationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	DeletedAt *int64    `json:"deleted_at,omitempty"`
}

func newLocationResponse(l models.Location) locationResponse {
	return locationResponse{ID: l.ID, Name: l.Name, DeletedAt: unixPtr(l.DeletedAt)}
}

type reviewResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductBrand string    `json:"product_brand"`
	ProductName  string    `json:"product_name"`
	UserID       uuid.UUID `json:"user_id"`
	UserName     string    `json:"user_name"`
	Rating       float64   `json:"rating"`
	Text         *string   `json:"text"`
	CreatedAt    int64     `json:"created_at"`
	UpdatedAt    int64     `json:"updated_at"`
	DeletedAt    *int64    `json:"deleted_at,omitempty"`
}

func newReviewResponse(r models.ReviewWithRelations) reviewResponse {
	return reviewResponse{
		ID:           r.ID,
		ProductID:    r.ProductID,
		ProductBrand: r.ProductBrand,
		ProductName:  r.ProductName,
		UserID:       r.UserID,
		UserName:     r.UserName,
		Rating:       r.Rating,
		Text:         r.Text,
		CreatedAt:    unix(r.CreatedAt),
		UpdatedAt:    unix(r.UpdatedAt),
		DeletedAt:    unixPtr(r.DeletedAt),
	}
}

type purchaseResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	UserName     string    `json:"user_name"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductBrand string    `json:"product_brand"`
	ProductName  string    `json:"product_name"`
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	Quantity     int       `json:"quantity"`
	Price        string    `json:"price"`
	PurchasedAt  int64     `json:"purchased_at"`
	DeletedAt    *int64    `json:"deleted_at,omitempty"`
}

func newPurchaseResponse(p models.PurchaseWithRelations) purchaseResponse {
	return purchaseResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		UserName:     p.UserName,
		ProductID:    p.ProductID,
		ProductBrand: p.ProductBrand,
		ProductName:  p.ProductName,
		LocationID:   p.LocationID,
		LocationName: p.LocationName,
		Quantity:     p.Quantity,
		Price:        p.Price,
		PurchasedAt:  unix(p.PurchasedAt),
		DeletedAt:    unixPtr(p.DeletedAt),
	}
}
