// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pocketratings/internal/listcache"
	"pocketratings/internal/models"
	"pocketratings/internal/tree"
)

// Snapshot accessors. Each key always holds the same type.

func (a *API) categoryIndex(ctx context.Context) (*tree.Index, error) {
	return listcache.GetOrBuild(ctx, a.lists, listcache.Categories, func(ctx context.Context) (*tree.Index, error) {
		rows, err := a.stores.Categories.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("build category snapshot: %w", err)
		}
		return tree.Build(rows), nil
	})
}

func (a *API) productList(ctx context.Context) ([]models.ProductWithCategory, error) {
	return listcache.GetOrBuild(ctx, a.lists, listcache.Products, a.stores.Products.ListWithCategory)
}

func (a *API) locationList(ctx context.Context) ([]models.Location, error) {
	return listcache.GetOrBuild(ctx, a.lists, listcache.Locations, a.stores.Locations.ListActive)
}

func (a *API) reviewList(ctx context.Context) ([]models.ReviewWithRelations, error) {
	return listcache.GetOrBuild(ctx, a.lists, listcache.Reviews, a.stores.Reviews.ListWithRelations)
}

func (a *API) purchaseList(ctx context.Context) ([]models.PurchaseWithRelations, error) {
	return listcache.GetOrBuild(ctx, a.lists, listcache.Purchases, a.stores.Purchases.ListWithRelations)
}

// find returns the element of items whose id matches.
func find[T any](items []T, id uuid.UUID, idOf func(*T) uuid.UUID) (T, bool) {
	for i := range items {
		if idOf(&items[i]) == id {
			return items[i], true
		}
	}
	var zero T
	return zero, false
}

func (a *API) productFromSnapshot(ctx context.Context, id uuid.UUID) (models.ProductWithCategory, error) {
	items, err := a.productList(ctx)
	if err != nil {
		return models.ProductWithCategory{}, err
	}
	p, ok := find(items, id, func(p *models.ProductWithCategory) uuid.UUID { return p.ID })
	if !ok {
		return p, notFound("product")
	}
	return p, nil
}

func (a *API) locationFromSnapshot(ctx context.Context, id uuid.UUID) (models.Location, error) {
	items, err := a.locationList(ctx)
	if err != nil {
		return models.Location{}, err
	}
	l, ok := find(items, id, func(l *models.Location) uuid.UUID { return l.ID })
	if !ok {
		return l, notFound("location")
	}
	return l, nil
}

func (a *API) reviewFromSnapshot(ctx context.Context, id uuid.UUID) (models.ReviewWithRelations, error) {
	items, err := a.reviewList(ctx)
	if err != nil {
		return models.ReviewWithRelations{}, err
	}
	r, ok := find(items, id, func(r *models.ReviewWithRelations) uuid.UUID { return r.ID })
	if !ok {
		return r, notFound("review")
	}
	return r, nil
}

func (a *API) purchaseFromSnapshot(ctx context.Context, id uuid.UUID) (models.PurchaseWithRelations, error) {
	items, err := a.purchaseList(ctx)
	if err != nil {
		return models.PurchaseWithRelations{}, err
	}
	p, ok := find(items, id, func(p *models.PurchaseWithRelations) uuid.UUID { return p.ID })
	if !ok {
		return p, notFound("purchase")
	}
	return p, nil
}
