// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package integrity decides whether a row may be soft-deleted while other
// active rows still point at it.
//
// The Guard only reads. Callers that act on its answer must run the check
// and the delete in the same transaction, with the target row locked, so
// that a concurrent insert cannot slip a new reference in between.
package integrity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrConflict is the sentinel wrapped by every ConflictError.
var ErrConflict = errors.New("conflict")

// Resource names a kind of row that can be deleted.
type Resource string

const (
	Category Resource = "category"
	Product  Resource = "product"
	Location Resource = "location"
	User     Resource = "user"
)

// Reference is one way an active row can point at another.
type Reference int

const (
	ChildCategories   Reference = iota // categories.parent_id
	CategoryProducts                   // products.category_id
	ProductPurchases                   // purchases.product_id
	LocationPurchases                  // purchases.location_id
	UserPurchases                      // purchases.user_id
	UserReviews                        // reviews.user_id
)

func (r Reference) String() string {
	switch r {
	case ChildCategories:
		return "child categories"
	case CategoryProducts:
		return "products"
	case ProductPurchases, LocationPurchases, UserPurchases:
		return "purchases"
	case UserReviews:
		return "reviews"
	}
	return fmt.Sprintf("Reference(%d)", int(r))
}

// rules lists, per resource, the references that block a soft delete.
// Checks run in this order and stop at the first hit.
var rules = map[Resource][]Reference{
	Category: {ChildCategories, CategoryProducts},
	Product:  {ProductPurchases},
	Location: {LocationPurchases},
	User:     {UserPurchases, UserReviews},
}

// Counter counts active rows holding a reference to id.
type Counter interface {
	CountActive(ctx context.Context, ref Reference, id uuid.UUID) (int, error)
}

// ConflictError reports the first reference that blocked a delete.
type ConflictError struct {
	Resource Resource
	ID       uuid.UUID
	Ref      Reference
	Count    int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot delete %s with active %s", e.Resource, e.Ref)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Guard runs the delete checks against a Counter.
type Guard struct {
	counter Counter
}

// New returns a Guard reading through c. Pass a transaction-scoped Counter
// when the answer is going to be acted on.
func New(c Counter) *Guard {
	return &Guard{counter: c}
}

// CanDelete returns nil when no active row references id, a
// *ConflictError when one does, and any counting error unchanged.
func (g *Guard) CanDelete(ctx context.Context, res Resource, id uuid.UUID) error {
	refs, ok := rules[res]
	if !ok {
		return fmt.Errorf("no delete rules for %q", res)
	}
	for _, ref := range refs {
		n, err := g.counter.CountActive(ctx, ref, id)
		if err != nil {
			return fmt.Errorf("count %s of %s %s: %w", ref, res, id, err)
		}
		if n > 0 {
			return &ConflictError{Resource: res, ID: id, Ref: ref, Count: n}
		}
	}
	return nil
}

// CanDeleteCategory fails while the category has active children or
// active products.
func (g *Guard) CanDeleteCategory(ctx context.Context, id uuid.UUID) error {
	return g.CanDelete(ctx, Category, id)
}

// CanDeleteProduct fails while any active purchase references the product.
func (g *Guard) CanDeleteProduct(ctx context.Context, id uuid.UUID) error {
	return g.CanDelete(ctx, Product, id)
}

// CanDeleteLocation fails while any active purchase references the location.
func (g *Guard) CanDeleteLocation(ctx context.Context, id uuid.UUID) error {
	return g.CanDelete(ctx, Location, id)
}

// CanDeleteUser fails while the user has active purchases or reviews.
func (g *Guard) CanDeleteUser(ctx context.Context, id uuid.UUID) error {
	return g.CanDelete(ctx, User, id)
}
