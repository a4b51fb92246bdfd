// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPurchaseLifecycle(t *testing.T) {
	f := newFixture(t)
	p := f.product(f.category("Fruit", nil), "Apple")
	l := f.location("Greengrocer")
	l2 := f.location("Supermarket")
	u := f.user("shopper")
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	in := PurchaseInput{ProductID: p.ID, LocationID: l.ID, Quantity: 3, Price: "2.50", PurchasedAt: at}
	pu, err := f.purchases.Create(f.ctx, u.ID, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pu.Price != "2.50" || pu.Quantity != 3 || !pu.PurchasedAt.Equal(at) {
		t.Errorf("Create = %+v", pu)
	}

	// 2.5 and 2.50 are the same amount.
	same := in
	same.Price = "2.5"
	if _, changed, err := f.purchases.Update(f.ctx, pu.ID, same); err != nil || changed {
		t.Errorf("no-op Update: changed=%v err=%v", changed, err)
	}

	moved := in
	moved.LocationID = l2.ID
	moved.Price = "2.75"
	got, changed, err := f.purchases.Update(f.ctx, pu.ID, moved)
	if err != nil || !changed {
		t.Fatalf("Update: changed=%v err=%v", changed, err)
	}
	if got.LocationID != l2.ID || got.Price != "2.75" {
		t.Errorf("Update = %+v", got)
	}

	list, err := f.purchases.ListWithRelations(f.ctx)
	if err != nil {
		t.Fatalf("ListWithRelations: %v", err)
	}
	var found bool
	for _, item := range list {
		if item.ID == pu.ID {
			found = true
			if item.LocationName != l2.Name || item.UserName != u.Name || item.ProductName != p.Name {
				t.Errorf("relations = %+v", item)
			}
		}
	}
	if !found {
		t.Error("purchase missing from ListWithRelations")
	}

	if err := f.purchases.Delete(f.ctx, pu.ID, false); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.purchases.FindByID(f.ctx, pu.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID(deleted) = %v, want ErrNotFound", err)
	}
}

func TestPurchaseMissingReferences(t *testing.T) {
	f := newFixture(t)
	p := f.product(f.category("Veg", nil), "Leek")
	l := f.location("Stall")
	u := f.user("cook")
	now := time.Now()

	tests := []struct {
		name string
		user uuid.UUID
		in   PurchaseInput
	}{
		{"product", u.ID, PurchaseInput{ProductID: uuid.New(), LocationID: l.ID, Quantity: 1, Price: "1", PurchasedAt: now}},
		{"location", u.ID, PurchaseInput{ProductID: p.ID, LocationID: uuid.New(), Quantity: 1, Price: "1", PurchasedAt: now}},
		{"user", uuid.New(), PurchaseInput{ProductID: p.ID, LocationID: l.ID, Quantity: 1, Price: "1", PurchasedAt: now}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.purchases.Create(f.ctx, tt.user, tt.in)
			if !errors.Is(err, ErrMissingReference) {
				t.Errorf("Create = %v, want ErrMissingReference", err)
			}
		})
	}

	if err := f.locations.Delete(f.ctx, l.ID, false); err != nil {
		t.Fatalf("delete location: %v", err)
	}
	_, err := f.purchases.Create(f.ctx, u.ID, PurchaseInput{
		ProductID: p.ID, LocationID: l.ID, Quantity: 1, Price: "1", PurchasedAt: now,
	})
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("Create at deleted location = %v, want ErrMissingReference", err)
	}
}
