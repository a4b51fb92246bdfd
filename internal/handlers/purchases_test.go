// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPurchaseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category("Cat", nil)
	p := env.product(cat.ID, "Brand", "Beans")
	shop := env.location("Shop")
	market := env.location("Market")
	kiosk := env.location("Kiosk")
	_, otherToken := env.newUser("Other")

	create := func(body map[string]any) purchaseResponse {
		t.Helper()
		return decode[purchaseResponse](t, env.as(http.MethodPost, "/api/v1/purchases", body), http.StatusCreated)
	}

	march := create(map[string]any{
		"product_id": p.ID, "location_id": shop.ID, "price": "2.5", "purchased_at": "2026-03-14",
	})
	if march.Price != "2.50" {
		t.Errorf("price: got %q, want 2.50", march.Price)
	}
	if march.Quantity != 1 {
		t.Errorf("quantity default: got %d", march.Quantity)
	}
	if want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC).Unix(); march.PurchasedAt != want {
		t.Errorf("purchased_at: got %d, want %d", march.PurchasedAt, want)
	}
	if march.LocationName != shop.Name || march.ProductName != p.Name {
		t.Errorf("relations: got %+v", march)
	}

	april := create(map[string]any{
		"product_id": p.ID, "location_id": market.ID, "price": "10", "quantity": 3,
		"purchased_at": "2026-04-01T12:00:00Z",
	})

	t.Run("purchased_at defaults to now", func(t *testing.T) {
		before := time.Now().Unix()
		got := decode[purchaseResponse](t, env.do(http.MethodPost, "/api/v1/purchases",
			map[string]any{"product_id": p.ID, "location_id": kiosk.ID, "price": "1"}, otherToken), http.StatusCreated)
		if got.PurchasedAt < before-1 || got.PurchasedAt > time.Now().Unix()+1 {
			t.Errorf("purchased_at: got %d, want about %d", got.PurchasedAt, before)
		}
	})

	list := func(query string) []purchaseResponse {
		t.Helper()
		return decode[[]purchaseResponse](t, env.as(http.MethodGet, "/api/v1/purchases"+query, nil), http.StatusOK)
	}

	t.Run("filters", func(t *testing.T) {
		if got := list(""); len(got) != 2 {
			t.Errorf("all: got %d", len(got))
		}
		if got := list("?location_id=" + shop.ID.String()); len(got) != 1 || got[0].ID != march.ID {
			t.Errorf("by location: got %+v", got)
		}
		// "to" as a date includes that whole day.
		if got := list("?from=2026-03-14&to=2026-03-14"); len(got) != 1 || got[0].ID != march.ID {
			t.Errorf("single day: got %+v", got)
		}
		if got := list("?to=2026-03-13"); len(got) != 0 {
			t.Errorf("before: got %d", len(got))
		}
		if got := list("?from=2026-03-15"); len(got) != 1 || got[0].ID != april.ID {
			t.Errorf("after: got %+v", got)
		}
		if got := list("?product_id=" + uuid.NewString()); len(got) != 0 {
			t.Errorf("unknown product: got %d", len(got))
		}
		expectError(t, env.as(http.MethodGet, "/api/v1/purchases?from=yesterday", nil), http.StatusBadRequest, "bad_request")
	})

	t.Run("validation", func(t *testing.T) {
		base := func() map[string]any {
			return map[string]any{"product_id": p.ID, "location_id": shop.ID, "price": "1.00"}
		}
		cases := map[string]func(map[string]any){
			"negative price": func(m map[string]any) { m["price"] = "-1" },
			"three decimals": func(m map[string]any) { m["price"] = "1.005" },
			"no price":       func(m map[string]any) { delete(m, "price") },
			"zero quantity":  func(m map[string]any) { m["quantity"] = 0 },
			"no location":    func(m map[string]any) { delete(m, "location_id") },
		}
		for name, mutate := range cases {
			body := base()
			mutate(body)
			rr := env.as(http.MethodPost, "/api/v1/purchases", body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("%s: got %d, want 400", name, rr.Code)
			}
		}
		body := base()
		body["location_id"] = uuid.New()
		expectError(t, env.as(http.MethodPost, "/api/v1/purchases", body), http.StatusNotFound, "not_found")
	})

	path := "/api/v1/purchases/" + march.ID.String()

	t.Run("only the buyer may modify", func(t *testing.T) {
		expectError(t, env.do(http.MethodPatch, path, map[string]any{"quantity": 2}, otherToken), http.StatusForbidden, "forbidden")
		expectError(t, env.do(http.MethodDelete, path, nil, otherToken), http.StatusForbidden, "forbidden")
	})

	t.Run("update", func(t *testing.T) {
		got := decode[purchaseResponse](t, env.as(http.MethodPatch, path,
			map[string]any{"location_id": market.ID, "price": "3"}), http.StatusOK)
		if got.LocationID != market.ID || got.Price != "3.00" || got.Quantity != 1 {
			t.Errorf("updated: got %+v", got)
		}
	})

	t.Run("location in use cannot be deleted", func(t *testing.T) {
		expectError(t, env.as(http.MethodDelete, "/api/v1/locations/"+market.ID.String(), nil), http.StatusConflict, "conflict")
		if rr := env.as(http.MethodDelete, "/api/v1/locations/"+shop.ID.String(), nil); rr.Code != http.StatusNoContent {
			t.Errorf("unused location delete: got %d", rr.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if rr := env.as(http.MethodDelete, path, nil); rr.Code != http.StatusNoContent {
			t.Fatalf("delete: got %d", rr.Code)
		}
		if got := list(""); len(got) != 1 {
			t.Errorf("remaining: got %d, want 1", len(got))
		}
	})
}
