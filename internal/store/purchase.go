// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pocketratings/internal/models"
)

// PurchaseStore manages purchases in the database.
type PurchaseStore struct {
	db *sql.DB
}

// NewPurchaseStore returns a new PurchaseStore.
func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

// PurchaseInput carries the writable fields of a purchase.
type PurchaseInput struct {
	ProductID   uuid.UUID
	LocationID  uuid.UUID
	Quantity    int
	Price       string
	PurchasedAt time.Time
}

const purchaseColumns = `pu.id, pu.user_id, pu.product_id, pu.location_id, pu.quantity, pu.price::text, pu.purchased_at, pu.deleted_at`

func scanPurchase(scanner rowScanner, extra ...any) (*models.Purchase, error) {
	var (
		p       models.Purchase
		deleted sql.NullTime
	)
	dest := append([]any{&p.ID, &p.UserID, &p.ProductID, &p.LocationID, &p.Quantity, &p.Price, &p.PurchasedAt, &deleted}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	p.DeletedAt = nullTime(deleted)
	return &p, nil
}

// ListWithRelations returns every active purchase joined with the names of
// its user, product and location, most recent first.
func (s *PurchaseStore) ListWithRelations(ctx context.Context) ([]models.PurchaseWithRelations, error) {
	return s.List(ctx, false)
}

// List is ListWithRelations with soft-deleted purchases included on request.
func (s *PurchaseStore) List(ctx context.Context, withDeleted bool) ([]models.PurchaseWithRelations, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+`, u.name, p.brand, p.name, l.name
		FROM purchases pu
		JOIN users u ON u.id = pu.user_id
		JOIN products p ON p.id = pu.product_id
		JOIN locations l ON l.id = pu.location_id
		`+activeOnly("pu.", withDeleted)+`
		ORDER BY pu.purchased_at DESC, pu.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	items := []models.PurchaseWithRelations{}
	for rows.Next() {
		var item models.PurchaseWithRelations
		p, err := scanPurchase(rows, &item.UserName, &item.ProductBrand, &item.ProductName, &item.LocationName)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		item.Purchase = *p
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindByID retrieves an active purchase.
func (s *PurchaseStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	p, err := scanPurchase(s.db.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases pu WHERE pu.id = $1 AND pu.deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find purchase by id: %w", err)
	}
	return p, nil
}

// Create records a purchase by userID. Product, location and user must be
// active and stay share-locked until the insert commits.
func (s *PurchaseStore) Create(ctx context.Context, userID uuid.UUID, in PurchaseInput) (*models.Purchase, error) {
	var created *models.Purchase
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := lockPurchaseRefs(ctx, tx, in.ProductID, in.LocationID); err != nil {
			return err
		}
		if err := requireActive(ctx, tx, "users", "user", userID); err != nil {
			return err
		}
		p, err := scanPurchase(tx.QueryRowContext(ctx, `
			INSERT INTO purchases AS pu (id, user_id, product_id, location_id, quantity, price, purchased_at)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
			RETURNING `+purchaseColumns,
			uuid.New(), userID, in.ProductID, in.LocationID, in.Quantity, in.Price, in.PurchasedAt,
		))
		if err != nil {
			return fmt.Errorf("create purchase: %w", classify(err))
		}
		created = p
		return nil
	})
	return created, err
}

// Update replaces the writable fields of an active purchase and reports
// whether anything changed.
func (s *PurchaseStore) Update(ctx context.Context, id uuid.UUID, in PurchaseInput) (*models.Purchase, bool, error) {
	var (
		result  *models.Purchase
		changed bool
	)
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := scanPurchase(tx.QueryRowContext(ctx,
			`SELECT `+purchaseColumns+` FROM purchases pu WHERE pu.id = $1 AND pu.deleted_at IS NULL FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock purchase: %w", err)
		}

		var samePrice bool
		if err := tx.QueryRowContext(ctx, `SELECT $1::numeric = $2::numeric`, existing.Price, in.Price).Scan(&samePrice); err != nil {
			return fmt.Errorf("compare price: %w", classify(err))
		}
		if existing.ProductID == in.ProductID && existing.LocationID == in.LocationID &&
			existing.Quantity == in.Quantity && samePrice && existing.PurchasedAt.Equal(in.PurchasedAt) {
			result = existing
			return nil
		}

		if err := lockPurchaseRefs(ctx, tx, in.ProductID, in.LocationID); err != nil {
			return err
		}
		p, err := scanPurchase(tx.QueryRowContext(ctx, `
			UPDATE purchases AS pu SET product_id = $1, location_id = $2, quantity = $3,
				price = $4::numeric, purchased_at = $5
			WHERE pu.id = $6
			RETURNING `+purchaseColumns,
			in.ProductID, in.LocationID, in.Quantity, in.Price, in.PurchasedAt, id,
		))
		if err != nil {
			return fmt.Errorf("update purchase: %w", classify(err))
		}
		result, changed = p, true
		return nil
	})
	return result, changed, err
}

func lockPurchaseRefs(ctx context.Context, q dbtx, productID, locationID uuid.UUID) error {
	if err := requireActive(ctx, q, "products", "product", productID); err != nil {
		return err
	}
	return requireActive(ctx, q, "locations", "location", locationID)
}

// Delete soft-deletes a purchase, or removes it outright with force.
func (s *PurchaseStore) Delete(ctx context.Context, id uuid.UUID, force bool) error {
	if force {
		return hardDelete(ctx, s.db, "purchases", id)
	}
	return plainSoftDelete(ctx, s.db, "purchases", id, false)
}
