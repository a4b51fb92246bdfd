// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pocketratings/internal/integrity"
	"pocketratings/internal/models"
)

// ProductStore manages products in the database.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore returns a new ProductStore.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `p.id, p.category_id, p.brand, p.name, p.created_at, p.updated_at, p.deleted_at`

func scanProduct(scanner rowScanner, extra ...any) (*models.Product, error) {
	var (
		p       models.Product
		deleted sql.NullTime
	)
	dest := append([]any{&p.ID, &p.CategoryID, &p.Brand, &p.Name, &p.CreatedAt, &p.UpdatedAt, &deleted}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	p.DeletedAt = nullTime(deleted)
	return &p, nil
}

// ListWithCategory returns every active product joined with its category
// name, ordered by brand and name.
func (s *ProductStore) ListWithCategory(ctx context.Context) ([]models.ProductWithCategory, error) {
	return s.List(ctx, false)
}

// List is ListWithCategory with soft-deleted products included on request.
func (s *ProductStore) List(ctx context.Context, withDeleted bool) ([]models.ProductWithCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`, c.name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		`+activeOnly("p.", withDeleted)+`
		ORDER BY lower(p.brand), lower(p.name), p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := []models.ProductWithCategory{}
	for rows.Next() {
		var item models.ProductWithCategory
		p, err := scanProduct(rows, &item.CategoryName)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		item.Product = *p
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindByID retrieves an active product. Returns ErrNotFound if it does not
// exist or is soft-deleted.
func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id = $1 AND p.deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// Create inserts a product into an active category.
func (s *ProductStore) Create(ctx context.Context, categoryID uuid.UUID, brand, name string) (*models.Product, error) {
	var created *models.Product
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := requireActive(ctx, tx, "categories", "category", categoryID); err != nil {
			return err
		}
		p, err := scanProduct(tx.QueryRowContext(ctx, `
			INSERT INTO products AS p (id, category_id, brand, name)
			VALUES ($1, $2, $3, $4)
			RETURNING `+productColumns,
			uuid.New(), categoryID, brand, name,
		))
		if err != nil {
			return fmt.Errorf("create product: %w", classify(err))
		}
		created = p
		return nil
	})
	return created, err
}

// Update sets the category, brand and name of an active product and
// reports whether anything changed.
func (s *ProductStore) Update(ctx context.Context, id, categoryID uuid.UUID, brand, name string) (*models.Product, bool, error) {
	var (
		result  *models.Product
		changed bool
	)
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := scanProduct(tx.QueryRowContext(ctx,
			`SELECT `+productColumns+` FROM products p WHERE p.id = $1 AND p.deleted_at IS NULL FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		if existing.CategoryID == categoryID && existing.Brand == brand && existing.Name == name {
			result = existing
			return nil
		}
		if existing.CategoryID != categoryID {
			if err := requireActive(ctx, tx, "categories", "category", categoryID); err != nil {
				return err
			}
		}

		p, err := scanProduct(tx.QueryRowContext(ctx, `
			UPDATE products AS p SET category_id = $1, brand = $2, name = $3, updated_at = NOW()
			WHERE p.id = $4
			RETURNING `+productColumns,
			categoryID, brand, name, id,
		))
		if err != nil {
			return fmt.Errorf("update product: %w", classify(err))
		}
		result, changed = p, true
		return nil
	})
	return result, changed, err
}

// Delete soft-deletes a product with no active purchases, or removes it
// outright with force.
func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID, force bool) error {
	if force {
		return hardDelete(ctx, s.db, "products", id)
	}
	return guardedSoftDelete(ctx, s.db, "products", integrity.Product, id, true)
}
