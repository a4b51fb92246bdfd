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

	"pocketratings/internal/models"
)

// ReviewStore manages reviews in the database.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore returns a new ReviewStore.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

const reviewColumns = `r.id, r.product_id, r.user_id, r.rating, r.text, r.created_at, r.updated_at, r.deleted_at`

func scanReview(scanner rowScanner, extra ...any) (*models.Review, error) {
	var (
		r       models.Review
		text    sql.NullString
		deleted sql.NullTime
	)
	dest := append([]any{&r.ID, &r.ProductID, &r.UserID, &r.Rating, &text, &r.CreatedAt, &r.UpdatedAt, &deleted}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	if text.Valid {
		r.Text = &text.String
	}
	r.DeletedAt = nullTime(deleted)
	return &r, nil
}

// ListWithRelations returns every active review joined with its product
// and author, newest first.
func (s *ReviewStore) ListWithRelations(ctx context.Context) ([]models.ReviewWithRelations, error) {
	return s.List(ctx, false)
}

// List is ListWithRelations with soft-deleted reviews included on request.
func (s *ReviewStore) List(ctx context.Context, withDeleted bool) ([]models.ReviewWithRelations, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`, p.brand, p.name, u.name
		FROM reviews r
		JOIN products p ON p.id = r.product_id
		JOIN users u ON u.id = r.user_id
		`+activeOnly("r.", withDeleted)+`
		ORDER BY r.created_at DESC, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	items := []models.ReviewWithRelations{}
	for rows.Next() {
		var item models.ReviewWithRelations
		r, err := scanReview(rows, &item.ProductBrand, &item.ProductName, &item.UserName)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		item.Review = *r
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindByID retrieves an active review.
func (s *ReviewStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews r WHERE r.id = $1 AND r.deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find review by id: %w", err)
	}
	return r, nil
}

// Create inserts a review by userID for an active product. The author is
// share-locked as well, so a concurrent user delete sees the new review.
func (s *ReviewStore) Create(ctx context.Context, userID, productID uuid.UUID, rating float64, text *string) (*models.Review, error) {
	var created *models.Review
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := requireActive(ctx, tx, "products", "product", productID); err != nil {
			return err
		}
		if err := requireActive(ctx, tx, "users", "user", userID); err != nil {
			return err
		}
		r, err := scanReview(tx.QueryRowContext(ctx, `
			INSERT INTO reviews AS r (id, product_id, user_id, rating, text)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+reviewColumns,
			uuid.New(), productID, userID, rating, text,
		))
		if err != nil {
			return fmt.Errorf("create review: %w", classify(err))
		}
		created = r
		return nil
	})
	return created, err
}

// Update sets the rating and text of an active review and reports whether
// anything changed.
func (s *ReviewStore) Update(ctx context.Context, id uuid.UUID, rating float64, text *string) (*models.Review, bool, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if existing.Rating == rating && equalText(existing.Text, text) {
		return existing, false, nil
	}

	r, err := scanReview(s.db.QueryRowContext(ctx, `
		UPDATE reviews AS r SET rating = $1, text = $2, updated_at = NOW()
		WHERE r.id = $3 AND r.deleted_at IS NULL
		RETURNING `+reviewColumns,
		rating, text, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("update review: %w", classify(err))
	}
	return r, true, nil
}

// Delete soft-deletes a review, or removes it outright with force.
func (s *ReviewStore) Delete(ctx context.Context, id uuid.UUID, force bool) error {
	if force {
		return hardDelete(ctx, s.db, "reviews", id)
	}
	return plainSoftDelete(ctx, s.db, "reviews", id, true)
}

func equalText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
