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
	"pocketratings/internal/tree"
)

// reparentLockKey serializes transactions that move categories, so two
// concurrent moves cannot each pass the cycle check and together form a
// loop.
const reparentLockKey = 0x70726374 // "prct"

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, parent_id, name, created_at, updated_at, deleted_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner rowScanner) (*models.Category, error) {
	var (
		c        models.Category
		parentID uuid.NullUUID
		deleted  sql.NullTime
	)
	if err := scanner.Scan(&c.ID, &parentID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.UUID
	}
	c.DeletedAt = nullTime(deleted)
	return &c, nil
}

// ListActive returns every active category ordered by name. This is the
// row set the category tree is built from.
func (s *CategoryStore) ListActive(ctx context.Context) ([]models.Category, error) {
	return listCategories(ctx, s.db, false)
}

// List returns categories ordered by name, soft-deleted ones only when
// withDeleted is set.
func (s *CategoryStore) List(ctx context.Context, withDeleted bool) ([]models.Category, error) {
	return listCategories(ctx, s.db, withDeleted)
}

func listActiveCategories(ctx context.Context, q dbtx) ([]models.Category, error) {
	return listCategories(ctx, q, false)
}

func listCategories(ctx context.Context, q dbtx, withDeleted bool) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories `+activeOnly("", withDeleted)+`
		ORDER BY lower(name), id
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves an active category. Returns ErrNotFound if it does
// not exist or is soft-deleted.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return findCategory(ctx, s.db, id, "")
}

func findCategory(ctx context.Context, q dbtx, id uuid.UUID, mode lockMode) (*models.Category, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND deleted_at IS NULL `+string(mode), id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new category. A non-nil parentID must name an active
// category, which stays share-locked until the insert commits.
func (s *CategoryStore) Create(ctx context.Context, parentID *uuid.UUID, name string) (*models.Category, error) {
	var created *models.Category
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		if parentID != nil {
			if err := requireActive(ctx, tx, "categories", "parent category", *parentID); err != nil {
				return err
			}
		}

		row := tx.QueryRowContext(ctx, `
			INSERT INTO categories (id, parent_id, name)
			VALUES ($1, $2, $3)
			RETURNING `+categoryColumns,
			uuid.New(), parentID, name,
		)
		c, err := scanCategory(row)
		if err != nil {
			return fmt.Errorf("create category: %w", classify(err))
		}
		created = c
		return nil
	})
	return created, err
}

// Update sets the name and parent of an active category. It returns the
// row and whether anything changed; an update that changes nothing writes
// nothing. Moving a category under itself or one of its descendants fails
// with tree.ErrCycle.
func (s *CategoryStore) Update(ctx context.Context, id uuid.UUID, name string, parentID *uuid.UUID) (*models.Category, bool, error) {
	var (
		result  *models.Category
		changed bool
	)
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := findCategory(ctx, tx, id, forUpdate)
		if err != nil {
			return err
		}
		moving := !existing.SameParent(parentID)
		if existing.Name == name && !moving {
			result = existing
			return nil
		}

		if moving && parentID != nil {
			if *parentID == id {
				return tree.ErrCycle
			}
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, reparentLockKey); err != nil {
				return fmt.Errorf("reparent lock: %w", err)
			}
			if err := requireActive(ctx, tx, "categories", "parent category", *parentID); err != nil {
				return err
			}
			rows, err := listActiveCategories(ctx, tx)
			if err != nil {
				return err
			}
			if tree.Build(rows).WouldCycle(id, *parentID) {
				return tree.ErrCycle
			}
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE categories SET name = $1, parent_id = $2, updated_at = NOW()
			WHERE id = $3
			RETURNING `+categoryColumns,
			name, parentID, id,
		)
		c, err := scanCategory(row)
		if err != nil {
			return fmt.Errorf("update category: %w", classify(err))
		}
		result, changed = c, true
		return nil
	})
	return result, changed, err
}

// Delete soft-deletes an active category once it has no active children
// and no active products; otherwise it returns an *integrity.ConflictError.
// With force the row is removed outright and no guard runs; the foreign
// keys still refuse a row that anything references (ErrReferenced).
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID, force bool) error {
	if force {
		return hardDelete(ctx, s.db, "categories", id)
	}
	return guardedSoftDelete(ctx, s.db, "categories", integrity.Category, id, true)
}
