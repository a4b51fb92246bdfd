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

// LocationStore manages purchase locations in the database.
type LocationStore struct {
	db *sql.DB
}

// NewLocationStore returns a new LocationStore.
func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

const locationColumns = `id, name, deleted_at`

func scanLocation(scanner rowScanner) (*models.Location, error) {
	var (
		l       models.Location
		deleted sql.NullTime
	)
	if err := scanner.Scan(&l.ID, &l.Name, &deleted); err != nil {
		return nil, err
	}
	l.DeletedAt = nullTime(deleted)
	return &l, nil
}

// ListActive returns every active location ordered by name.
func (s *LocationStore) ListActive(ctx context.Context) ([]models.Location, error) {
	return s.List(ctx, false)
}

// List returns locations ordered by name, soft-deleted ones only when
// withDeleted is set.
func (s *LocationStore) List(ctx context.Context, withDeleted bool) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+locationColumns+` FROM locations
		`+activeOnly("", withDeleted)+`
		ORDER BY lower(name), id
	`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	items := []models.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		items = append(items, *l)
	}
	return items, rows.Err()
}

// FindByID retrieves an active location.
func (s *LocationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	l, err := scanLocation(s.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find location by id: %w", err)
	}
	return l, nil
}

// Create inserts a new location.
func (s *LocationStore) Create(ctx context.Context, name string) (*models.Location, error) {
	l, err := scanLocation(s.db.QueryRowContext(ctx, `
		INSERT INTO locations (id, name) VALUES ($1, $2)
		RETURNING `+locationColumns,
		uuid.New(), name,
	))
	if err != nil {
		return nil, fmt.Errorf("create location: %w", classify(err))
	}
	return l, nil
}

// Update renames an active location and reports whether anything changed.
func (s *LocationStore) Update(ctx context.Context, id uuid.UUID, name string) (*models.Location, bool, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if existing.Name == name {
		return existing, false, nil
	}

	l, err := scanLocation(s.db.QueryRowContext(ctx, `
		UPDATE locations SET name = $1
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING `+locationColumns,
		name, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("update location: %w", classify(err))
	}
	return l, true, nil
}

// Delete soft-deletes a location with no active purchases, or removes it
// outright with force.
func (s *LocationStore) Delete(ctx context.Context, id uuid.UUID, force bool) error {
	if force {
		return hardDelete(ctx, s.db, "locations", id)
	}
	return guardedSoftDelete(ctx, s.db, "locations", integrity.Location, id, false)
}
