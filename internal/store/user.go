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

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, password_hash, created_at, updated_at, deleted_at`

func scanUser(scanner rowScanner) (*models.User, error) {
	var (
		u       models.User
		deleted sql.NullTime
	)
	if err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	u.DeletedAt = nullTime(deleted)
	return &u, nil
}

// FindByEmail retrieves an active user by email, compared
// case-insensitively. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE lower(email) = lower($1) AND deleted_at IS NULL
	`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID retrieves an active user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// List returns users ordered by creation date. Soft-deleted users are
// included only when withDeleted is set.
func (s *UserStore) List(ctx context.Context, withDeleted bool) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if !withDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at ASC, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a new user with an already hashed password. A second
// active account with the same email fails with ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		uuid.New(), name, email, passwordHash,
	))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", classify(err))
	}
	return u, nil
}

// Delete soft-deletes a user without active purchases or reviews, or
// removes the row outright with force.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID, force bool) error {
	if force {
		return hardDelete(ctx, s.db, "users", id)
	}
	return guardedSoftDelete(ctx, s.db, "users", integrity.User, id, true)
}
