// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all pocketratings
// entities. Each store struct wraps a *sql.DB and exposes typed query
// methods. Writes that must check other rows first (delete guards, parent
// existence, cycle checks) run inside a single transaction with the
// relevant rows locked.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the target row does not exist or is
	// soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate wraps unique violations (SQLSTATE 23505).
	ErrDuplicate = errors.New("duplicate")

	// ErrReferenced wraps foreign key violations (SQLSTATE 23503) raised
	// by a hard delete of a row other rows still point at.
	ErrReferenced = errors.New("still referenced")

	// ErrMissingReference is returned when a write names a parent or
	// related row that does not exist or is soft-deleted.
	ErrMissingReference = errors.New("referenced row not found")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// classify maps driver errors onto the package sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %w", ErrReferenced, err)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// inTx runs fn in a read-committed transaction, committing when fn returns
// nil and rolling back otherwise.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", classify(err))
	}
	return nil
}

// lockMode selects the row lock taken by lockActive.
type lockMode string

const (
	// forUpdate is taken on a row about to be soft-deleted or modified.
	forUpdate lockMode = "FOR UPDATE"
	// forShare is taken on a row a new reference is about to point at.
	// It conflicts with forUpdate, so a concurrent delete of the same row
	// waits for the inserting transaction and then sees the new reference.
	forShare lockMode = "FOR SHARE"
)

// lockActive locks the active row id in table. It returns false when the
// row does not exist or is soft-deleted. table is always a constant from
// this package.
func lockActive(ctx context.Context, q dbtx, table string, id uuid.UUID, mode lockMode) (bool, error) {
	var got uuid.UUID
	err := q.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE id = $1 AND deleted_at IS NULL `+string(mode), id,
	).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock %s %s: %w", table, id, err)
	}
	return true, nil
}

// requireActive is lockActive with forShare that turns a missing row into
// ErrMissingReference naming what was missing.
func requireActive(ctx context.Context, q dbtx, table, what string, id uuid.UUID) error {
	ok, err := lockActive(ctx, q, table, id, forShare)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingReference, what)
	}
	return nil
}

// hardDelete removes a row outright. Foreign keys still refuse rows that
// other rows reference, active or not.
func hardDelete(ctx context.Context, q dbtx, table string, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullTime converts a nullable timestamp column.
func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// activeOnly returns the WHERE clause hiding soft-deleted rows of the
// table aliased by prefix ("p." or ""), or nothing when withDeleted.
func activeOnly(prefix string, withDeleted bool) string {
	if withDeleted {
		return ""
	}
	return "WHERE " + prefix + "deleted_at IS NULL"
}
