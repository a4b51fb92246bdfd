// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"pocketratings/internal/integrity"
)

var referenceQueries = map[integrity.Reference]string{
	integrity.ChildCategories:   `SELECT COUNT(*) FROM categories WHERE parent_id = $1 AND deleted_at IS NULL`,
	integrity.CategoryProducts:  `SELECT COUNT(*) FROM products WHERE category_id = $1 AND deleted_at IS NULL`,
	integrity.ProductPurchases:  `SELECT COUNT(*) FROM purchases WHERE product_id = $1 AND deleted_at IS NULL`,
	integrity.LocationPurchases: `SELECT COUNT(*) FROM purchases WHERE location_id = $1 AND deleted_at IS NULL`,
	integrity.UserPurchases:     `SELECT COUNT(*) FROM purchases WHERE user_id = $1 AND deleted_at IS NULL`,
	integrity.UserReviews:       `SELECT COUNT(*) FROM reviews WHERE user_id = $1 AND deleted_at IS NULL`,
}

// References counts active referencing rows inside a transaction. It
// implements integrity.Counter.
type References struct {
	q dbtx
}

// CountActive implements integrity.Counter.
func (r *References) CountActive(ctx context.Context, ref integrity.Reference, id uuid.UUID) (int, error) {
	query, ok := referenceQueries[ref]
	if !ok {
		return 0, fmt.Errorf("unknown reference %s", ref)
	}
	var n int
	if err := r.q.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// guardedSoftDelete locks the active row, asks the delete guard, and marks
// the row deleted, all in one transaction. A concurrent insert that points
// at the row holds a FOR SHARE lock on it, so either it commits first and
// the guard counts it, or it waits and then finds the row gone.
func guardedSoftDelete(ctx context.Context, db *sql.DB, table string, res integrity.Resource, id uuid.UUID, touchUpdated bool) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		ok, err := lockActive(ctx, tx, table, id, forUpdate)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}

		guard := integrity.New(&References{q: tx})
		if err := guard.CanDelete(ctx, res, id); err != nil {
			return err
		}

		set := `deleted_at = NOW()`
		if touchUpdated {
			set += `, updated_at = NOW()`
		}
		if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET `+set+` WHERE id = $1`, id); err != nil {
			return fmt.Errorf("soft delete %s %s: %w", res, id, err)
		}
		return nil
	})
}

// plainSoftDelete marks an active row deleted without any guard; nothing
// references reviews or purchases.
func plainSoftDelete(ctx context.Context, q dbtx, table string, id uuid.UUID, touchUpdated bool) error {
	set := `deleted_at = NOW()`
	if touchUpdated {
		set += `, updated_at = NOW()`
	}
	res, err := q.ExecContext(ctx, `UPDATE `+table+` SET `+set+` WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete %s %s: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
