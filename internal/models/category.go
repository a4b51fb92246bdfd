// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the product category hierarchy. A nil ParentID
// marks a top-level category.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsActive reports whether the category has not been soft-deleted.
func (c *Category) IsActive() bool {
	return c.DeletedAt == nil
}

// SameParent reports whether c sits under parentID (nil meaning the root
// level).
func (c *Category) SameParent(parentID *uuid.UUID) bool {
	if c.ParentID == nil || parentID == nil {
		return c.ParentID == nil && parentID == nil
	}
	return *c.ParentID == *parentID
}
