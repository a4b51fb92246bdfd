// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree indexes the category hierarchy from a flat row set.
//
// An Index is built once from the active categories and is read-only
// afterwards, so it may be shared between goroutines. Rows whose parent is
// not part of the set are treated as roots. Siblings are ordered by name
// (case-insensitive) and then id, which makes every traversal a pure
// function of the input rows.
package tree

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"pocketratings/internal/models"
)

// ErrCycle is returned when a re-parent would make a category its own
// ancestor.
var ErrCycle = errors.New("category cannot be its own ancestor")

// Unbounded disables the depth limit in Subtree and Forest.
const Unbounded = -1

// Node is a category together with its nested children.
type Node struct {
	models.Category
	Depth    int
	Children []*Node
}

// Index answers structural questions about a set of categories.
type Index struct {
	byID     map[uuid.UUID]models.Category
	children map[uuid.UUID][]uuid.UUID
	roots    []uuid.UUID
}

// Build indexes rows. Duplicate ids keep the last row seen.
func Build(rows []models.Category) *Index {
	ix := &Index{
		byID:     make(map[uuid.UUID]models.Category, len(rows)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, c := range rows {
		ix.byID[c.ID] = c
	}

	ids := make([]uuid.UUID, 0, len(ix.byID))
	for id := range ix.byID {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, ix.compare)

	for _, id := range ids {
		p, ok := ix.parentOf(id)
		if !ok {
			ix.roots = append(ix.roots, id)
			continue
		}
		ix.children[p] = append(ix.children[p], id)
	}

	// Rows caught in a parent loop are unreachable from any root. Promote
	// the first of each loop so that Flatten still yields every row once.
	reached := make(map[uuid.UUID]bool, len(ids))
	ix.mark(ix.roots, reached)
	for _, id := range ids {
		if reached[id] {
			continue
		}
		ix.roots = append(ix.roots, id)
		ix.mark([]uuid.UUID{id}, reached)
	}
	slices.SortFunc(ix.roots, ix.compare)
	return ix
}

// parentOf returns the parent of id when that parent is itself indexed.
func (ix *Index) parentOf(id uuid.UUID) (uuid.UUID, bool) {
	c, ok := ix.byID[id]
	if !ok || c.ParentID == nil || *c.ParentID == id {
		return uuid.Nil, false
	}
	if _, ok := ix.byID[*c.ParentID]; !ok {
		return uuid.Nil, false
	}
	return *c.ParentID, true
}

func (ix *Index) compare(a, b uuid.UUID) int {
	ca, cb := ix.byID[a], ix.byID[b]
	if c := cmp.Compare(strings.ToLower(ca.Name), strings.ToLower(cb.Name)); c != 0 {
		return c
	}
	if c := cmp.Compare(ca.Name, cb.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.String(), b.String())
}

func (ix *Index) mark(start []uuid.UUID, reached map[uuid.UUID]bool) {
	stack := slices.Clone(start)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		reached[id] = true
		stack = append(stack, ix.children[id]...)
	}
}

// Len returns the number of indexed categories.
func (ix *Index) Len() int {
	return len(ix.byID)
}

// Get returns the category with the given id.
func (ix *Index) Get(id uuid.UUID) (models.Category, bool) {
	c, ok := ix.byID[id]
	return c, ok
}

// HasChildren reports whether any indexed category names id as its parent.
func (ix *Index) HasChildren(id uuid.UUID) bool {
	return len(ix.children[id]) > 0
}

// WouldCycle reports whether making proposedParent the parent of node
// would create a loop, including the case proposedParent == node. It only
// walks upward from proposedParent, so its cost is bounded by depth.
func (ix *Index) WouldCycle(node, proposedParent uuid.UUID) bool {
	seen := make(map[uuid.UUID]bool)
	cur := proposedParent
	for {
		if cur == node {
			return true
		}
		if seen[cur] {
			// A pre-existing loop that node is not part of.
			return false
		}
		seen[cur] = true

		c, ok := ix.byID[cur]
		if !ok || c.ParentID == nil {
			return false
		}
		cur = *c.ParentID
	}
}

// Subtree returns root and its descendants down to maxDepth levels below
// it: 0 yields the node alone, 1 adds its direct children. Pass Unbounded
// for the whole subtree.
func (ix *Index) Subtree(root uuid.UUID, maxDepth int) (*Node, bool) {
	if _, ok := ix.byID[root]; !ok {
		return nil, false
	}
	return ix.node(root, 0, maxDepth, make(map[uuid.UUID]bool)), true
}

// Forest returns the children of parent (the roots when parent is nil) as
// the top level, nested so that the result spans at most depth levels.
// A depth of 1 yields the top level with empty Children.
func (ix *Index) Forest(parent *uuid.UUID, depth int) []*Node {
	top := ix.roots
	if parent != nil {
		top = ix.children[*parent]
	}

	limit := Unbounded
	if depth >= 1 {
		limit = depth - 1
	}

	seen := make(map[uuid.UUID]bool)
	nodes := make([]*Node, 0, len(top))
	for _, id := range top {
		nodes = append(nodes, ix.node(id, 0, limit, seen))
	}
	return nodes
}

func (ix *Index) node(id uuid.UUID, depth, limit int, seen map[uuid.UUID]bool) *Node {
	seen[id] = true
	n := &Node{Category: ix.byID[id], Depth: depth, Children: []*Node{}}
	if limit != Unbounded && depth >= limit {
		return n
	}
	for _, child := range ix.children[id] {
		if seen[child] {
			continue
		}
		n.Children = append(n.Children, ix.node(child, depth+1, limit, seen))
	}
	return n
}

// Flatten lists every indexed category depth-first, each parent before its
// children.
func (ix *Index) Flatten() []models.Category {
	out := make([]models.Category, 0, len(ix.byID))
	ix.walk(ix.roots, func(id uuid.UUID) {
		out = append(out, ix.byID[id])
	})
	return out
}

// Descendants returns id followed by every category below it, in the same
// order as Flatten. It returns nil when id is not indexed.
func (ix *Index) Descendants(id uuid.UUID) []uuid.UUID {
	if _, ok := ix.byID[id]; !ok {
		return nil
	}
	var out []uuid.UUID
	ix.walk([]uuid.UUID{id}, func(id uuid.UUID) {
		out = append(out, id)
	})
	return out
}

// walk visits start and everything below it in pre-order with an explicit
// stack.
func (ix *Index) walk(start []uuid.UUID, visit func(uuid.UUID)) {
	seen := make(map[uuid.UUID]bool, len(ix.byID))
	stack := make([]uuid.UUID, 0, len(start))
	for i := len(start) - 1; i >= 0; i-- {
		stack = append(stack, start[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		visit(id)

		kids := ix.children[id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}
