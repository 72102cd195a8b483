package outline

import (
	"sort"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/graph"
	pkgerrors "canvas-engine/pkg/errors"
)

// Item is one row of the derived display forest
type Item struct {
	Node     *entities.Node
	Level    int
	Children []*Item
}

// Forest is the outline view of the flat node map. It is recomputed from
// scratch on every change: interactive documents are small enough that the
// redundant work is cheaper than incremental diffing would be to maintain.
type Forest struct {
	Roots []*Item
}

// Build derives the display forest from a node map. A node is a root if it
// has no parent id or its parent id is not present in the map; dangling
// parents become roots so a partially loaded document still renders.
func Build(nodes map[valueobjects.NodeID]*entities.Node) *Forest {
	children := make(map[valueobjects.NodeID][]*entities.Node)
	var roots []*entities.Node

	for _, n := range nodes {
		parent, ok := n.ParentID()
		if !ok {
			roots = append(roots, n)
			continue
		}
		if _, present := nodes[parent]; !present {
			roots = append(roots, n)
			continue
		}
		children[parent] = append(children[parent], n)
	}

	sortSiblings(roots)
	forest := &Forest{}
	for _, r := range roots {
		forest.Roots = append(forest.Roots, buildItem(r, 0, children))
	}
	return forest
}

func buildItem(node *entities.Node, level int, children map[valueobjects.NodeID][]*entities.Node) *Item {
	item := &Item{Node: node, Level: level}
	kids := children[node.ID()]
	sortSiblings(kids)
	for _, k := range kids {
		item.Children = append(item.Children, buildItem(k, level+1, children))
	}
	return item
}

// sortSiblings orders siblings ascending by display-order value; a node with
// a display-order value always sorts before a sibling lacking one; among
// nodes lacking one, creation time ascends. Node id breaks exact ties so the
// ordering is deterministic across rebuilds.
func sortSiblings(nodes []*entities.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		ao, aok := a.DisplayOrder()
		bo, bok := b.DisplayOrder()
		switch {
		case aok && bok:
			if ao != bo {
				return ao < bo
			}
		case aok:
			return true
		case bok:
			return false
		}
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().Before(b.CreatedAt())
		}
		return a.ID().String() < b.ID().String()
	})
}

// Flatten returns the forest as ordered rows, depth first
func (f *Forest) Flatten() []*Item {
	var rows []*Item
	var walk func(items []*Item)
	walk = func(items []*Item) {
		for _, it := range items {
			rows = append(rows, it)
			walk(it.Children)
		}
	}
	walk(f.Roots)
	return rows
}

// Len returns the total node count across the forest
func (f *Forest) Len() int {
	return len(f.Flatten())
}

// Reorder moves the root-level item at index from to index to, then
// reassigns display-order values across the whole root sequence so a
// subsequent rebuild yields the new order. Reordering is restricted to
// root-level items; self-drop is a no-op.
func Reorder(store *graph.Store, from, to int) error {
	forest := Build(store.Nodes())
	roots := forest.Roots

	if from < 0 || from >= len(roots) || to < 0 || to >= len(roots) {
		return pkgerrors.NewValidationError("reorder index out of range")
	}
	if from == to {
		return nil
	}

	moved := roots[from]
	roots = append(roots[:from], roots[from+1:]...)
	rest := make([]*Item, 0, len(roots)+1)
	rest = append(rest, roots[:to]...)
	rest = append(rest, moved)
	rest = append(rest, roots[to:]...)

	for i, item := range rest {
		order := float64(i)
		if err := store.UpdateNode(item.Node.ID(), func(n *entities.Node) error {
			n.SetDisplayOrder(order)
			return nil
		}, false); err != nil {
			return err
		}
	}
	return nil
}
