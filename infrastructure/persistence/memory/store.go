// Package memory provides an in-process document store used by tests and
// the memory storage backend.
package memory

import (
	"context"
	"sync"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// Store keeps documents in maps. Writes come from scheduler goroutines
// while loads come from session goroutines, so access is mutex-guarded.
type Store struct {
	mu    sync.RWMutex
	nodes map[valueobjects.NodeID]*entities.Node
	edges map[valueobjects.EdgeID]*entities.Edge
}

// NewStore creates an empty in-memory document store
func NewStore() *Store {
	return &Store{
		nodes: make(map[valueobjects.NodeID]*entities.Node),
		edges: make(map[valueobjects.EdgeID]*entities.Edge),
	}
}

// WriteNode upserts a node
func (s *Store) WriteNode(_ context.Context, node *entities.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.ID()] = node.Clone()
	return nil
}

// WriteEdge upserts an edge
func (s *Store) WriteEdge(_ context.Context, edge *entities.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[edge.ID()] = edge.Clone()
	return nil
}

// DeleteNode removes a node and every edge referencing it, mirroring the
// in-memory cascade
func (s *Store) DeleteNode(_ context.Context, id valueobjects.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
	for edgeID, edge := range s.edges {
		if edge.References(id) {
			delete(s.edges, edgeID)
		}
	}
	return nil
}

// DeleteEdge removes an edge
func (s *Store) DeleteEdge(_ context.Context, id valueobjects.EdgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, id)
	return nil
}

// LoadDocument returns clones of every node and edge in the document
func (s *Store) LoadDocument(_ context.Context, docID valueobjects.DocumentID) ([]*entities.Node, []*entities.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodes []*entities.Node
	for _, node := range s.nodes {
		if node.DocumentID() == docID {
			nodes = append(nodes, node.Clone())
		}
	}
	var edges []*entities.Edge
	for _, edge := range s.edges {
		if edge.DocumentID() == docID {
			edges = append(edges, edge.Clone())
		}
	}
	return nodes, edges, nil
}

// Close satisfies the backend contract; there is nothing to release
func (s *Store) Close() error {
	return nil
}
