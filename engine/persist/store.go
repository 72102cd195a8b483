package persist

import (
	"context"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// DocumentStore is the write/delete contract the engine requires from the
// external storage collaborator. Implementations must guarantee that
// deleting a node also removes edges referencing it at the storage layer,
// matching the in-memory cascade.
type DocumentStore interface {
	WriteNode(ctx context.Context, node *entities.Node) error
	WriteEdge(ctx context.Context, edge *entities.Edge) error
	DeleteNode(ctx context.Context, id valueobjects.NodeID) error
	DeleteEdge(ctx context.Context, id valueobjects.EdgeID) error
}

// DocumentLoader reads a stored document back so a session can reopen it
type DocumentLoader interface {
	LoadDocument(ctx context.Context, id valueobjects.DocumentID) ([]*entities.Node, []*entities.Edge, error)
}
