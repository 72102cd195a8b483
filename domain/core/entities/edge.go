package entities

import (
	"time"

	"canvas-engine/domain/core/valueobjects"
	pkgerrors "canvas-engine/pkg/errors"
)

// Edge is a directed manual connection between two nodes, attached at
// specific connection sides. Sides are rendering metadata only.
type Edge struct {
	id         valueobjects.EdgeID
	documentID valueobjects.DocumentID
	sourceID   valueobjects.NodeID
	targetID   valueobjects.NodeID
	sourceSide valueobjects.Side
	targetSide valueobjects.Side
	color      string
	createdAt  time.Time
}

// NewEdge creates an edge between two distinct nodes
func NewEdge(documentID valueobjects.DocumentID, sourceID, targetID valueobjects.NodeID, sourceSide, targetSide valueobjects.Side) (*Edge, error) {
	if documentID.IsZero() {
		return nil, pkgerrors.NewValidationError("document ID cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.NewValidationError("edge cannot connect a node to itself")
	}
	if !sourceSide.IsValid() || !targetSide.IsValid() {
		return nil, pkgerrors.NewValidationError("invalid connection side")
	}

	return &Edge{
		id:         valueobjects.NewEdgeID(),
		documentID: documentID,
		sourceID:   sourceID,
		targetID:   targetID,
		sourceSide: sourceSide,
		targetSide: targetSide,
		createdAt:  time.Now(),
	}, nil
}

// ReconstructEdge rebuilds an edge from storage
func ReconstructEdge(
	id valueobjects.EdgeID,
	documentID valueobjects.DocumentID,
	sourceID, targetID valueobjects.NodeID,
	sourceSide, targetSide valueobjects.Side,
	color string,
	createdAt time.Time,
) (*Edge, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("edge ID cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}

	return &Edge{
		id:         id,
		documentID: documentID,
		sourceID:   sourceID,
		targetID:   targetID,
		sourceSide: sourceSide,
		targetSide: targetSide,
		color:      color,
		createdAt:  createdAt,
	}, nil
}

// ID returns the edge's unique identifier
func (e *Edge) ID() valueobjects.EdgeID {
	return e.id
}

// DocumentID returns the owning document's identifier
func (e *Edge) DocumentID() valueobjects.DocumentID {
	return e.documentID
}

// SourceID returns the source node's identifier
func (e *Edge) SourceID() valueobjects.NodeID {
	return e.sourceID
}

// TargetID returns the target node's identifier
func (e *Edge) TargetID() valueobjects.NodeID {
	return e.targetID
}

// SourceSide returns the connection side on the source node
func (e *Edge) SourceSide() valueobjects.Side {
	return e.sourceSide
}

// TargetSide returns the connection side on the target node
func (e *Edge) TargetSide() valueobjects.Side {
	return e.targetSide
}

// Color returns the edge's color tag
func (e *Edge) Color() string {
	return e.color
}

// CreatedAt returns when the edge was created
func (e *Edge) CreatedAt() time.Time {
	return e.createdAt
}

// SetColor sets the edge's color tag
func (e *Edge) SetColor(color string) {
	e.color = color
}

// References reports whether the edge touches the given node at either end
func (e *Edge) References(nodeID valueobjects.NodeID) bool {
	return e.sourceID.Equals(nodeID) || e.targetID.Equals(nodeID)
}

// Touches reports whether the edge attaches to the given node on the given side
func (e *Edge) Touches(nodeID valueobjects.NodeID, side valueobjects.Side) bool {
	if e.sourceID.Equals(nodeID) && e.sourceSide == side {
		return true
	}
	if e.targetID.Equals(nodeID) && e.targetSide == side {
		return true
	}
	return false
}

// Clone returns a copy safe to hand to a persistence write
func (e *Edge) Clone() *Edge {
	out := *e
	return &out
}
