package events

import (
	"time"

	"canvas-engine/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

func base(aggregateID, eventType string) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   time.Now(),
	}
}

// Node events

// NodeCreated is raised when a new node is placed on the canvas
type NodeCreated struct {
	BaseEvent
	NodeID   valueobjects.NodeID   `json:"node_id"`
	Kind     valueobjects.NodeKind `json:"kind"`
	ParentID *valueobjects.NodeID  `json:"parent_id,omitempty"`
	Position valueobjects.Point    `json:"position"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID valueobjects.NodeID, kind valueobjects.NodeKind, parentID *valueobjects.NodeID, position valueobjects.Point) NodeCreated {
	return NodeCreated{
		BaseEvent: base(nodeID.String(), "node.created"),
		NodeID:    nodeID,
		Kind:      kind,
		ParentID:  parentID,
		Position:  position,
	}
}

// NodeMoved is raised when a node's world position changes
type NodeMoved struct {
	BaseEvent
	NodeID      valueobjects.NodeID `json:"node_id"`
	OldPosition valueobjects.Point  `json:"old_position"`
	NewPosition valueobjects.Point  `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(nodeID valueobjects.NodeID, oldPos, newPos valueobjects.Point) NodeMoved {
	return NodeMoved{
		BaseEvent:   base(nodeID.String(), "node.moved"),
		NodeID:      nodeID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}

// NodeResized is raised when a node's size changes
type NodeResized struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"node_id"`
	OldSize valueobjects.Size   `json:"old_size"`
	NewSize valueobjects.Size   `json:"new_size"`
}

// NewNodeResized creates a NodeResized event
func NewNodeResized(nodeID valueobjects.NodeID, oldSize, newSize valueobjects.Size) NodeResized {
	return NodeResized{
		BaseEvent: base(nodeID.String(), "node.resized"),
		NodeID:    nodeID,
		OldSize:   oldSize,
		NewSize:   newSize,
	}
}

// NodeUpdated is raised for field-level edits (payload, color, collapse,
// display order)
type NodeUpdated struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(nodeID valueobjects.NodeID) NodeUpdated {
	return NodeUpdated{
		BaseEvent: base(nodeID.String(), "node.updated"),
		NodeID:    nodeID,
	}
}

// NodeDeleted is raised when a node is removed. CascadedEdges lists the
// edges deleted because they referenced the node; OrphanedChildren lists
// children promoted to root.
type NodeDeleted struct {
	BaseEvent
	NodeID           valueobjects.NodeID   `json:"node_id"`
	CascadedEdges    []valueobjects.EdgeID `json:"cascaded_edges,omitempty"`
	OrphanedChildren []valueobjects.NodeID `json:"orphaned_children,omitempty"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(nodeID valueobjects.NodeID, cascadedEdges []valueobjects.EdgeID, orphanedChildren []valueobjects.NodeID) NodeDeleted {
	return NodeDeleted{
		BaseEvent:        base(nodeID.String(), "node.deleted"),
		NodeID:           nodeID,
		CascadedEdges:    cascadedEdges,
		OrphanedChildren: orphanedChildren,
	}
}

// Edge events

// EdgeCreated is raised when manual wiring completes
type EdgeCreated struct {
	BaseEvent
	EdgeID     valueobjects.EdgeID `json:"edge_id"`
	SourceID   valueobjects.NodeID `json:"source_id"`
	TargetID   valueobjects.NodeID `json:"target_id"`
	SourceSide valueobjects.Side   `json:"source_side"`
	TargetSide valueobjects.Side   `json:"target_side"`
}

// NewEdgeCreated creates an EdgeCreated event
func NewEdgeCreated(edgeID valueobjects.EdgeID, sourceID, targetID valueobjects.NodeID, sourceSide, targetSide valueobjects.Side) EdgeCreated {
	return EdgeCreated{
		BaseEvent:  base(edgeID.String(), "edge.created"),
		EdgeID:     edgeID,
		SourceID:   sourceID,
		TargetID:   targetID,
		SourceSide: sourceSide,
		TargetSide: targetSide,
	}
}

// EdgeDeleted is raised when an edge is removed, explicitly or by cascade
type EdgeDeleted struct {
	BaseEvent
	EdgeID valueobjects.EdgeID `json:"edge_id"`
}

// NewEdgeDeleted creates an EdgeDeleted event
func NewEdgeDeleted(edgeID valueobjects.EdgeID) EdgeDeleted {
	return EdgeDeleted{
		BaseEvent: base(edgeID.String(), "edge.deleted"),
		EdgeID:    edgeID,
	}
}

// Outline events

// RootsReordered is raised when root-level outline items are reordered
type RootsReordered struct {
	BaseEvent
	DocumentID valueobjects.DocumentID `json:"document_id"`
	FromIndex  int                     `json:"from_index"`
	ToIndex    int                     `json:"to_index"`
}

// NewRootsReordered creates a RootsReordered event
func NewRootsReordered(documentID valueobjects.DocumentID, from, to int) RootsReordered {
	return RootsReordered{
		BaseEvent:  base(documentID.String(), "outline.reordered"),
		DocumentID: documentID,
		FromIndex:  from,
		ToIndex:    to,
	}
}
