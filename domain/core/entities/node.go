package entities

import (
	"time"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"
	pkgerrors "canvas-engine/pkg/errors"
)

// Node is a positioned, typed visual unit on the canvas
// This is a rich domain model with encapsulated state transitions
type Node struct {
	// Private fields ensure encapsulation
	id           valueobjects.NodeID
	documentID   valueobjects.DocumentID
	parentID     *valueobjects.NodeID
	position     valueobjects.Point
	size         valueobjects.Size
	collapsed    bool
	payload      valueobjects.Payload
	color        string
	displayOrder *float64
	createdAt    time.Time
	updatedAt    time.Time
	version      int
}

// NewNode creates a root-level node of the given kind at a world position
func NewNode(documentID valueobjects.DocumentID, kind valueobjects.NodeKind, position valueobjects.Point, cfg *config.DomainConfig) (*Node, error) {
	return newNode(documentID, nil, kind, position, cfg)
}

// NewChildNode creates a node spawned from a parent. The parent is fixed at
// birth; there is no operation that reassigns it afterwards, which is what
// keeps the parent relationships a forest.
func NewChildNode(documentID valueobjects.DocumentID, parentID valueobjects.NodeID, kind valueobjects.NodeKind, position valueobjects.Point, cfg *config.DomainConfig) (*Node, error) {
	if parentID.IsZero() {
		return nil, pkgerrors.NewValidationError("parent ID cannot be empty")
	}
	return newNode(documentID, &parentID, kind, position, cfg)
}

func newNode(documentID valueobjects.DocumentID, parentID *valueobjects.NodeID, kind valueobjects.NodeKind, position valueobjects.Point, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if documentID.IsZero() {
		return nil, pkgerrors.NewValidationError("document ID cannot be empty")
	}

	payload, err := valueobjects.NewPayload(kind)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	now := time.Now()
	return &Node{
		id:         valueobjects.NewNodeID(),
		documentID: documentID,
		parentID:   parentID,
		position:   position,
		size:       valueobjects.NewSize(cfg.DefaultNodeWidth, cfg.DefaultNodeHeight),
		payload:    payload,
		createdAt:  now,
		updatedAt:  now,
		version:    1,
	}, nil
}

// ReconstructNode rebuilds a node from storage with preserved timestamps
func ReconstructNode(
	id valueobjects.NodeID,
	documentID valueobjects.DocumentID,
	parentID *valueobjects.NodeID,
	position valueobjects.Point,
	size valueobjects.Size,
	collapsed bool,
	payload valueobjects.Payload,
	color string,
	displayOrder *float64,
	createdAt, updatedAt time.Time,
) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID cannot be empty")
	}
	if documentID.IsZero() {
		return nil, pkgerrors.NewValidationError("document ID cannot be empty")
	}
	if err := payload.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	return &Node{
		id:           id,
		documentID:   documentID,
		parentID:     parentID,
		position:     position,
		size:         size,
		collapsed:    collapsed,
		payload:      payload,
		color:        color,
		displayOrder: displayOrder,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		version:      1,
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// DocumentID returns the owning document's identifier
func (n *Node) DocumentID() valueobjects.DocumentID {
	return n.documentID
}

// ParentID returns the fixed parent, if any
func (n *Node) ParentID() (valueobjects.NodeID, bool) {
	if n.parentID == nil {
		return valueobjects.NodeID{}, false
	}
	return *n.parentID, true
}

// Position returns the node's world position
func (n *Node) Position() valueobjects.Point {
	return n.position
}

// Size returns the node's expanded size
func (n *Node) Size() valueobjects.Size {
	return n.size
}

// Collapsed reports whether the node is displayed collapsed
func (n *Node) Collapsed() bool {
	return n.collapsed
}

// Payload returns the variant-typed payload
func (n *Node) Payload() valueobjects.Payload {
	return n.payload
}

// Kind returns the payload variant tag
func (n *Node) Kind() valueobjects.NodeKind {
	return n.payload.Kind
}

// Color returns the node's color tag
func (n *Node) Color() string {
	return n.color
}

// DisplayOrder returns the explicit sibling order value, if set
func (n *Node) DisplayOrder() (float64, bool) {
	if n.displayOrder == nil {
		return 0, false
	}
	return *n.displayOrder, true
}

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node was last mutated
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// Version returns the node's mutation counter
func (n *Node) Version() int {
	return n.version
}

// DisplayHeight returns the height used for hit testing and rendering,
// which differs between collapsed and expanded display states
func (n *Node) DisplayHeight(cfg *config.DomainConfig) float64 {
	if n.collapsed {
		return cfg.CollapsedNodeHeight
	}
	return n.size.Height
}

// Bounds returns the node's world-space bounding rectangle
func (n *Node) Bounds(cfg *config.DomainConfig) valueobjects.Rect {
	return valueobjects.NewRect(n.position, valueobjects.NewSize(n.size.Width, n.DisplayHeight(cfg)))
}

// MoveTo moves the node to a new world position
func (n *Node) MoveTo(position valueobjects.Point) {
	if position.Equals(n.position) {
		return
	}
	n.position = position
	n.touch()
}

// Resize sets the node's expanded size, clamped to the configured bounds
func (n *Node) Resize(size valueobjects.Size, cfg *config.DomainConfig) {
	clamped := valueobjects.NewSize(cfg.ClampWidth(size.Width), cfg.ClampHeight(size.Height))
	if clamped.Equals(n.size) {
		return
	}
	n.size = clamped
	n.touch()
}

// SetCollapsed toggles the collapsed display state
func (n *Node) SetCollapsed(collapsed bool) {
	if n.collapsed == collapsed {
		return
	}
	n.collapsed = collapsed
	n.touch()
}

// SetPayload replaces the payload; the variant kind cannot change
func (n *Node) SetPayload(payload valueobjects.Payload) error {
	if payload.Kind != n.payload.Kind {
		return pkgerrors.NewValidationError("node kind cannot change after creation")
	}
	if err := payload.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	n.payload = payload
	n.touch()
	return nil
}

// SetColor sets the node's color tag
func (n *Node) SetColor(color string) {
	if n.color == color {
		return
	}
	n.color = color
	n.touch()
}

// SetDisplayOrder assigns an explicit sibling order value
func (n *Node) SetDisplayOrder(order float64) {
	if n.displayOrder != nil && *n.displayOrder == order {
		return
	}
	v := order
	n.displayOrder = &v
	n.touch()
}

// ClearParent detaches the node from its deleted parent, making it a root.
// Used only by the delete cascade; children are never reattached elsewhere.
func (n *Node) ClearParent() {
	if n.parentID == nil {
		return
	}
	n.parentID = nil
	n.touch()
}

// Clone returns a deep copy safe to hand to a persistence write that may
// complete after further mutation of the original
func (n *Node) Clone() *Node {
	out := *n
	if n.parentID != nil {
		p := *n.parentID
		out.parentID = &p
	}
	if n.displayOrder != nil {
		o := *n.displayOrder
		out.displayOrder = &o
	}
	out.payload = n.payload.Clone()
	return &out
}

func (n *Node) touch() {
	n.updatedAt = time.Now()
	n.version++
}
