package interaction

import (
	"canvas-engine/domain/core/valueobjects"
)

// OpKind enumerates the mutually exclusive gesture states. Every gesture
// handler checks and sets the active operation at entry, so a node drag
// suppresses canvas panning and a resize suppresses zoom.
type OpKind int

const (
	OpIdle OpKind = iota
	OpPanning
	OpDragging
	OpResizing
	OpWiring
)

// String returns a human-readable operation name.
func (k OpKind) String() string {
	switch k {
	case OpIdle:
		return "idle"
	case OpPanning:
		return "panning"
	case OpDragging:
		return "dragging"
	case OpResizing:
		return "resizing"
	case OpWiring:
		return "wiring"
	default:
		return "unknown"
	}
}

// ActiveOp is the current gesture plus the node it operates on, when any.
type ActiveOp struct {
	Kind   OpKind
	NodeID valueobjects.NodeID
	Side   valueobjects.Side
}

// IsIdle reports whether no gesture is in progress.
func (op ActiveOp) IsIdle() bool {
	return op.Kind == OpIdle
}

func idleOp() ActiveOp {
	return ActiveOp{Kind: OpIdle}
}
