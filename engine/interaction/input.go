// Package interaction interprets raw pointer and keyboard primitives into
// viewport, graph, and wiring operations. It owns the single active
// operation value that keeps pan, drag, resize, and wire gestures mutually
// exclusive.
package interaction

import (
	"canvas-engine/domain/core/valueobjects"
)

// TargetKind classifies what a pointer event landed on.
type TargetKind int

const (
	// TargetCanvas is empty canvas background.
	TargetCanvas TargetKind = iota
	// TargetNodeBody is the draggable body of a node.
	TargetNodeBody
	// TargetResizeHandle is the resize grip at a node's bottom-right corner.
	TargetResizeHandle
	// TargetConnectionPoint is one of the four wiring anchors on a node.
	TargetConnectionPoint
)

// Target is the result of hit testing a screen point.
type Target struct {
	Kind   TargetKind
	NodeID valueobjects.NodeID
	Side   valueobjects.Side
}

// Modifiers carries the keyboard modifier state of a pointer event.
type Modifiers struct {
	Alt bool
}

// Key is a keyboard input the controller reacts to.
type Key int

const (
	KeyEscape Key = iota
	KeyDelete
)

// Tool selects what a canvas click creates. ToolSelect creates nothing.
type Tool string

const (
	ToolSelect Tool = "select"
	ToolChat   Tool = "chat"
	ToolNote   Tool = "note"
	ToolText   Tool = "text"
	ToolTitle  Tool = "title"
	ToolMedia  Tool = "media"
)

// NodeKind returns the payload variant a creation tool produces. The
// boolean is false for the selection tool.
func (t Tool) NodeKind() (valueobjects.NodeKind, bool) {
	switch t {
	case ToolChat:
		return valueobjects.KindChat, true
	case ToolNote:
		return valueobjects.KindNote, true
	case ToolText:
		return valueobjects.KindText, true
	case ToolTitle:
		return valueobjects.KindTitle, true
	case ToolMedia:
		return valueobjects.KindMedia, true
	default:
		return "", false
	}
}
