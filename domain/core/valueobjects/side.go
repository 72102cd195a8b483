package valueobjects

import "errors"

// Side is one of the four connection anchors on a node's boundary.
// Sides are descriptive metadata for rendering; they do not constrain
// which nodes an edge may connect.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Sides lists all connection sides in rendering order
func Sides() []Side {
	return []Side{SideTop, SideRight, SideBottom, SideLeft}
}

// ParseSide converts a string into a Side
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideTop, SideRight, SideBottom, SideLeft:
		return Side(s), nil
	default:
		return "", errors.New("invalid side: " + s)
	}
}

// IsValid reports whether the side is one of the four anchors
func (s Side) IsValid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	default:
		return false
	}
}

// AnchorOn returns the world-space connection point for this side of a
// node's bounding rectangle
func (s Side) AnchorOn(bounds Rect) Point {
	switch s {
	case SideTop:
		return Point{X: bounds.Origin.X + bounds.Size.Width/2, Y: bounds.Origin.Y}
	case SideRight:
		return Point{X: bounds.MaxX(), Y: bounds.Origin.Y + bounds.Size.Height/2}
	case SideBottom:
		return Point{X: bounds.Origin.X + bounds.Size.Width/2, Y: bounds.MaxY()}
	case SideLeft:
		return Point{X: bounds.Origin.X, Y: bounds.Origin.Y + bounds.Size.Height/2}
	default:
		return bounds.Center()
	}
}
