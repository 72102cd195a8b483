package valueobjects

import "math"

// Point is a 2D coordinate. The same type serves world and screen space;
// which space a value lives in is determined by where it came from.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a point from coordinates
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the component-wise sum
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the component-wise difference
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale multiplies both components by a scalar
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Div divides both components by a scalar
func (p Point) Div(s float64) Point {
	return Point{X: p.X / s, Y: p.Y / s}
}

// Equals checks exact equality
func (p Point) Equals(other Point) bool {
	return p.X == other.X && p.Y == other.Y
}

// ApproxEquals checks equality within a tolerance
func (p Point) ApproxEquals(other Point, tolerance float64) bool {
	return math.Abs(p.X-other.X) <= tolerance && math.Abs(p.Y-other.Y) <= tolerance
}

// DistanceTo returns the Euclidean distance to another point
func (p Point) DistanceTo(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Size is a 2D extent in world units
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a size from dimensions
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Add returns the size grown by a delta on each axis
func (s Size) Add(delta Point) Size {
	return Size{Width: s.Width + delta.X, Height: s.Height + delta.Y}
}

// Equals checks exact equality
func (s Size) Equals(other Size) bool {
	return s.Width == other.Width && s.Height == other.Height
}

// Rect is an axis-aligned rectangle anchored at its top-left corner
type Rect struct {
	Origin Point `json:"origin"`
	Size   Size  `json:"size"`
}

// NewRect creates a rectangle from origin and size
func NewRect(origin Point, size Size) Rect {
	return Rect{Origin: origin, Size: size}
}

// MaxX returns the right edge coordinate
func (r Rect) MaxX() float64 {
	return r.Origin.X + r.Size.Width
}

// MaxY returns the bottom edge coordinate
func (r Rect) MaxY() float64 {
	return r.Origin.Y + r.Size.Height
}

// Center returns the rectangle's center point
func (r Rect) Center() Point {
	return Point{X: r.Origin.X + r.Size.Width/2, Y: r.Origin.Y + r.Size.Height/2}
}

// Contains reports whether a point lies inside the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Origin.X && p.X <= r.MaxX() &&
		p.Y >= r.Origin.Y && p.Y <= r.MaxY()
}
