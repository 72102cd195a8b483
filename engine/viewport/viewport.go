package viewport

import (
	"math"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"
)

// Viewport maintains the pan/zoom transform between world and screen
// coordinates. Zoom is clamped to the configured range; the offset is
// unclamped because the canvas is conceptually infinite.
type Viewport struct {
	cfg    *config.DomainConfig
	zoom   float64
	offset valueobjects.Point
}

// New creates a viewport at zoom 1 with no pan
func New(cfg *config.DomainConfig) *Viewport {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Viewport{cfg: cfg, zoom: 1.0}
}

// Zoom returns the current zoom scale
func (v *Viewport) Zoom() float64 {
	return v.zoom
}

// Offset returns the current screen-space pan offset
func (v *Viewport) Offset() valueobjects.Point {
	return v.offset
}

// SetOffset replaces the pan offset
func (v *Viewport) SetOffset(offset valueobjects.Point) {
	v.offset = offset
}

// WorldToScreen transforms a world point into screen coordinates
func (v *Viewport) WorldToScreen(p valueobjects.Point) valueobjects.Point {
	return p.Scale(v.zoom).Add(v.offset)
}

// ScreenToWorld transforms a screen point into world coordinates
func (v *Viewport) ScreenToWorld(p valueobjects.Point) valueobjects.Point {
	return p.Sub(v.offset).Div(v.zoom)
}

// ZoomAnchored applies a new zoom scale while keeping the world point under
// the given screen cursor visually fixed: the offset is recomputed as
// offset' = cursor - world*zoom'.
func (v *Viewport) ZoomAnchored(newZoom float64, cursor valueobjects.Point) {
	newZoom = v.cfg.ClampZoom(newZoom)
	if newZoom == v.zoom {
		return
	}
	world := v.ScreenToWorld(cursor)
	v.zoom = newZoom
	v.offset = cursor.Sub(world.Scale(newZoom))
}

// ApplyPinch applies a raw pinch delta, damped so trackpad gestures do not
// zoom too aggressively, multiplicatively against the prior zoom
func (v *Viewport) ApplyPinch(delta float64, cursor valueobjects.Point) {
	v.ZoomAnchored(v.zoom*(1.0+delta*v.cfg.PinchDamping), cursor)
}

// StepZoom applies a discrete zoom command (direction +1 or -1) as a fixed
// additive step, undamped, anchored at the given screen point
func (v *Viewport) StepZoom(direction int, anchor valueobjects.Point) {
	v.ZoomAnchored(v.zoom+float64(direction)*v.cfg.ZoomStep, anchor)
}

// GridPhase returns the screen offset of the first background tile along
// each axis, given the viewport's center in screen coordinates. The phase is
// ((1-zoom)*center + offset*zoom) mod (baseSpacing*zoom), normalized into
// [0, spacing).
func (v *Viewport) GridPhase(viewportCenter valueobjects.Point) valueobjects.Point {
	spacing := v.cfg.GridBaseSpacing * v.zoom
	return valueobjects.Point{
		X: normalizeMod((1.0-v.zoom)*viewportCenter.X+v.offset.X*v.zoom, spacing),
		Y: normalizeMod((1.0-v.zoom)*viewportCenter.Y+v.offset.Y*v.zoom, spacing),
	}
}

// GridSpacing returns the current on-screen tile spacing
func (v *Viewport) GridSpacing() float64 {
	return v.cfg.GridBaseSpacing * v.zoom
}

// normalizeMod reduces x modulo m into [0, m)
func normalizeMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
