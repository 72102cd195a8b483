package config

import "time"

// DomainConfig holds all configurable interaction rules and constraints
type DomainConfig struct {
	// Viewport constraints
	MinZoom      float64
	MaxZoom      float64
	ZoomStep     float64
	PinchDamping float64

	// Background tiling
	GridBaseSpacing float64

	// Node size constraints (world units)
	MinNodeWidth        float64
	MinNodeHeight       float64
	MaxNodeWidth        float64
	MaxNodeHeight       float64
	DefaultNodeWidth    float64
	DefaultNodeHeight   float64
	CollapsedNodeHeight float64

	// Hit testing (screen units, scaled by zoom at use sites)
	ConnectionHitRadius float64
	ResizeHandleSize    float64

	// Document constraints
	MaxNodesPerDocument int
	MaxTitleLength      int

	// Persistence
	DebounceDelay time.Duration
	WriteTimeout  time.Duration
}

// DefaultDomainConfig returns the default interaction configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MinZoom:      0.25,
		MaxZoom:      4.0,
		ZoomStep:     0.1,
		PinchDamping: 0.1,

		GridBaseSpacing: 40.0,

		MinNodeWidth:        120.0,
		MinNodeHeight:       60.0,
		MaxNodeWidth:        1200.0,
		MaxNodeHeight:       1600.0,
		DefaultNodeWidth:    320.0,
		DefaultNodeHeight:   200.0,
		CollapsedNodeHeight: 44.0,

		ConnectionHitRadius: 12.0,
		ResizeHandleSize:    16.0,

		MaxNodesPerDocument: 5000,
		MaxTitleLength:      512,

		DebounceDelay: 100 * time.Millisecond,
		WriteTimeout:  5 * time.Second,
	}
}

// ClampZoom constrains a zoom scale to the configured range
func (c *DomainConfig) ClampZoom(zoom float64) float64 {
	if zoom < c.MinZoom {
		return c.MinZoom
	}
	if zoom > c.MaxZoom {
		return c.MaxZoom
	}
	return zoom
}

// ClampWidth constrains a node width to the configured range
func (c *DomainConfig) ClampWidth(w float64) float64 {
	if w < c.MinNodeWidth {
		return c.MinNodeWidth
	}
	if w > c.MaxNodeWidth {
		return c.MaxNodeWidth
	}
	return w
}

// ClampHeight constrains a node height to the configured range
func (c *DomainConfig) ClampHeight(h float64) float64 {
	if h < c.MinNodeHeight {
		return c.MinNodeHeight
	}
	if h > c.MaxNodeHeight {
		return c.MaxNodeHeight
	}
	return h
}
