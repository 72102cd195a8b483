package viewport

import (
	"testing"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestViewport_RoundTrip(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	points := []valueobjects.Point{
		{X: 0, Y: 0},
		{X: 100, Y: 100},
		{X: -350.5, Y: 1281.25},
		{X: 1e6, Y: -1e6},
	}
	zooms := []float64{cfg.MinZoom, 0.5, 1.0, 1.75, cfg.MaxZoom}
	offsets := []valueobjects.Point{
		{X: 0, Y: 0},
		{X: 42, Y: -17},
		{X: -9999, Y: 12345},
	}

	for _, zoom := range zooms {
		for _, offset := range offsets {
			v := New(cfg)
			v.ZoomAnchored(zoom, valueobjects.Point{})
			v.SetOffset(offset)

			for _, p := range points {
				got := v.ScreenToWorld(v.WorldToScreen(p))
				assert.True(t, got.ApproxEquals(p, 1e-6),
					"round trip failed: zoom=%v offset=%v p=%v got=%v", zoom, offset, p, got)
			}
		}
	}
}

func TestViewport_CursorAnchoredZoomInvariant(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	v := New(cfg)
	v.SetOffset(valueobjects.NewPoint(37, -82))

	cursor := valueobjects.NewPoint(412, 263)
	world := v.ScreenToWorld(cursor)

	for _, newZoom := range []float64{0.5, 1.5, 2.0, 3.5} {
		v.ZoomAnchored(newZoom, cursor)
		back := v.WorldToScreen(world)
		assert.True(t, back.ApproxEquals(cursor, 1e-6),
			"world point under cursor drifted at zoom %v: %v != %v", newZoom, back, cursor)
	}
}

func TestViewport_AnchoredZoomScenario(t *testing.T) {
	// At zoom 1.0, offset (100,100), world (100,100) maps to screen (200,200).
	// Zooming to 2.0 anchored at (200,200) must keep that mapping.
	cfg := config.DefaultDomainConfig()
	v := New(cfg)
	v.SetOffset(valueobjects.NewPoint(100, 100))

	world := valueobjects.NewPoint(100, 100)
	screen := v.WorldToScreen(world)
	require.True(t, screen.ApproxEquals(valueobjects.NewPoint(200, 200), tolerance))

	v.ZoomAnchored(2.0, valueobjects.NewPoint(200, 200))
	require.Equal(t, 2.0, v.Zoom())

	after := v.WorldToScreen(world)
	assert.True(t, after.ApproxEquals(valueobjects.NewPoint(200, 200), 1e-6),
		"expected (200,200), got %v", after)
}

func TestViewport_ZoomClamped(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	v := New(cfg)

	v.ZoomAnchored(cfg.MaxZoom*10, valueobjects.Point{})
	assert.Equal(t, cfg.MaxZoom, v.Zoom())

	v.ZoomAnchored(cfg.MinZoom/10, valueobjects.Point{})
	assert.Equal(t, cfg.MinZoom, v.Zoom())
}

func TestViewport_PinchDamping(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	v := New(cfg)

	v.ApplyPinch(1.0, valueobjects.Point{})
	assert.InDelta(t, 1.0*(1.0+cfg.PinchDamping), v.Zoom(), tolerance)

	// A damped pinch moves the zoom far less than the raw delta would
	assert.Less(t, v.Zoom(), 2.0)
}

func TestViewport_StepZoom(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	v := New(cfg)

	v.StepZoom(1, valueobjects.Point{})
	assert.InDelta(t, 1.0+cfg.ZoomStep, v.Zoom(), tolerance)

	v.StepZoom(-1, valueobjects.Point{})
	v.StepZoom(-1, valueobjects.Point{})
	assert.InDelta(t, 1.0-cfg.ZoomStep, v.Zoom(), tolerance)
}

func TestViewport_GridPhaseNormalized(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	v := New(cfg)
	center := valueobjects.NewPoint(512, 384)

	for _, zoom := range []float64{0.25, 0.8, 1.0, 2.3, 4.0} {
		v.ZoomAnchored(zoom, center)
		v.SetOffset(valueobjects.NewPoint(-1234.5, 678.9))

		phase := v.GridPhase(center)
		spacing := v.GridSpacing()

		assert.GreaterOrEqual(t, phase.X, 0.0)
		assert.Less(t, phase.X, spacing)
		assert.GreaterOrEqual(t, phase.Y, 0.0)
		assert.Less(t, phase.Y, spacing)
	}
}
