package interaction

import (
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/graph"
	"canvas-engine/engine/viewport"
)

// hitTester resolves a screen point against the current node layout.
// Connection points win over the resize handle, which wins over the node
// body; overlapping node bodies resolve to the most recently created one.
type hitTester struct {
	store *graph.Store
	vp    *viewport.Viewport
	cfg   *config.DomainConfig
}

// Hit classifies the screen point. Hit radii are configured in screen
// units, so they are divided by the current zoom before comparing in
// world space.
func (h hitTester) Hit(screen valueobjects.Point) Target {
	world := h.vp.ScreenToWorld(screen)
	zoom := h.vp.Zoom()

	if id, side, ok := h.connectionPointAt(world, h.cfg.ConnectionHitRadius/zoom); ok {
		return Target{Kind: TargetConnectionPoint, NodeID: id, Side: side}
	}

	node := h.topmostNodeAt(world)
	if node == nil {
		return Target{Kind: TargetCanvas}
	}
	if !node.Collapsed() && h.inResizeHandle(node, world, h.cfg.ResizeHandleSize/zoom) {
		return Target{Kind: TargetResizeHandle, NodeID: node.ID()}
	}
	return Target{Kind: TargetNodeBody, NodeID: node.ID()}
}

func (h hitTester) connectionPointAt(world valueobjects.Point, radius float64) (valueobjects.NodeID, valueobjects.Side, bool) {
	var (
		bestID   valueobjects.NodeID
		bestSide valueobjects.Side
		bestDist float64
		found    bool
	)
	for _, node := range h.store.Nodes() {
		bounds := node.Bounds(h.cfg)
		for _, side := range valueobjects.Sides() {
			dist := world.DistanceTo(side.AnchorOn(bounds))
			if dist > radius {
				continue
			}
			if !found || dist < bestDist {
				bestID, bestSide, bestDist, found = node.ID(), side, dist, true
			}
		}
	}
	return bestID, bestSide, found
}

func (h hitTester) topmostNodeAt(world valueobjects.Point) *entities.Node {
	var top *entities.Node
	for _, node := range h.store.Nodes() {
		if !node.Bounds(h.cfg).Contains(world) {
			continue
		}
		if top == nil || node.CreatedAt().After(top.CreatedAt()) {
			top = node
		}
	}
	return top
}

func (h hitTester) inResizeHandle(node *entities.Node, world valueobjects.Point, size float64) bool {
	bounds := node.Bounds(h.cfg)
	return world.X >= bounds.MaxX()-size && world.X <= bounds.MaxX() &&
		world.Y >= bounds.MaxY()-size && world.Y <= bounds.MaxY()
}
