package interaction

import (
	"go.uber.org/zap"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/graph"
	"canvas-engine/engine/viewport"
	"canvas-engine/engine/wiring"
)

// Controller turns pointer and keyboard primitives into graph, viewport,
// and wiring operations. It is driven from the session loop only and is
// not safe for concurrent use.
type Controller struct {
	store   *graph.Store
	vp      *viewport.Viewport
	machine *wiring.Machine
	hit     hitTester
	cfg     *config.DomainConfig
	logger  *zap.Logger

	op        ActiveOp
	tool      Tool
	selection *valueobjects.NodeID

	// Gesture-start snapshots. Deltas are applied against these rather
	// than accumulated per frame, so rounding never drifts.
	panStartOffset  valueobjects.Point
	dragStartPos    valueobjects.Point
	resizeStartSize valueobjects.Size
}

// NewController wires a controller over the session's store, viewport,
// and wiring machine.
func NewController(store *graph.Store, vp *viewport.Viewport, machine *wiring.Machine, cfg *config.DomainConfig, logger *zap.Logger) *Controller {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Controller{
		store:   store,
		vp:      vp,
		machine: machine,
		hit:     hitTester{store: store, vp: vp, cfg: cfg},
		cfg:     cfg,
		logger:  logger,
		op:      idleOp(),
		tool:    ToolSelect,
	}
}

// ActiveOp returns the current gesture state.
func (c *Controller) ActiveOp() ActiveOp {
	return c.op
}

// Tool returns the active creation tool.
func (c *Controller) Tool() Tool {
	return c.tool
}

// SelectTool switches the active creation tool.
func (c *Controller) SelectTool(tool Tool) {
	c.tool = tool
}

// Selection returns the selected node, if any.
func (c *Controller) Selection() (valueobjects.NodeID, bool) {
	if c.selection == nil {
		return valueobjects.NodeID{}, false
	}
	return *c.selection, true
}

// HitTest resolves a screen point against the current layout.
func (c *Controller) HitTest(screen valueobjects.Point) Target {
	return c.hit.Hit(screen)
}

// BeginDrag starts a pan, node drag, resize, or wire gesture depending on
// what the pointer went down on. A gesture already in progress rejects
// the new one.
func (c *Controller) BeginDrag(screen valueobjects.Point) {
	if !c.op.IsIdle() {
		c.logger.Debug("gesture rejected, another is active", zap.String("active", c.op.Kind.String()))
		return
	}

	target := c.hit.Hit(screen)
	switch target.Kind {
	case TargetCanvas:
		c.op = ActiveOp{Kind: OpPanning}
		c.panStartOffset = c.vp.Offset()

	case TargetNodeBody:
		node, ok := c.store.Node(target.NodeID)
		if !ok {
			return
		}
		c.op = ActiveOp{Kind: OpDragging, NodeID: target.NodeID}
		c.dragStartPos = node.Position()
		c.setSelection(target.NodeID)

	case TargetResizeHandle:
		node, ok := c.store.Node(target.NodeID)
		if !ok {
			return
		}
		c.op = ActiveOp{Kind: OpResizing, NodeID: target.NodeID}
		c.resizeStartSize = node.Size()

	case TargetConnectionPoint:
		if c.machine.Begin(target.NodeID, target.Side) {
			c.op = ActiveOp{Kind: OpWiring, NodeID: target.NodeID, Side: target.Side}
		}
	}
}

// DragBy applies the total screen translation since the gesture began.
// Pans move the offset by the raw screen delta; drags and resizes divide
// by the current zoom to get a world delta.
func (c *Controller) DragBy(totalScreenDelta valueobjects.Point) {
	switch c.op.Kind {
	case OpPanning:
		c.vp.SetOffset(c.panStartOffset.Add(totalScreenDelta))

	case OpDragging:
		worldDelta := totalScreenDelta.Div(c.vp.Zoom())
		err := c.store.UpdateNode(c.op.NodeID, func(n *entities.Node) error {
			n.MoveTo(c.dragStartPos.Add(worldDelta))
			return nil
		}, false)
		if err != nil {
			c.abortGesture(err)
		}

	case OpResizing:
		worldDelta := totalScreenDelta.Div(c.vp.Zoom())
		err := c.store.UpdateNode(c.op.NodeID, func(n *entities.Node) error {
			n.Resize(c.resizeStartSize.Add(worldDelta), c.cfg)
			return nil
		}, false)
		if err != nil {
			c.abortGesture(err)
		}
	}
}

// EndDrag finishes the gesture. Node drags and resizes flush their final
// value through an immediate write. A wire gesture survives pointer-up;
// it completes or cancels on the next click.
func (c *Controller) EndDrag() {
	switch c.op.Kind {
	case OpPanning:
		c.op = idleOp()

	case OpDragging, OpResizing:
		if err := c.store.UpdateNode(c.op.NodeID, func(*entities.Node) error { return nil }, true); err != nil {
			c.logger.Debug("final flush skipped", zap.Error(err))
		}
		c.op = idleOp()

	case OpWiring:
		// still waiting for a drop target
	}
}

// Click handles a discrete pointer click: wiring transitions, selection,
// and tool-based node creation.
func (c *Controller) Click(screen valueobjects.Point, mods Modifiers) {
	target := c.hit.Hit(screen)

	if c.machine.Phase() == wiring.PhaseWiring {
		c.clickWhileWiring(target)
		return
	}
	if c.machine.Phase() == wiring.PhaseConfirmingDelete {
		// clicking elsewhere dismisses the confirmation
		c.machine.Cancel()
		c.op = idleOp()
		return
	}

	switch target.Kind {
	case TargetConnectionPoint:
		if mods.Alt && len(c.store.EdgesTouching(target.NodeID, target.Side)) > 0 {
			if c.machine.BeginDeleteConfirmation(target.NodeID, target.Side) {
				c.op = ActiveOp{Kind: OpWiring, NodeID: target.NodeID, Side: target.Side}
			}
			return
		}
		if c.machine.Begin(target.NodeID, target.Side) {
			c.op = ActiveOp{Kind: OpWiring, NodeID: target.NodeID, Side: target.Side}
		}

	case TargetNodeBody:
		c.setSelection(target.NodeID)

	case TargetCanvas:
		if kind, ok := c.tool.NodeKind(); ok {
			c.createNodeAt(kind, screen)
			c.tool = ToolSelect
			return
		}
		c.selection = nil
	}
}

// clickWhileWiring resolves the drop click of an in-progress wire. Only a
// connection point on a different node creates an edge; anything else is
// rejected silently and the gesture ends without progress.
func (c *Controller) clickWhileWiring(target Target) {
	if target.Kind != TargetConnectionPoint {
		c.machine.Cancel()
		c.op = idleOp()
		return
	}

	done, ok := c.machine.Complete(target.NodeID, target.Side)
	c.op = idleOp()
	if !ok {
		return
	}
	if _, err := c.store.CreateEdge(done.SourceID, done.TargetID, done.SourceSide, done.TargetSide); err != nil {
		c.logger.Warn("edge creation failed", zap.Error(err))
	}
}

// ConfirmPendingDelete resolves the delete-confirmation sub-state,
// removing every edge touching the confirmed connection point.
func (c *Controller) ConfirmPendingDelete() {
	nodeID, side, ok := c.machine.ConfirmDelete()
	c.op = idleOp()
	if !ok {
		return
	}
	for _, edge := range c.store.EdgesTouching(nodeID, side) {
		c.store.DeleteEdge(edge.ID())
	}
}

// DoubleClick creates a default note node at the clicked world position,
// regardless of the active tool.
func (c *Controller) DoubleClick(screen valueobjects.Point) {
	if !c.op.IsIdle() {
		return
	}
	c.createNodeAt(valueobjects.KindNote, screen)
}

// Pinch applies a damped trackpad pinch anchored at the cursor. Zoom is
// suppressed only while a resize is in flight, where it would fight the
// handle math; pans, drags, and wires tolerate it.
func (c *Controller) Pinch(delta float64, cursor valueobjects.Point) {
	if c.op.Kind == OpResizing {
		return
	}
	c.vp.ApplyPinch(delta, cursor)
}

// Scroll pans the viewport by the raw screen delta.
func (c *Controller) Scroll(delta valueobjects.Point) {
	if !c.op.IsIdle() {
		return
	}
	c.vp.SetOffset(c.vp.Offset().Add(delta))
}

// ZoomIn steps the zoom up one increment anchored at the given point.
// Suppressed while resizing, like Pinch.
func (c *Controller) ZoomIn(anchor valueobjects.Point) {
	if c.op.Kind == OpResizing {
		return
	}
	c.vp.StepZoom(1, anchor)
}

// ZoomOut steps the zoom down one increment anchored at the given point.
func (c *Controller) ZoomOut(anchor valueobjects.Point) {
	if c.op.Kind == OpResizing {
		return
	}
	c.vp.StepZoom(-1, anchor)
}

// PressKey handles keyboard input. Escape cancels any wire in progress
// and clears the tool and node selection; Delete removes the selected
// node.
func (c *Controller) PressKey(key Key) {
	switch key {
	case KeyEscape:
		if c.op.Kind == OpWiring {
			c.machine.Cancel()
			c.op = idleOp()
		}
		c.tool = ToolSelect
		c.selection = nil

	case KeyDelete:
		if !c.op.IsIdle() {
			return
		}
		if c.selection != nil {
			c.store.DeleteNode(*c.selection)
			c.selection = nil
		}
	}
}

func (c *Controller) createNodeAt(kind valueobjects.NodeKind, screen valueobjects.Point) {
	world := c.vp.ScreenToWorld(screen)
	node, err := c.store.CreateNode(kind, world)
	if err != nil {
		c.logger.Warn("node creation failed", zap.Error(err))
		return
	}
	c.setSelection(node.ID())
}

func (c *Controller) setSelection(id valueobjects.NodeID) {
	v := id
	c.selection = &v
}

// abortGesture drops a drag or resize whose node disappeared mid-gesture.
func (c *Controller) abortGesture(err error) {
	c.logger.Debug("gesture aborted", zap.Error(err))
	c.op = idleOp()
}
