package interaction

import (
	"testing"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/events"
	"canvas-engine/engine/graph"
	"canvas-engine/engine/viewport"
	"canvas-engine/engine/wiring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingWriter captures scheduler calls so tests can assert on the
// immediate flag without a real scheduler.
type recordingWriter struct {
	nodeWrites []bool
}

func (w *recordingWriter) ScheduleNodeWrite(_ *entities.Node, immediate bool) {
	w.nodeWrites = append(w.nodeWrites, immediate)
}
func (w *recordingWriter) ScheduleEdgeWrite(*entities.Edge, bool) {}
func (w *recordingWriter) DeleteNode(valueobjects.NodeID)         {}
func (w *recordingWriter) DeleteEdge(valueobjects.EdgeID)         {}

type fixture struct {
	cfg        *config.DomainConfig
	store      *graph.Store
	vp         *viewport.Viewport
	controller *Controller
	writer     *recordingWriter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	writer := &recordingWriter{}
	store := graph.NewStore(valueobjects.NewDocumentID(), writer, events.NewPublisher(zap.NewNop()), cfg, zap.NewNop())
	vp := viewport.New(cfg)
	controller := NewController(store, vp, wiring.NewMachine(), cfg, zap.NewNop())
	return &fixture{cfg: cfg, store: store, vp: vp, controller: controller, writer: writer}
}

func (f *fixture) addNode(t *testing.T, x, y float64) *entities.Node {
	t.Helper()
	node, err := f.store.CreateNode(valueobjects.KindNote, valueobjects.NewPoint(x, y))
	require.NoError(t, err)
	return node
}

// anchor returns the screen position of a node's connection point at the
// current viewport transform.
func (f *fixture) anchor(node *entities.Node, side valueobjects.Side) valueobjects.Point {
	return f.vp.WorldToScreen(side.AnchorOn(node.Bounds(f.cfg)))
}

func TestController_DragMovesNodeByWorldDelta(t *testing.T) {
	f := newFixture(t)
	node := f.addNode(t, 100, 100)

	// zoom 1, offset (0,0): screen (200,150) lands on the node body
	f.controller.BeginDrag(valueobjects.NewPoint(200, 150))
	require.Equal(t, OpDragging, f.controller.ActiveOp().Kind)

	f.controller.DragBy(valueobjects.NewPoint(50, 0))
	assert.Equal(t, valueobjects.NewPoint(150, 100), node.Position())

	f.controller.EndDrag()
	assert.Equal(t, OpIdle, f.controller.ActiveOp().Kind)
}

func TestController_DragAppliesTotalDeltaNotIncrements(t *testing.T) {
	f := newFixture(t)
	node := f.addNode(t, 100, 100)

	f.controller.BeginDrag(valueobjects.NewPoint(200, 150))
	f.controller.DragBy(valueobjects.NewPoint(10, 10))
	f.controller.DragBy(valueobjects.NewPoint(50, 0))

	// each DragBy is the translation from drag start, so the node ends at
	// start + the last delta, never the sum
	assert.Equal(t, valueobjects.NewPoint(150, 100), node.Position())
}

func TestController_DragDividesByZoom(t *testing.T) {
	f := newFixture(t)
	node := f.addNode(t, 100, 100)
	f.vp.ZoomAnchored(2.0, valueobjects.NewPoint(0, 0))

	f.controller.BeginDrag(f.vp.WorldToScreen(valueobjects.NewPoint(200, 150)))
	require.Equal(t, OpDragging, f.controller.ActiveOp().Kind)

	f.controller.DragBy(valueobjects.NewPoint(50, 0))
	assert.Equal(t, valueobjects.NewPoint(125, 100), node.Position())
}

func TestController_EndDragFlushesImmediately(t *testing.T) {
	f := newFixture(t)
	f.addNode(t, 100, 100)
	f.writer.nodeWrites = nil

	f.controller.BeginDrag(valueobjects.NewPoint(200, 150))
	f.controller.DragBy(valueobjects.NewPoint(50, 0))
	f.controller.EndDrag()

	require.NotEmpty(t, f.writer.nodeWrites)
	assert.False(t, f.writer.nodeWrites[0], "mid-drag writes stay debounced")
	assert.True(t, f.writer.nodeWrites[len(f.writer.nodeWrites)-1], "final write bypasses debounce")
}

func TestController_PanRestoresFromStartOffset(t *testing.T) {
	f := newFixture(t)

	f.controller.BeginDrag(valueobjects.NewPoint(500, 500))
	require.Equal(t, OpPanning, f.controller.ActiveOp().Kind)

	f.controller.DragBy(valueobjects.NewPoint(10, 10))
	f.controller.DragBy(valueobjects.NewPoint(30, 40))
	assert.Equal(t, valueobjects.NewPoint(30, 40), f.vp.Offset())

	f.controller.EndDrag()
	assert.Equal(t, OpIdle, f.controller.ActiveOp().Kind)
}

func TestController_ResizeClampsToBounds(t *testing.T) {
	f := newFixture(t)
	node := f.addNode(t, 0, 0)

	// bottom-right handle of a 320x200 node at the origin
	f.controller.BeginDrag(valueobjects.NewPoint(315, 195))
	require.Equal(t, OpResizing, f.controller.ActiveOp().Kind)

	f.controller.DragBy(valueobjects.NewPoint(100, 50))
	assert.Equal(t, valueobjects.NewSize(420, 250), node.Size())

	// shrinking far past the minimum clamps instead of inverting
	f.controller.DragBy(valueobjects.NewPoint(-1000, -1000))
	assert.Equal(t, valueobjects.NewSize(f.cfg.MinNodeWidth, f.cfg.MinNodeHeight), node.Size())

	f.controller.EndDrag()
}

func TestController_GestureMutualExclusion(t *testing.T) {
	f := newFixture(t)
	f.addNode(t, 100, 100)

	f.controller.BeginDrag(valueobjects.NewPoint(900, 900))
	require.Equal(t, OpPanning, f.controller.ActiveOp().Kind)

	// a second pointer-down on a node body is rejected while panning
	f.controller.BeginDrag(valueobjects.NewPoint(200, 150))
	assert.Equal(t, OpPanning, f.controller.ActiveOp().Kind)
}

func TestController_ZoomSuppressedDuringResize(t *testing.T) {
	f := newFixture(t)
	f.addNode(t, 0, 0)

	f.controller.BeginDrag(valueobjects.NewPoint(315, 195))
	require.Equal(t, OpResizing, f.controller.ActiveOp().Kind)

	f.controller.Pinch(0.5, valueobjects.NewPoint(100, 100))
	f.controller.ZoomIn(valueobjects.NewPoint(100, 100))
	assert.Equal(t, 1.0, f.vp.Zoom())
}

func TestController_PinchAllowedDuringDragAndWiring(t *testing.T) {
	f := newFixture(t)
	a := f.addNode(t, 100, 100)

	f.controller.BeginDrag(valueobjects.NewPoint(200, 150))
	require.Equal(t, OpDragging, f.controller.ActiveOp().Kind)
	f.controller.Pinch(0.5, valueobjects.NewPoint(100, 100))
	assert.Greater(t, f.vp.Zoom(), 1.0, "drag does not block zoom")
	f.controller.EndDrag()

	f.controller.Click(f.anchor(a, valueobjects.SideRight), Modifiers{})
	require.Equal(t, OpWiring, f.controller.ActiveOp().Kind)
	before := f.vp.Zoom()
	f.controller.Pinch(0.5, valueobjects.NewPoint(100, 100))
	assert.Greater(t, f.vp.Zoom(), before, "wiring does not block zoom")
}

func TestController_WiringCreatesOneEdge(t *testing.T) {
	f := newFixture(t)
	a := f.addNode(t, 0, 0)
	b := f.addNode(t, 1000, 1000)

	f.controller.Click(f.anchor(a, valueobjects.SideRight), Modifiers{})
	require.Equal(t, OpWiring, f.controller.ActiveOp().Kind)

	f.controller.Click(f.anchor(b, valueobjects.SideLeft), Modifiers{})
	assert.Equal(t, OpIdle, f.controller.ActiveOp().Kind)
	require.Equal(t, 1, f.store.EdgeCount())

	edge := f.store.Edges()[0]
	assert.True(t, edge.SourceID().Equals(a.ID()))
	assert.True(t, edge.TargetID().Equals(b.ID()))
	assert.Equal(t, valueobjects.SideRight, edge.SourceSide())
	assert.Equal(t, valueobjects.SideLeft, edge.TargetSide())
}

func TestController_WiringBackOnSourceCreatesNothing(t *testing.T) {
	f := newFixture(t)
	a := f.addNode(t, 0, 0)

	f.controller.Click(f.anchor(a, valueobjects.SideRight), Modifiers{})
	require.Equal(t, OpWiring, f.controller.ActiveOp().Kind)

	f.controller.Click(f.anchor(a, valueobjects.SideBottom), Modifiers{})
	assert.Equal(t, 0, f.store.EdgeCount())
	assert.Equal(t, OpIdle, f.controller.ActiveOp().Kind)
}

func TestController_WiringOntoCanvasCancelsSilently(t *testing.T) {
	f := newFixture(t)
	a := f.addNode(t, 0, 0)

	f.controller.Click(f.anchor(a, valueobjects.SideRight), Modifiers{})
	f.controller.Click(valueobjects.NewPoint(5000, 5000), Modifiers{})

	assert.Equal(t, 0, f.store.EdgeCount())
	assert.Equal(t, OpIdle, f.controller.ActiveOp().Kind)
}

func TestController_EscapeCancelsWiring(t *testing.T) {
	f := newFixture(t)
	a := f.addNode(t, 0, 0)

	f.controller.Click(f.anchor(a, valueobjects.SideTop), Modifiers{})
	require.Equal(t, OpWiring, f.controller.ActiveOp().Kind)

	f.controller.PressKey(KeyEscape)
	assert.Equal(t, OpIdle, f.controller.ActiveOp().Kind)
	assert.Equal(t, 0, f.store.EdgeCount())
}

func TestController_AltClickDeletesTouchingEdges(t *testing.T) {
	f := newFixture(t)
	a := f.addNode(t, 0, 0)
	b := f.addNode(t, 1000, 1000)
	_, err := f.store.CreateEdge(a.ID(), b.ID(), valueobjects.SideRight, valueobjects.SideLeft)
	require.NoError(t, err)

	f.controller.Click(f.anchor(a, valueobjects.SideRight), Modifiers{Alt: true})
	require.Equal(t, OpWiring, f.controller.ActiveOp().Kind)
	assert.Equal(t, 1, f.store.EdgeCount(), "nothing deleted before confirmation")

	f.controller.ConfirmPendingDelete()
	assert.Equal(t, 0, f.store.EdgeCount())
	assert.Equal(t, OpIdle, f.controller.ActiveOp().Kind)
}

func TestController_AltClickOnUnconnectedPointStartsWiring(t *testing.T) {
	f := newFixture(t)
	a := f.addNode(t, 0, 0)

	// no edges touch this point, so alt-click behaves like a plain click
	f.controller.Click(f.anchor(a, valueobjects.SideLeft), Modifiers{Alt: true})
	assert.Equal(t, OpWiring, f.controller.ActiveOp().Kind)
}

func TestController_DoubleClickCreatesNoteNode(t *testing.T) {
	f := newFixture(t)
	f.controller.SelectTool(ToolChat)

	f.controller.DoubleClick(valueobjects.NewPoint(400, 300))
	require.Equal(t, 1, f.store.NodeCount())

	for _, node := range f.store.Nodes() {
		assert.Equal(t, valueobjects.KindNote, node.Kind())
		assert.Equal(t, valueobjects.NewPoint(400, 300), node.Position())
	}
}

func TestController_ToolClickCreatesTypedNode(t *testing.T) {
	f := newFixture(t)
	f.controller.SelectTool(ToolText)

	f.controller.Click(valueobjects.NewPoint(250, 250), Modifiers{})
	require.Equal(t, 1, f.store.NodeCount())
	for _, node := range f.store.Nodes() {
		assert.Equal(t, valueobjects.KindText, node.Kind())
	}

	// newly created node becomes the selection
	_, selected := f.controller.Selection()
	assert.True(t, selected)

	// placement is one-shot: the tool reverts to selection, so the next
	// canvas click deselects instead of stamping another node
	assert.Equal(t, ToolSelect, f.controller.Tool())
	f.controller.Click(valueobjects.NewPoint(900, 900), Modifiers{})
	assert.Equal(t, 1, f.store.NodeCount())
	_, selected = f.controller.Selection()
	assert.False(t, selected)
}

func TestController_ToolRevertsAfterPlacementClick(t *testing.T) {
	f := newFixture(t)
	f.controller.SelectTool(ToolChat)

	f.controller.Click(valueobjects.NewPoint(250, 250), Modifiers{})
	assert.Equal(t, ToolSelect, f.controller.Tool())
}

func TestController_EscapeClearsToolAndSelection(t *testing.T) {
	f := newFixture(t)
	node := f.addNode(t, 100, 100)
	f.controller.SelectTool(ToolMedia)
	f.controller.Click(valueobjects.NewPoint(200, 150), Modifiers{})
	_ = node

	f.controller.PressKey(KeyEscape)
	assert.Equal(t, ToolSelect, f.controller.Tool())
	_, selected := f.controller.Selection()
	assert.False(t, selected)
}

func TestController_DeleteKeyRemovesSelection(t *testing.T) {
	f := newFixture(t)
	node := f.addNode(t, 100, 100)

	f.controller.Click(valueobjects.NewPoint(200, 150), Modifiers{})
	id, selected := f.controller.Selection()
	require.True(t, selected)
	require.True(t, id.Equals(node.ID()))

	f.controller.PressKey(KeyDelete)
	assert.Equal(t, 0, f.store.NodeCount())
	_, selected = f.controller.Selection()
	assert.False(t, selected)
}

func TestController_ScrollPansViewport(t *testing.T) {
	f := newFixture(t)
	f.controller.Scroll(valueobjects.NewPoint(-25, 40))
	assert.Equal(t, valueobjects.NewPoint(-25, 40), f.vp.Offset())
}

func TestHitTest_Priorities(t *testing.T) {
	f := newFixture(t)
	node := f.addNode(t, 0, 0)

	// right in the middle of the body
	target := f.controller.HitTest(valueobjects.NewPoint(160, 100))
	assert.Equal(t, TargetNodeBody, target.Kind)
	assert.True(t, target.NodeID.Equals(node.ID()))

	// the connection anchor wins over the body
	target = f.controller.HitTest(f.anchor(node, valueobjects.SideTop))
	assert.Equal(t, TargetConnectionPoint, target.Kind)
	assert.Equal(t, valueobjects.SideTop, target.Side)

	// bottom-right corner is the resize handle
	target = f.controller.HitTest(valueobjects.NewPoint(315, 195))
	assert.Equal(t, TargetResizeHandle, target.Kind)

	// empty space is canvas
	target = f.controller.HitTest(valueobjects.NewPoint(5000, 5000))
	assert.Equal(t, TargetCanvas, target.Kind)
}

func TestHitTest_TopmostNodeWins(t *testing.T) {
	f := newFixture(t)
	f.addNode(t, 0, 0)
	newer := f.addNode(t, 50, 50)

	target := f.controller.HitTest(valueobjects.NewPoint(160, 100))
	assert.Equal(t, TargetNodeBody, target.Kind)
	assert.True(t, target.NodeID.Equals(newer.ID()))
}
