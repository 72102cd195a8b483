package session

import (
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/interaction"
)

// RenderState is the per-frame snapshot handed to the rendering
// collaborator: the current transform, every node's world-space bounds,
// and the interaction state the renderer needs for highlights and the
// wiring preview line.
type RenderState struct {
	Zoom        float64
	Offset      valueobjects.Point
	GridPhase   valueobjects.Point
	GridSpacing float64

	NodeBounds map[valueobjects.NodeID]valueobjects.Rect
	Edges      []EdgeLine

	Selection *valueobjects.NodeID
	Tool      interaction.Tool
	ActiveOp  interaction.ActiveOp
	Wiring    *WiringPreview
}

// EdgeLine is an edge resolved to its two world-space endpoints.
type EdgeLine struct {
	ID     valueobjects.EdgeID
	From   valueobjects.Point
	To     valueobjects.Point
	Color  string
	Source valueobjects.NodeID
	Target valueobjects.NodeID
}

// WiringPreview anchors the rubber-band line while a wire is in progress.
type WiringPreview struct {
	SourceID   valueobjects.NodeID
	SourceSide valueobjects.Side
	Anchor     valueobjects.Point
}

// RenderStateFor builds the frame snapshot. Only valid inside a Do
// closure; viewportCenter is the screen-space center used by the grid
// phase formula.
func (s *Session) RenderStateFor(viewportCenter valueobjects.Point) RenderState {
	state := RenderState{
		Zoom:        s.viewport.Zoom(),
		Offset:      s.viewport.Offset(),
		GridPhase:   s.viewport.GridPhase(viewportCenter),
		GridSpacing: s.viewport.GridSpacing(),
		NodeBounds:  make(map[valueobjects.NodeID]valueobjects.Rect, s.store.NodeCount()),
		Tool:        s.controller.Tool(),
		ActiveOp:    s.controller.ActiveOp(),
	}

	nodes := s.store.Nodes()
	for id, node := range nodes {
		state.NodeBounds[id] = node.Bounds(s.cfg)
	}

	for _, edge := range s.store.Edges() {
		source, ok := nodes[edge.SourceID()]
		if !ok {
			continue
		}
		target, ok := nodes[edge.TargetID()]
		if !ok {
			continue
		}
		state.Edges = append(state.Edges, EdgeLine{
			ID:     edge.ID(),
			From:   edge.SourceSide().AnchorOn(source.Bounds(s.cfg)),
			To:     edge.TargetSide().AnchorOn(target.Bounds(s.cfg)),
			Color:  edge.Color(),
			Source: edge.SourceID(),
			Target: edge.TargetID(),
		})
	}

	if id, ok := s.controller.Selection(); ok {
		v := id
		state.Selection = &v
	}

	if srcID, srcSide, ok := s.machine.Source(); ok {
		if node, found := s.store.Node(srcID); found {
			state.Wiring = &WiringPreview{
				SourceID:   srcID,
				SourceSide: srcSide,
				Anchor:     srcSide.AnchorOn(node.Bounds(s.cfg)),
			}
		}
	}

	return state
}
