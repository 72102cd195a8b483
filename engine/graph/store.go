package graph

import (
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/events"
	pkgerrors "canvas-engine/pkg/errors"
	"canvas-engine/pkg/observability"

	"go.uber.org/zap"
)

// Writer receives every mutation for persistence. Implemented by the
// persistence scheduler; a nil-safe no-op writer is used in tests.
type Writer interface {
	ScheduleNodeWrite(node *entities.Node, immediate bool)
	ScheduleEdgeWrite(edge *entities.Edge, immediate bool)
	DeleteNode(id valueobjects.NodeID)
	DeleteEdge(id valueobjects.EdgeID)
}

// Store exclusively owns the node and edge collections for the open
// document. It is single-writer: all mutation happens on the session loop,
// so there are no locks and no merge-conflict policy.
type Store struct {
	cfg        *config.DomainConfig
	logger     *zap.Logger
	documentID valueobjects.DocumentID
	nodes      map[valueobjects.NodeID]*entities.Node
	edges      map[valueobjects.EdgeID]*entities.Edge
	writer     Writer
	publisher  *events.Publisher
}

// NewStore creates an empty store for a document
func NewStore(documentID valueobjects.DocumentID, writer Writer, publisher *events.Publisher, cfg *config.DomainConfig, logger *zap.Logger) *Store {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Store{
		cfg:        cfg,
		logger:     logger,
		documentID: documentID,
		nodes:      make(map[valueobjects.NodeID]*entities.Node),
		edges:      make(map[valueobjects.EdgeID]*entities.Edge),
		writer:     writer,
		publisher:  publisher,
	}
}

// DocumentID returns the open document's identifier
func (s *Store) DocumentID() valueobjects.DocumentID {
	return s.documentID
}

// Load populates the store from persisted data. Edges whose endpoints are
// missing are dropped rather than loaded dangling. No writes or events are
// produced.
func (s *Store) Load(nodes []*entities.Node, edges []*entities.Edge) {
	for _, n := range nodes {
		s.nodes[n.ID()] = n
	}
	for _, e := range edges {
		if _, ok := s.nodes[e.SourceID()]; !ok {
			s.logger.Warn("dropping edge with missing source", zap.String("edge", e.ID().String()))
			continue
		}
		if _, ok := s.nodes[e.TargetID()]; !ok {
			s.logger.Warn("dropping edge with missing target", zap.String("edge", e.ID().String()))
			continue
		}
		s.edges[e.ID()] = e
	}
	s.updateGauges()
}

// CreateNode places a new root-level node of the given kind at a world
// position
func (s *Store) CreateNode(kind valueobjects.NodeKind, position valueobjects.Point) (*entities.Node, error) {
	return s.createNode(nil, kind, position)
}

// CreateChildNode spawns a node whose parent is fixed at birth
func (s *Store) CreateChildNode(parentID valueobjects.NodeID, kind valueobjects.NodeKind, position valueobjects.Point) (*entities.Node, error) {
	if _, ok := s.nodes[parentID]; !ok {
		return nil, pkgerrors.NewNotFoundError("parent node")
	}
	return s.createNode(&parentID, kind, position)
}

func (s *Store) createNode(parentID *valueobjects.NodeID, kind valueobjects.NodeKind, position valueobjects.Point) (*entities.Node, error) {
	if len(s.nodes) >= s.cfg.MaxNodesPerDocument {
		return nil, pkgerrors.NewConflictError("document node limit reached")
	}

	var (
		node *entities.Node
		err  error
	)
	if parentID != nil {
		node, err = entities.NewChildNode(s.documentID, *parentID, kind, position, s.cfg)
	} else {
		node, err = entities.NewNode(s.documentID, kind, position, s.cfg)
	}
	if err != nil {
		return nil, err
	}

	s.nodes[node.ID()] = node
	s.writer.ScheduleNodeWrite(node, false)
	s.publisher.Publish(events.NewNodeCreated(node.ID(), kind, parentID, position))
	observability.CanvasMutationsTotal.WithLabelValues("node", "create").Inc()
	s.updateGauges()
	return node, nil
}

// UpdateNode applies a mutation to an existing node and forwards it to the
// persistence scheduler. It never resurrects a deleted node. The immediate
// flag is passed through to bypass debouncing for mutation boundaries.
func (s *Store) UpdateNode(id valueobjects.NodeID, mutate func(*entities.Node) error, immediate bool) error {
	node, ok := s.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}

	oldPosition := node.Position()
	oldSize := node.Size()

	if err := mutate(node); err != nil {
		return err
	}

	s.writer.ScheduleNodeWrite(node, immediate)
	observability.CanvasMutationsTotal.WithLabelValues("node", "update").Inc()

	switch {
	case !node.Position().Equals(oldPosition):
		s.publisher.Publish(events.NewNodeMoved(id, oldPosition, node.Position()))
	case !node.Size().Equals(oldSize):
		s.publisher.Publish(events.NewNodeResized(id, oldSize, node.Size()))
	default:
		s.publisher.Publish(events.NewNodeUpdated(id))
	}
	return nil
}

// DeleteNode removes a node, cascading deletion to every edge whose source
// or target is that node. Children are not cascade-deleted; they become
// root nodes. Deleting an absent id is a no-op.
func (s *Store) DeleteNode(id valueobjects.NodeID) {
	if _, ok := s.nodes[id]; !ok {
		return
	}

	var cascaded []valueobjects.EdgeID
	for edgeID, edge := range s.edges {
		if edge.References(id) {
			delete(s.edges, edgeID)
			s.writer.DeleteEdge(edgeID)
			s.publisher.Publish(events.NewEdgeDeleted(edgeID))
			cascaded = append(cascaded, edgeID)
		}
	}

	var orphaned []valueobjects.NodeID
	for _, child := range s.nodes {
		if parent, ok := child.ParentID(); ok && parent.Equals(id) {
			child.ClearParent()
			s.writer.ScheduleNodeWrite(child, false)
			orphaned = append(orphaned, child.ID())
		}
	}

	delete(s.nodes, id)
	s.writer.DeleteNode(id)
	s.publisher.Publish(events.NewNodeDeleted(id, cascaded, orphaned))
	observability.CanvasMutationsTotal.WithLabelValues("node", "delete").Inc()
	s.updateGauges()
}

// CreateEdge connects two existing, distinct nodes. Both endpoints must be
// present at creation time; side values are rendering metadata only.
func (s *Store) CreateEdge(sourceID, targetID valueobjects.NodeID, sourceSide, targetSide valueobjects.Side) (*entities.Edge, error) {
	if _, ok := s.nodes[sourceID]; !ok {
		return nil, pkgerrors.NewValidationError("edge source does not exist")
	}
	if _, ok := s.nodes[targetID]; !ok {
		return nil, pkgerrors.NewValidationError("edge target does not exist")
	}

	edge, err := entities.NewEdge(s.documentID, sourceID, targetID, sourceSide, targetSide)
	if err != nil {
		return nil, err
	}

	s.edges[edge.ID()] = edge
	s.writer.ScheduleEdgeWrite(edge, false)
	s.publisher.Publish(events.NewEdgeCreated(edge.ID(), sourceID, targetID, sourceSide, targetSide))
	observability.CanvasMutationsTotal.WithLabelValues("edge", "create").Inc()
	s.updateGauges()
	return edge, nil
}

// UpdateEdge applies a mutation to an existing edge
func (s *Store) UpdateEdge(id valueobjects.EdgeID, mutate func(*entities.Edge) error) error {
	edge, ok := s.edges[id]
	if !ok {
		return pkgerrors.NewNotFoundError("edge")
	}
	if err := mutate(edge); err != nil {
		return err
	}
	s.writer.ScheduleEdgeWrite(edge, false)
	observability.CanvasMutationsTotal.WithLabelValues("edge", "update").Inc()
	return nil
}

// DeleteEdge removes an edge. Deleting an absent id is a no-op.
func (s *Store) DeleteEdge(id valueobjects.EdgeID) {
	if _, ok := s.edges[id]; !ok {
		return
	}
	delete(s.edges, id)
	s.writer.DeleteEdge(id)
	s.publisher.Publish(events.NewEdgeDeleted(id))
	observability.CanvasMutationsTotal.WithLabelValues("edge", "delete").Inc()
	s.updateGauges()
}

// Node returns a node by id
func (s *Store) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	node, ok := s.nodes[id]
	return node, ok
}

// Edge returns an edge by id
func (s *Store) Edge(id valueobjects.EdgeID) (*entities.Edge, bool) {
	edge, ok := s.edges[id]
	return edge, ok
}

// Nodes returns the node map. The map is a copy; the entities are shared,
// which is safe under the single-writer model.
func (s *Store) Nodes() map[valueobjects.NodeID]*entities.Node {
	out := make(map[valueobjects.NodeID]*entities.Node, len(s.nodes))
	for id, n := range s.nodes {
		out[id] = n
	}
	return out
}

// Edges returns all edges
func (s *Store) Edges() []*entities.Edge {
	out := make([]*entities.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	return out
}

// Children returns all nodes whose parent is the given node
func (s *Store) Children(parentID valueobjects.NodeID) []*entities.Node {
	var out []*entities.Node
	for _, n := range s.nodes {
		if p, ok := n.ParentID(); ok && p.Equals(parentID) {
			out = append(out, n)
		}
	}
	return out
}

// EdgesForNode returns every edge whose source or target is the given node
func (s *Store) EdgesForNode(nodeID valueobjects.NodeID) []*entities.Edge {
	var out []*entities.Edge
	for _, e := range s.edges {
		if e.References(nodeID) {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTouching returns every edge attached to the given node on the given
// side
func (s *Store) EdgesTouching(nodeID valueobjects.NodeID, side valueobjects.Side) []*entities.Edge {
	var out []*entities.Edge
	for _, e := range s.edges {
		if e.Touches(nodeID, side) {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of nodes in the document
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of edges in the document
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

func (s *Store) updateGauges() {
	observability.CanvasNodes.Set(float64(len(s.nodes)))
	observability.CanvasEdges.Set(float64(len(s.edges)))
}

// NopWriter discards all writes. Useful for tests and ephemeral documents.
type NopWriter struct{}

func (NopWriter) ScheduleNodeWrite(*entities.Node, bool) {}
func (NopWriter) ScheduleEdgeWrite(*entities.Edge, bool) {}
func (NopWriter) DeleteNode(valueobjects.NodeID)         {}
func (NopWriter) DeleteEdge(valueobjects.EdgeID)         {}
