package handlers

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/session"
	"canvas-engine/pkg/common"
	pkgerrors "canvas-engine/pkg/errors"
	"canvas-engine/pkg/utils"
)

const maxBodyBytes = 1 << 20

// NodeHandler handles node-related HTTP requests. Every mutation is
// submitted to the session loop; handlers never touch the store directly.
type NodeHandler struct {
	session *session.Session
	cfg     *config.DomainConfig
	logger  *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(sess *session.Session, cfg *config.DomainConfig, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		session: sess,
		cfg:     cfg,
		logger:  logger,
	}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Kind     string  `json:"kind" validate:"required,oneof=chat note text title media"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ParentID *string `json:"parentId,omitempty" validate:"omitempty,uuid"`
}

// UpdateNodeRequest represents the request body for updating a node.
// Only the provided fields are applied.
type UpdateNodeRequest struct {
	X         *float64              `json:"x,omitempty"`
	Y         *float64              `json:"y,omitempty"`
	Width     *float64              `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height    *float64              `json:"height,omitempty" validate:"omitempty,gt=0"`
	Collapsed *bool                 `json:"collapsed,omitempty"`
	Color     *string               `json:"color,omitempty" validate:"omitempty,max=32"`
	Payload   *valueobjects.Payload `json:"payload,omitempty"`
}

// ListNodes handles GET /nodes
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	var dtos []NodeDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		nodes := s.Store().Nodes()
		dtos = make([]NodeDTO, 0, len(nodes))
		for _, n := range nodes {
			dtos = append(dtos, toNodeDTO(n))
		}
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	sort.Slice(dtos, func(i, j int) bool { return dtos[i].CreatedAt < dtos[j].CreatedAt })
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": dtos,
		"count": len(dtos),
	})
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	kind, err := valueobjects.ParseNodeKind(req.Kind)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	var parentID valueobjects.NodeID
	if req.ParentID != nil {
		parentID, err = valueobjects.NewNodeIDFromString(*req.ParentID)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid parent ID format")
			return
		}
	}

	var dto NodeDTO
	err = h.session.Do(r.Context(), func(s *session.Session) error {
		var node *entities.Node
		var createErr error
		if req.ParentID != nil {
			node, createErr = s.Store().CreateChildNode(parentID, kind, valueobjects.Point{X: req.X, Y: req.Y})
		} else {
			node, createErr = s.Store().CreateNode(kind, valueobjects.Point{X: req.X, Y: req.Y})
		}
		if createErr != nil {
			return createErr
		}
		dto = toNodeDTO(node)
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to create node",
			zap.String("kind", req.Kind),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, dto)
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := parseNodeID(w, r)
	if !ok {
		return
	}

	var dto NodeDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		node, found := s.Store().Node(nodeID)
		if !found {
			return pkgerrors.NewNotFoundError("node")
		}
		dto = toNodeDTO(node)
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, dto)
}

// UpdateNode handles PATCH /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := parseNodeID(w, r)
	if !ok {
		return
	}

	var req UpdateNodeRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	var dto NodeDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		updateErr := s.Store().UpdateNode(nodeID, func(n *entities.Node) error {
			if req.X != nil || req.Y != nil {
				pos := n.Position()
				if req.X != nil {
					pos.X = *req.X
				}
				if req.Y != nil {
					pos.Y = *req.Y
				}
				n.MoveTo(pos)
			}
			if req.Width != nil || req.Height != nil {
				size := n.Size()
				if req.Width != nil {
					size.Width = *req.Width
				}
				if req.Height != nil {
					size.Height = *req.Height
				}
				n.Resize(size, h.cfg)
			}
			if req.Collapsed != nil {
				n.SetCollapsed(*req.Collapsed)
			}
			if req.Color != nil {
				n.SetColor(*req.Color)
			}
			if req.Payload != nil {
				if err := n.SetPayload(*req.Payload); err != nil {
					return err
				}
			}
			return nil
		}, true)
		if updateErr != nil {
			return updateErr
		}
		node, _ := s.Store().Node(nodeID)
		dto = toNodeDTO(node)
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to update node",
			zap.String("nodeID", nodeID.String()),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, dto)
}

// DeleteNode handles DELETE /nodes/{nodeID}. Deleting is idempotent,
// cascades to connected edges, and promotes children to root.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := parseNodeID(w, r)
	if !ok {
		return
	}

	err := h.session.Do(r.Context(), func(s *session.Session) error {
		s.Store().DeleteNode(nodeID)
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListChildren handles GET /nodes/{nodeID}/children
func (h *NodeHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := parseNodeID(w, r)
	if !ok {
		return
	}

	var dtos []NodeDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		if _, found := s.Store().Node(nodeID); !found {
			return pkgerrors.NewNotFoundError("node")
		}
		children := s.Store().Children(nodeID)
		dtos = make([]NodeDTO, 0, len(children))
		for _, c := range children {
			dtos = append(dtos, toNodeDTO(c))
		}
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": dtos,
		"count": len(dtos),
	})
}

// ListNodeEdges handles GET /nodes/{nodeID}/edges
func (h *NodeHandler) ListNodeEdges(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := parseNodeID(w, r)
	if !ok {
		return
	}

	var dtos []EdgeDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		if _, found := s.Store().Node(nodeID); !found {
			return pkgerrors.NewNotFoundError("node")
		}
		edges := s.Store().EdgesForNode(nodeID)
		dtos = make([]EdgeDTO, 0, len(edges))
		for _, e := range edges {
			dtos = append(dtos, toEdgeDTO(e))
		}
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"edges": dtos,
		"count": len(dtos),
	})
}

func parseNodeID(w http.ResponseWriter, r *http.Request) (valueobjects.NodeID, bool) {
	raw := chi.URLParam(r, "nodeID")
	if raw == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Node ID is required")
		return valueobjects.NodeID{}, false
	}
	id, err := valueobjects.NewNodeIDFromString(raw)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid node ID format")
		return valueobjects.NodeID{}, false
	}
	return id, true
}
