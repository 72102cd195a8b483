package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/session"
	"canvas-engine/pkg/common"
	pkgerrors "canvas-engine/pkg/errors"
	"canvas-engine/pkg/utils"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	session *session.Session
	logger  *zap.Logger
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(sess *session.Session, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{
		session: sess,
		logger:  logger,
	}
}

// CreateEdgeRequest represents the request body for creating an edge
type CreateEdgeRequest struct {
	SourceID   string `json:"sourceId" validate:"required,uuid"`
	TargetID   string `json:"targetId" validate:"required,uuid"`
	SourceSide string `json:"sourceSide" validate:"required,oneof=top right bottom left"`
	TargetSide string `json:"targetSide" validate:"required,oneof=top right bottom left"`
}

// UpdateEdgeRequest represents the request body for updating an edge
type UpdateEdgeRequest struct {
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// ListEdges handles GET /edges
func (h *EdgeHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	var dtos []EdgeDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		edges := s.Store().Edges()
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

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	sourceID, err := valueobjects.NewNodeIDFromString(req.SourceID)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid source ID format")
		return
	}
	targetID, err := valueobjects.NewNodeIDFromString(req.TargetID)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid target ID format")
		return
	}
	sourceSide, _ := valueobjects.ParseSide(req.SourceSide)
	targetSide, _ := valueobjects.ParseSide(req.TargetSide)

	var dto EdgeDTO
	err = h.session.Do(r.Context(), func(s *session.Session) error {
		edge, createErr := s.Store().CreateEdge(sourceID, targetID, sourceSide, targetSide)
		if createErr != nil {
			return createErr
		}
		dto = toEdgeDTO(edge)
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to create edge",
			zap.String("sourceID", req.SourceID),
			zap.String("targetID", req.TargetID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, dto)
}

// GetEdge handles GET /edges/{edgeID}
func (h *EdgeHandler) GetEdge(w http.ResponseWriter, r *http.Request) {
	edgeID, ok := parseEdgeID(w, r)
	if !ok {
		return
	}

	var dto EdgeDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		edge, found := s.Store().Edge(edgeID)
		if !found {
			return pkgerrors.NewNotFoundError("edge")
		}
		dto = toEdgeDTO(edge)
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, dto)
}

// UpdateEdge handles PATCH /edges/{edgeID}
func (h *EdgeHandler) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	edgeID, ok := parseEdgeID(w, r)
	if !ok {
		return
	}

	var req UpdateEdgeRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	var dto EdgeDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		updateErr := s.Store().UpdateEdge(edgeID, func(e *entities.Edge) error {
			if req.Color != nil {
				e.SetColor(*req.Color)
			}
			return nil
		})
		if updateErr != nil {
			return updateErr
		}
		edge, _ := s.Store().Edge(edgeID)
		dto = toEdgeDTO(edge)
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, dto)
}

// DeleteEdge handles DELETE /edges/{edgeID}. Deleting is idempotent.
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	edgeID, ok := parseEdgeID(w, r)
	if !ok {
		return
	}

	err := h.session.Do(r.Context(), func(s *session.Session) error {
		s.Store().DeleteEdge(edgeID)
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseEdgeID(w http.ResponseWriter, r *http.Request) (valueobjects.EdgeID, bool) {
	raw := chi.URLParam(r, "edgeID")
	if raw == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Edge ID is required")
		return valueobjects.EdgeID{}, false
	}
	id, err := valueobjects.NewEdgeIDFromString(raw)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid edge ID format")
		return valueobjects.EdgeID{}, false
	}
	return id, true
}
