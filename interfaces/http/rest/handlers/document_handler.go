package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/outline"
	"canvas-engine/engine/session"
	"canvas-engine/pkg/common"
	"canvas-engine/pkg/utils"
)

// DocumentHandler serves document-level views: the full snapshot, the
// outline panel, and the per-frame render state.
type DocumentHandler struct {
	session *session.Session
	logger  *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(sess *session.Session, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		session: sess,
		logger:  logger,
	}
}

// ReorderRequest represents the request body for reordering outline roots
type ReorderRequest struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gte=0"`
}

// GetDocument handles GET /document
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	var (
		documentID string
		nodes      []NodeDTO
		edges      []EdgeDTO
	)
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		documentID = s.DocumentID().String()
		storeNodes := s.Store().Nodes()
		nodes = make([]NodeDTO, 0, len(storeNodes))
		for _, n := range storeNodes {
			nodes = append(nodes, toNodeDTO(n))
		}
		storeEdges := s.Store().Edges()
		edges = make([]EdgeDTO, 0, len(storeEdges))
		for _, e := range storeEdges {
			edges = append(edges, toEdgeDTO(e))
		}
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"documentId": documentID,
		"nodes":      nodes,
		"edges":      edges,
		"nodeCount":  len(nodes),
		"edgeCount":  len(edges),
	})
}

// GetOutline handles GET /document/outline. Rows come back flattened in
// display order with their nesting level.
func (h *DocumentHandler) GetOutline(w http.ResponseWriter, r *http.Request) {
	var rows []OutlineRowDTO
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		forest := outline.Build(s.Store().Nodes())
		items := forest.Flatten()
		rows = make([]OutlineRowDTO, 0, len(items))
		for _, it := range items {
			rows = append(rows, OutlineRowDTO{
				ID:        it.Node.ID().String(),
				Title:     it.Node.Payload().DisplayTitle(),
				Kind:      string(it.Node.Kind()),
				Level:     it.Level,
				Collapsed: it.Node.Collapsed(),
			})
		}
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

// ReorderOutline handles POST /document/outline/reorder
func (h *DocumentHandler) ReorderOutline(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	err := h.session.Do(r.Context(), func(s *session.Session) error {
		return outline.Reorder(s.Store(), req.From, req.To)
	})
	if err != nil {
		h.logger.Error("Failed to reorder outline",
			zap.Int("from", req.From),
			zap.Int("to", req.To),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Outline reordered",
	})
}

// GetFrame handles GET /document/frame. The cx and cy query parameters
// give the client's screen-space viewport center, used to compute the
// grid phase.
func (h *DocumentHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	cx, _ := strconv.ParseFloat(r.URL.Query().Get("cx"), 64)
	cy, _ := strconv.ParseFloat(r.URL.Query().Get("cy"), 64)

	var state session.RenderState
	err := h.session.Do(r.Context(), func(s *session.Session) error {
		state = s.RenderStateFor(valueobjects.Point{X: cx, Y: cy})
		return nil
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, state)
}
