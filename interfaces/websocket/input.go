package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/interaction"
	"canvas-engine/engine/session"
)

// InputMessage is one pointer or keyboard primitive sent by a client.
// X/Y and DX/DY are screen-space coordinates; CX/CY is the client's
// viewport center, used to compute the grid phase of the frame that is
// broadcast after the input is applied.
type InputMessage struct {
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Alt    bool    `json:"alt,omitempty"`
	Key    string  `json:"key,omitempty"`
	Tool   string  `json:"tool,omitempty"`
	CX     float64 `json:"cx,omitempty"`
	CY     float64 `json:"cy,omitempty"`
}

// InputHandler applies client input primitives to the session and
// broadcasts the resulting frame to every connection.
type InputHandler struct {
	session *session.Session
	hub     *Hub
	logger  *zap.Logger
	timeout time.Duration
}

// NewInputHandler creates an input handler bound to one session
func NewInputHandler(sess *session.Session, hub *Hub, logger *zap.Logger) *InputHandler {
	return &InputHandler{
		session: sess,
		hub:     hub,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Handle parses and applies one inbound input frame. Unknown actions are
// logged and dropped; a malformed frame never disturbs the session.
func (h *InputHandler) Handle(raw []byte) {
	var msg InputMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Debug("Malformed input frame", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var state session.RenderState
	err := h.session.Do(ctx, func(s *session.Session) error {
		if err := apply(s.Controller(), msg); err != nil {
			return err
		}
		state = s.RenderStateFor(valueobjects.Point{X: msg.CX, Y: msg.CY})
		return nil
	})
	if err != nil {
		h.logger.Warn("Input rejected",
			zap.String("action", msg.Action),
			zap.Error(err),
		)
		return
	}

	if err := h.hub.Broadcast("FRAME", state); err != nil {
		h.logger.Warn("Failed to broadcast frame", zap.Error(err))
	}
}

func apply(c *interaction.Controller, msg InputMessage) error {
	point := valueobjects.Point{X: msg.X, Y: msg.Y}

	switch msg.Action {
	case "drag_begin":
		c.BeginDrag(point)
	case "drag_by":
		c.DragBy(valueobjects.Point{X: msg.DX, Y: msg.DY})
	case "drag_end":
		c.EndDrag()
	case "click":
		c.Click(point, interaction.Modifiers{Alt: msg.Alt})
	case "double_click":
		c.DoubleClick(point)
	case "pinch":
		c.Pinch(msg.Delta, point)
	case "scroll":
		c.Scroll(valueobjects.Point{X: msg.DX, Y: msg.DY})
	case "zoom_in":
		c.ZoomIn(point)
	case "zoom_out":
		c.ZoomOut(point)
	case "confirm_delete":
		c.ConfirmPendingDelete()
	case "key":
		key, err := parseKey(msg.Key)
		if err != nil {
			return err
		}
		c.PressKey(key)
	case "select_tool":
		c.SelectTool(interaction.Tool(msg.Tool))
	default:
		return fmt.Errorf("unknown input action: %q", msg.Action)
	}
	return nil
}

func parseKey(s string) (interaction.Key, error) {
	switch s {
	case "escape":
		return interaction.KeyEscape, nil
	case "delete":
		return interaction.KeyDelete, nil
	default:
		return 0, fmt.Errorf("unknown key: %q", s)
	}
}
