package websocket

import (
	"go.uber.org/zap"

	"canvas-engine/domain/events"
)

// EventType represents WebSocket event types
type EventType string

const (
	// System events
	EventConnectionEstablished EventType = "CONNECTION_ESTABLISHED"
	EventPing                  EventType = "PING"
	EventPong                  EventType = "PONG"
	EventError                 EventType = "ERROR"

	// Domain events
	EventNodeCreated      EventType = "NODE_CREATED"
	EventNodeMoved        EventType = "NODE_MOVED"
	EventNodeResized      EventType = "NODE_RESIZED"
	EventNodeUpdated      EventType = "NODE_UPDATED"
	EventNodeDeleted      EventType = "NODE_DELETED"
	EventEdgeCreated      EventType = "EDGE_CREATED"
	EventEdgeDeleted      EventType = "EDGE_DELETED"
	EventOutlineReordered EventType = "OUTLINE_REORDERED"
)

// Broadcaster forwards document events to WebSocket clients. Its Handle
// method is the events.Handler subscribed on the session.
type Broadcaster struct {
	hub    *Hub
	logger *zap.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(hub *Hub, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger,
	}
}

// Handle converts a domain event to its wire frame and broadcasts it.
// Events already carry JSON tags; they are sent as-is under the frame
// type derived from the event type.
func (b *Broadcaster) Handle(event events.DomainEvent) {
	frameType, ok := frameTypeFor(event.GetEventType())
	if !ok {
		b.logger.Debug("Unmapped event type, not broadcast",
			zap.String("eventType", event.GetEventType()),
		)
		return
	}

	if err := b.hub.Broadcast(string(frameType), event); err != nil {
		b.logger.Warn("Failed to broadcast event",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err),
		)
	}
}

func frameTypeFor(eventType string) (EventType, bool) {
	switch eventType {
	case "node.created":
		return EventNodeCreated, true
	case "node.moved":
		return EventNodeMoved, true
	case "node.resized":
		return EventNodeResized, true
	case "node.updated":
		return EventNodeUpdated, true
	case "node.deleted":
		return EventNodeDeleted, true
	case "edge.created":
		return EventEdgeCreated, true
	case "edge.deleted":
		return EventEdgeDeleted, true
	case "outline.reordered":
		return EventOutlineReordered, true
	default:
		return "", false
	}
}
