// Package wiring tracks in-progress manual edge creation between node
// connection points. The machine is pure state: it decides whether a
// gesture starts, completes, or cancels a connection, and the caller
// performs the actual graph mutation.
package wiring

import (
	"canvas-engine/domain/core/valueobjects"
)

// Phase is the machine's current state.
type Phase int

const (
	// PhaseIdle means no connection gesture is in progress.
	PhaseIdle Phase = iota
	// PhaseWiring means a source connection point has been picked and the
	// machine is waiting for a drop on a target connection point.
	PhaseWiring
	// PhaseConfirmingDelete means a modifier-click landed on a connected
	// point and the machine is waiting for a confirm or cancel.
	PhaseConfirmingDelete
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWiring:
		return "wiring"
	case PhaseConfirmingDelete:
		return "confirming-delete"
	default:
		return "unknown"
	}
}

// Machine is the wiring state machine. It is not safe for concurrent use;
// the session loop owns it the same way it owns the graph store.
type Machine struct {
	phase      Phase
	sourceID   valueobjects.NodeID
	sourceSide valueobjects.Side
}

// NewMachine returns a machine in the idle phase.
func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Source returns the pending connection point. The boolean is false when
// the machine is idle.
func (m *Machine) Source() (valueobjects.NodeID, valueobjects.Side, bool) {
	if m.phase == PhaseIdle {
		return valueobjects.NodeID{}, "", false
	}
	return m.sourceID, m.sourceSide, true
}

// Begin starts a connection gesture from the given connection point.
// It reports false when another gesture is already in progress.
func (m *Machine) Begin(sourceID valueobjects.NodeID, side valueobjects.Side) bool {
	if m.phase != PhaseIdle {
		return false
	}
	if sourceID.IsZero() || !side.IsValid() {
		return false
	}
	m.phase = PhaseWiring
	m.sourceID = sourceID
	m.sourceSide = side
	return true
}

// IsValidDropTarget reports whether the candidate node can terminate the
// pending connection. Any side on a node other than the source qualifies.
func (m *Machine) IsValidDropTarget(candidateID valueobjects.NodeID) bool {
	return m.phase == PhaseWiring && !candidateID.Equals(m.sourceID)
}

// Completion describes a finished connection gesture.
type Completion struct {
	SourceID   valueobjects.NodeID
	SourceSide valueobjects.Side
	TargetID   valueobjects.NodeID
	TargetSide valueobjects.Side
}

// Complete ends the gesture at the given connection point. On a valid
// target it returns the endpoints for the caller to create an edge from.
// Dropping back on the source node cancels without creating anything;
// the gesture made no progress, so holding the wire would only trap the
// user in the mode.
func (m *Machine) Complete(targetID valueobjects.NodeID, side valueobjects.Side) (Completion, bool) {
	if m.phase != PhaseWiring {
		return Completion{}, false
	}
	if targetID.Equals(m.sourceID) {
		m.reset()
		return Completion{}, false
	}
	done := Completion{
		SourceID:   m.sourceID,
		SourceSide: m.sourceSide,
		TargetID:   targetID,
		TargetSide: side,
	}
	m.reset()
	return done, true
}

// BeginDeleteConfirmation enters the delete-confirmation sub-state for a
// connected point. It reports false when a gesture is already in progress.
func (m *Machine) BeginDeleteConfirmation(nodeID valueobjects.NodeID, side valueobjects.Side) bool {
	if m.phase != PhaseIdle {
		return false
	}
	if nodeID.IsZero() || !side.IsValid() {
		return false
	}
	m.phase = PhaseConfirmingDelete
	m.sourceID = nodeID
	m.sourceSide = side
	return true
}

// ConfirmDelete resolves a pending delete confirmation, returning the
// connection point whose edges should be removed.
func (m *Machine) ConfirmDelete() (valueobjects.NodeID, valueobjects.Side, bool) {
	if m.phase != PhaseConfirmingDelete {
		return valueobjects.NodeID{}, "", false
	}
	id, side := m.sourceID, m.sourceSide
	m.reset()
	return id, side, true
}

// Cancel aborts whatever gesture is in progress. Safe to call while idle.
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) reset() {
	m.phase = PhaseIdle
	m.sourceID = valueobjects.NodeID{}
	m.sourceSide = ""
}
