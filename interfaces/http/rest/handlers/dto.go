package handlers

import (
	"time"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// NodeDTO is the wire representation of a node
type NodeDTO struct {
	ID           string               `json:"id"`
	DocumentID   string               `json:"documentId"`
	ParentID     *string              `json:"parentId,omitempty"`
	Kind         string               `json:"kind"`
	X            float64              `json:"x"`
	Y            float64              `json:"y"`
	Width        float64              `json:"width"`
	Height       float64              `json:"height"`
	Collapsed    bool                 `json:"collapsed"`
	Payload      valueobjects.Payload `json:"payload"`
	Color        string               `json:"color,omitempty"`
	DisplayOrder *float64             `json:"displayOrder,omitempty"`
	CreatedAt    string               `json:"createdAt"`
	UpdatedAt    string               `json:"updatedAt"`
}

// EdgeDTO is the wire representation of an edge
type EdgeDTO struct {
	ID         string `json:"id"`
	SourceID   string `json:"sourceId"`
	TargetID   string `json:"targetId"`
	SourceSide string `json:"sourceSide"`
	TargetSide string `json:"targetSide"`
	Color      string `json:"color,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// OutlineRowDTO is one row of the flattened outline
type OutlineRowDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Level     int    `json:"level"`
	Collapsed bool   `json:"collapsed"`
}

func toNodeDTO(n *entities.Node) NodeDTO {
	dto := NodeDTO{
		ID:         n.ID().String(),
		DocumentID: n.DocumentID().String(),
		Kind:       string(n.Kind()),
		X:          n.Position().X,
		Y:          n.Position().Y,
		Width:      n.Size().Width,
		Height:     n.Size().Height,
		Collapsed:  n.Collapsed(),
		Payload:    n.Payload(),
		Color:      n.Color(),
		CreatedAt:  n.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:  n.UpdatedAt().Format(time.RFC3339Nano),
	}
	if parentID, ok := n.ParentID(); ok {
		s := parentID.String()
		dto.ParentID = &s
	}
	if order, ok := n.DisplayOrder(); ok {
		o := order
		dto.DisplayOrder = &o
	}
	return dto
}

func toEdgeDTO(e *entities.Edge) EdgeDTO {
	return EdgeDTO{
		ID:         e.ID().String(),
		SourceID:   e.SourceID().String(),
		TargetID:   e.TargetID().String(),
		SourceSide: string(e.SourceSide()),
		TargetSide: string(e.TargetSide()),
		Color:      e.Color(),
		CreatedAt:  e.CreatedAt().Format(time.RFC3339Nano),
	}
}
