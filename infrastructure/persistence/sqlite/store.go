// Package sqlite persists documents to a local SQLite database. It is the
// default storage backend for single-machine deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	pkgerrors "canvas-engine/pkg/errors"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens the database, enables WAL mode and foreign keys, and
// creates the schema. The edge foreign keys cascade on node deletion, so
// storage stays consistent with the in-memory cascade even if a node
// delete lands before its edge deletes.
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		parent_id TEXT,
		x REAL NOT NULL,
		y REAL NOT NULL,
		width REAL NOT NULL,
		height REAL NOT NULL,
		collapsed INTEGER NOT NULL DEFAULT 0,
		payload JSON NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		display_order REAL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_document ON nodes(document_id);

	CREATE TABLE IF NOT EXISTS edges (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		target_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		source_side TEXT NOT NULL,
		target_side TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edges_document ON edges(document_id);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create document tables: %w", err)
	}
	return nil
}

// WriteNode upserts a node row.
func (s *Store) WriteNode(ctx context.Context, node *entities.Node) error {
	payload, err := json.Marshal(node.Payload())
	if err != nil {
		return pkgerrors.NewDatabaseError("write node", err)
	}

	var parentID sql.NullString
	if pid, ok := node.ParentID(); ok {
		parentID = sql.NullString{String: pid.String(), Valid: true}
	}
	var displayOrder sql.NullFloat64
	if order, ok := node.DisplayOrder(); ok {
		displayOrder = sql.NullFloat64{Float64: order, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, document_id, parent_id, x, y, width, height, collapsed, payload, color, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			x = excluded.x,
			y = excluded.y,
			width = excluded.width,
			height = excluded.height,
			collapsed = excluded.collapsed,
			payload = excluded.payload,
			color = excluded.color,
			display_order = excluded.display_order,
			updated_at = excluded.updated_at`,
		node.ID().String(),
		node.DocumentID().String(),
		parentID,
		node.Position().X,
		node.Position().Y,
		node.Size().Width,
		node.Size().Height,
		node.Collapsed(),
		string(payload),
		node.Color(),
		displayOrder,
		node.CreatedAt().UTC(),
		node.UpdatedAt().UTC(),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("write node", err)
	}
	return nil
}

// WriteEdge upserts an edge row.
func (s *Store) WriteEdge(ctx context.Context, edge *entities.Edge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (id, document_id, source_id, target_id, source_side, target_side, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_side = excluded.source_side,
			target_side = excluded.target_side,
			color = excluded.color`,
		edge.ID().String(),
		edge.DocumentID().String(),
		edge.SourceID().String(),
		edge.TargetID().String(),
		string(edge.SourceSide()),
		string(edge.TargetSide()),
		edge.Color(),
		edge.CreatedAt().UTC(),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("write edge", err)
	}
	return nil
}

// DeleteNode removes a node row; the foreign keys cascade to its edges.
func (s *Store) DeleteNode(ctx context.Context, id valueobjects.NodeID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id.String()); err != nil {
		return pkgerrors.NewDatabaseError("delete node", err)
	}
	return nil
}

// DeleteEdge removes an edge row.
func (s *Store) DeleteEdge(ctx context.Context, id valueobjects.EdgeID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM edges WHERE id = ?", id.String()); err != nil {
		return pkgerrors.NewDatabaseError("delete edge", err)
	}
	return nil
}

// LoadDocument reads every node and edge of a document back into domain
// entities. Rows that fail reconstruction are skipped with a warning so a
// partially corrupted document still opens.
func (s *Store) LoadDocument(ctx context.Context, docID valueobjects.DocumentID) ([]*entities.Node, []*entities.Edge, error) {
	nodes, err := s.loadNodes(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	edges, err := s.loadEdges(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

func (s *Store) loadNodes(ctx context.Context, docID valueobjects.DocumentID) ([]*entities.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, x, y, width, height, collapsed, payload, color, display_order, created_at, updated_at
		FROM nodes WHERE document_id = ?`, docID.String())
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load nodes", err)
	}
	defer rows.Close()

	var nodes []*entities.Node
	for rows.Next() {
		var (
			idStr        string
			parentID     sql.NullString
			x, y, w, h   float64
			collapsed    bool
			payloadJSON  string
			color        string
			displayOrder sql.NullFloat64
			createdAt    time.Time
			updatedAt    time.Time
		)
		if err := rows.Scan(&idStr, &parentID, &x, &y, &w, &h, &collapsed, &payloadJSON, &color, &displayOrder, &createdAt, &updatedAt); err != nil {
			return nil, pkgerrors.NewDatabaseError("scan node", err)
		}

		node, err := s.reconstructNode(idStr, docID, parentID, x, y, w, h, collapsed, payloadJSON, color, displayOrder, createdAt, updatedAt)
		if err != nil {
			s.logger.Warn("skipping unreadable node row", zap.String("node_id", idStr), zap.Error(err))
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (s *Store) reconstructNode(
	idStr string,
	docID valueobjects.DocumentID,
	parentID sql.NullString,
	x, y, w, h float64,
	collapsed bool,
	payloadJSON, color string,
	displayOrder sql.NullFloat64,
	createdAt, updatedAt time.Time,
) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(idStr)
	if err != nil {
		return nil, err
	}

	var parent *valueobjects.NodeID
	if parentID.Valid {
		pid, err := valueobjects.NewNodeIDFromString(parentID.String)
		if err != nil {
			return nil, err
		}
		parent = &pid
	}

	var payload valueobjects.Payload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, err
	}

	var order *float64
	if displayOrder.Valid {
		v := displayOrder.Float64
		order = &v
	}

	return entities.ReconstructNode(
		id, docID, parent,
		valueobjects.NewPoint(x, y),
		valueobjects.NewSize(w, h),
		collapsed, payload, color, order,
		createdAt, updatedAt,
	)
}

func (s *Store) loadEdges(ctx context.Context, docID valueobjects.DocumentID) ([]*entities.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, target_id, source_side, target_side, color, created_at
		FROM edges WHERE document_id = ?`, docID.String())
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load edges", err)
	}
	defer rows.Close()

	var edges []*entities.Edge
	for rows.Next() {
		var (
			idStr, sourceStr, targetStr  string
			sourceSideStr, targetSideStr string
			color                        string
			createdAt                    time.Time
		)
		if err := rows.Scan(&idStr, &sourceStr, &targetStr, &sourceSideStr, &targetSideStr, &color, &createdAt); err != nil {
			return nil, pkgerrors.NewDatabaseError("scan edge", err)
		}

		edge, err := s.reconstructEdge(idStr, docID, sourceStr, targetStr, sourceSideStr, targetSideStr, color, createdAt)
		if err != nil {
			s.logger.Warn("skipping unreadable edge row", zap.String("edge_id", idStr), zap.Error(err))
			continue
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

func (s *Store) reconstructEdge(idStr string, docID valueobjects.DocumentID, sourceStr, targetStr, sourceSideStr, targetSideStr, color string, createdAt time.Time) (*entities.Edge, error) {
	id, err := valueobjects.NewEdgeIDFromString(idStr)
	if err != nil {
		return nil, err
	}
	sourceID, err := valueobjects.NewNodeIDFromString(sourceStr)
	if err != nil {
		return nil, err
	}
	targetID, err := valueobjects.NewNodeIDFromString(targetStr)
	if err != nil {
		return nil, err
	}
	sourceSide, err := valueobjects.ParseSide(sourceSideStr)
	if err != nil {
		return nil, err
	}
	targetSide, err := valueobjects.ParseSide(targetSideStr)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructEdge(id, docID, sourceID, targetID, sourceSide, targetSide, color, createdAt)
}
