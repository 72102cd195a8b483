// Package dynamodb persists documents to a single DynamoDB table, keyed
// PK=DOC#<document> with SK=NODE#<id> or SK=EDGE#<id>.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	pkgerrors "canvas-engine/pkg/errors"
)

// Store implements the document persistence ports over DynamoDB.
type Store struct {
	client     *dynamodb.Client
	tableName  string
	documentID valueobjects.DocumentID
	logger     *zap.Logger
}

// NewStore creates a DynamoDB-backed document store. DynamoDB has no
// foreign keys, so the store is scoped to a document at construction; the
// node-delete cascade queries the partition for referencing edges.
func NewStore(client *dynamodb.Client, tableName string, documentID valueobjects.DocumentID, logger *zap.Logger) *Store {
	return &Store{
		client:     client,
		tableName:  tableName,
		documentID: documentID,
		logger:     logger,
	}
}

// nodeItem represents the DynamoDB item structure for a node
type nodeItem struct {
	PK           string               `dynamodbav:"PK"`
	SK           string               `dynamodbav:"SK"`
	EntityType   string               `dynamodbav:"EntityType"`
	NodeID       string               `dynamodbav:"NodeID"`
	ParentID     string               `dynamodbav:"ParentID,omitempty"`
	X            float64              `dynamodbav:"X"`
	Y            float64              `dynamodbav:"Y"`
	Width        float64              `dynamodbav:"Width"`
	Height       float64              `dynamodbav:"Height"`
	Collapsed    bool                 `dynamodbav:"Collapsed"`
	Payload      valueobjects.Payload `dynamodbav:"Payload"`
	Color        string               `dynamodbav:"Color,omitempty"`
	DisplayOrder *float64             `dynamodbav:"DisplayOrder,omitempty"`
	CreatedAt    string               `dynamodbav:"CreatedAt"`
	UpdatedAt    string               `dynamodbav:"UpdatedAt"`
}

// edgeItem represents the DynamoDB item structure for an edge
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	EdgeID     string `dynamodbav:"EdgeID"`
	SourceID   string `dynamodbav:"SourceID"`
	TargetID   string `dynamodbav:"TargetID"`
	SourceSide string `dynamodbav:"SourceSide"`
	TargetSide string `dynamodbav:"TargetSide"`
	Color      string `dynamodbav:"Color,omitempty"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func (s *Store) docKey() string {
	return fmt.Sprintf("DOC#%s", s.documentID.String())
}

// WriteNode upserts a node item.
func (s *Store) WriteNode(ctx context.Context, node *entities.Node) error {
	item := nodeItem{
		PK:         s.docKey(),
		SK:         fmt.Sprintf("NODE#%s", node.ID().String()),
		EntityType: "NODE",
		NodeID:     node.ID().String(),
		X:          node.Position().X,
		Y:          node.Position().Y,
		Width:      node.Size().Width,
		Height:     node.Size().Height,
		Collapsed:  node.Collapsed(),
		Payload:    node.Payload(),
		Color:      node.Color(),
		CreatedAt:  node.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:  node.UpdatedAt().Format(time.RFC3339Nano),
	}
	if pid, ok := node.ParentID(); ok {
		item.ParentID = pid.String()
	}
	if order, ok := node.DisplayOrder(); ok {
		item.DisplayOrder = &order
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("write node", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("write node", err)
	}
	return nil
}

// WriteEdge upserts an edge item.
func (s *Store) WriteEdge(ctx context.Context, edge *entities.Edge) error {
	item := edgeItem{
		PK:         s.docKey(),
		SK:         fmt.Sprintf("EDGE#%s", edge.ID().String()),
		EntityType: "EDGE",
		EdgeID:     edge.ID().String(),
		SourceID:   edge.SourceID().String(),
		TargetID:   edge.TargetID().String(),
		SourceSide: string(edge.SourceSide()),
		TargetSide: string(edge.TargetSide()),
		Color:      edge.Color(),
		CreatedAt:  edge.CreatedAt().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("write edge", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("write edge", err)
	}
	return nil
}

// DeleteNode removes a node item and every edge item referencing it,
// keeping storage consistent with the in-memory cascade.
func (s *Store) DeleteNode(ctx context.Context, id valueobjects.NodeID) error {
	edges, err := s.queryEdges(ctx)
	if err != nil {
		return err
	}

	var deletes []types.WriteRequest
	deletes = append(deletes, deleteRequest(s.docKey(), fmt.Sprintf("NODE#%s", id.String())))
	for _, item := range edges {
		if item.SourceID == id.String() || item.TargetID == id.String() {
			deletes = append(deletes, deleteRequest(s.docKey(), item.SK))
		}
	}

	// BatchWriteItem accepts at most 25 requests per call
	for start := 0; start < len(deletes); start += 25 {
		end := start + 25
		if end > len(deletes) {
			end = len(deletes)
		}
		_, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: deletes[start:end],
			},
		})
		if err != nil {
			return pkgerrors.NewDatabaseError("delete node", err)
		}
	}
	return nil
}

// DeleteEdge removes an edge item.
func (s *Store) DeleteEdge(ctx context.Context, id valueobjects.EdgeID) error {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": s.docKey(),
		"SK": fmt.Sprintf("EDGE#%s", id.String()),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete edge", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       key,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete edge", err)
	}
	return nil
}

// LoadDocument reads the whole document partition back into entities.
// Items that fail reconstruction are skipped with a warning.
func (s *Store) LoadDocument(ctx context.Context, docID valueobjects.DocumentID) ([]*entities.Node, []*entities.Edge, error) {
	if docID != s.documentID {
		return nil, nil, pkgerrors.NewValidationError("store is scoped to a different document")
	}

	var nodes []*entities.Node
	var edges []*entities.Edge

	input, err := s.queryInput("")
	if err != nil {
		return nil, nil, pkgerrors.NewDatabaseError("load document", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, pkgerrors.NewDatabaseError("load document", err)
		}
		for _, raw := range page.Items {
			entityType := stringAttr(raw, "EntityType")
			switch entityType {
			case "NODE":
				node, err := s.unmarshalNode(raw)
				if err != nil {
					s.logger.Warn("skipping unreadable node item", zap.Error(err))
					continue
				}
				nodes = append(nodes, node)
			case "EDGE":
				edge, err := s.unmarshalEdge(raw)
				if err != nil {
					s.logger.Warn("skipping unreadable edge item", zap.Error(err))
					continue
				}
				edges = append(edges, edge)
			}
		}
	}
	return nodes, edges, nil
}

func (s *Store) queryEdges(ctx context.Context) ([]edgeItem, error) {
	input, err := s.queryInput("EDGE#")
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query edges", err)
	}

	var items []edgeItem
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query edges", err)
		}
		var pageItems []edgeItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, pkgerrors.NewDatabaseError("query edges", err)
		}
		items = append(items, pageItems...)
	}
	return items, nil
}

// queryInput builds a partition query; an empty skPrefix reads the whole
// document partition.
func (s *Store) queryInput(skPrefix string) (*dynamodb.QueryInput, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(s.docKey()))
	if skPrefix != "" {
		keyExpr = keyExpr.And(expression.Key("SK").BeginsWith(skPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

func (s *Store) unmarshalNode(raw map[string]types.AttributeValue) (*entities.Node, error) {
	var item nodeItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, err
	}

	id, err := valueobjects.NewNodeIDFromString(item.NodeID)
	if err != nil {
		return nil, err
	}
	var parent *valueobjects.NodeID
	if item.ParentID != "" {
		pid, err := valueobjects.NewNodeIDFromString(item.ParentID)
		if err != nil {
			return nil, err
		}
		parent = &pid
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructNode(
		id, s.documentID, parent,
		valueobjects.NewPoint(item.X, item.Y),
		valueobjects.NewSize(item.Width, item.Height),
		item.Collapsed, item.Payload, item.Color, item.DisplayOrder,
		createdAt, updatedAt,
	)
}

func (s *Store) unmarshalEdge(raw map[string]types.AttributeValue) (*entities.Edge, error) {
	var item edgeItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, err
	}

	id, err := valueobjects.NewEdgeIDFromString(item.EdgeID)
	if err != nil {
		return nil, err
	}
	sourceID, err := valueobjects.NewNodeIDFromString(item.SourceID)
	if err != nil {
		return nil, err
	}
	targetID, err := valueobjects.NewNodeIDFromString(item.TargetID)
	if err != nil {
		return nil, err
	}
	sourceSide, err := valueobjects.ParseSide(item.SourceSide)
	if err != nil {
		return nil, err
	}
	targetSide, err := valueobjects.ParseSide(item.TargetSide)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructEdge(id, s.documentID, sourceID, targetID, sourceSide, targetSide, item.Color, createdAt)
}

func deleteRequest(pk, sk string) types.WriteRequest {
	return types.WriteRequest{
		DeleteRequest: &types.DeleteRequest{
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk},
				"SK": &types.AttributeValueMemberS{Value: sk},
			},
		},
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// Close satisfies the backend contract; the SDK client needs no shutdown.
func (s *Store) Close() error {
	return nil
}
