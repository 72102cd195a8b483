package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	domaincfg "canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/persist"
	"canvas-engine/engine/session"
	"canvas-engine/infrastructure/config"
	dynamostore "canvas-engine/infrastructure/persistence/dynamodb"
	memorystore "canvas-engine/infrastructure/persistence/memory"
	sqlitestore "canvas-engine/infrastructure/persistence/sqlite"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domaincfg.DomainConfig
	Logger       *zap.Logger
	DocumentID   valueobjects.DocumentID
	Backend      DocumentBackend
	Session      *session.Session
}

// Shutdown releases the container's resources
func (c *Container) Shutdown() {
	if err := c.Backend.Close(); err != nil {
		c.Logger.Error("failed to close storage backend", zap.Error(err))
	}
	c.Logger.Sync()
}

// DocumentBackend is a storage backend that can both persist and reload
// documents and be shut down cleanly.
type DocumentBackend interface {
	persist.DocumentStore
	persist.DocumentLoader
	Close() error
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideDomainConfig loads the interaction tunables
func ProvideDomainConfig(cfg *config.Config) (*domaincfg.DomainConfig, error) {
	return config.LoadDomainConfig(cfg.TunablesPath)
}

// ProvideDocumentID resolves the document to open; a fresh one is created
// when none is configured
func ProvideDocumentID(cfg *config.Config, logger *zap.Logger) valueobjects.DocumentID {
	if cfg.DocumentID != "" {
		return valueobjects.DocumentID(cfg.DocumentID)
	}
	id := valueobjects.NewDocumentID()
	logger.Info("no document configured, creating a new one", zap.String("document_id", id.String()))
	return id
}

// ProvideDocumentBackend creates the configured storage backend
func ProvideDocumentBackend(ctx context.Context, cfg *config.Config, documentID valueobjects.DocumentID, logger *zap.Logger) (DocumentBackend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return memorystore.NewStore(), nil

	case config.BackendSQLite:
		return sqlitestore.NewStore(cfg.SQLitePath, logger)

	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := awsdynamodb.NewFromConfig(awsCfg)
		return dynamostore.NewStore(client, cfg.DynamoDBTable, documentID, logger), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}

// ProvideSession assembles the session over the backend
func ProvideSession(documentID valueobjects.DocumentID, backend DocumentBackend, domainConfig *domaincfg.DomainConfig, logger *zap.Logger) *session.Session {
	return session.New(documentID, backend, backend, domainConfig, logger)
}
