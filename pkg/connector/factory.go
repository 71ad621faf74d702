// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSnowflakeConnector creates a new Snowflake connector
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	if f.cfg.Snowflake == nil {
		return nil, fmt.Errorf("snowflake configuration is not loaded")
	}
	f.logger.Info("Creating Snowflake connector")

	connector, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}

	return connector, nil
}

// CreatePostgresConnector creates a new PostgreSQL connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	if f.cfg.Postgres == nil {
		return nil, fmt.Errorf("postgreSQL configuration is not loaded")
	}
	f.logger.Info("Creating PostgreSQL connector")

	connector, err := NewPostgresConnector(ctx, f.cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}

	return connector, nil
}

// CreateTableLoader creates the connector for the configured database sink
func (f *ConnectorFactory) CreateTableLoader(ctx context.Context) (TableLoader, error) {
	switch f.cfg.Sink {
	case config.SinkPostgres:
		pgConn, err := f.CreatePostgresConnector(ctx)
		if err != nil {
			return nil, err
		}
		return pgConn, nil
	case config.SinkSnowflake:
		snowConn, err := f.CreateSnowflakeConnector(ctx)
		if err != nil {
			return nil, err
		}
		return snowConn, nil
	default:
		return nil, fmt.Errorf("sink %q is not a database sink", f.cfg.Sink)
	}
}
